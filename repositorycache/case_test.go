package repositorycache

import "testing"

func TestToSnake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Country", "country"},
		{"StoreMapping", "store_mapping"},
		{"SpecificationAttributeOption", "specification_attribute_option"},
		{"NewsItem", "news_item"},
		{"ID", "id"},
		{"HTMLBody", "html_body"},
		{"Address2", "address_2"},
		{"UUID4Store", "uuid_4_store"},
		{"*domain.NewsComment", "domain_news_comment"},
		{"Page[domain.Country]", "page_domain_country"},
		{"already_snake", "already_snake"},
		{"with-dash and space", "with_dash_and_space"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := toSnake(tt.in); got != tt.want {
				t.Errorf("toSnake(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
