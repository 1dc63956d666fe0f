package main

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-storefront-cache/domain"
	"github.com/goliatone/go-storefront-cache/pkg/di"
	"github.com/google/uuid"
	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newCountriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "countries",
		Short: "List and add countries",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the countries visible in a store",
		Long: `List countries ordered by display order and name. Without --show-hidden
only published countries are listed. With --store, countries limited to other
stores are hidden.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCountriesList(cmd, a)
		},
	}
	list.Flags().String("language", "", "language id used to sort by localized name")
	list.Flags().String("store", "", "store id the listing is scoped to")
	list.Flags().Bool("show-hidden", false, "include unpublished countries")

	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a country",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCountriesAdd(cmd, a, args[0])
		},
	}
	add.Flags().String("two", "", "two letter ISO code")
	add.Flags().String("three", "", "three letter ISO code")
	add.Flags().Int("display-order", 0, "display order")
	add.Flags().Bool("published", true, "publish the country")
	add.Flags().Bool("billing", true, "allow billing to the country")
	add.Flags().Bool("shipping", true, "allow shipping to the country")

	cmd.AddCommand(list, add)
	return cmd
}

func runCountriesList(cmd *cobra.Command, a *app) error {
	languageID, err := uuidFlag(cmd, "language")
	if err != nil {
		return err
	}
	storeID, err := uuidFlag(cmd, "store")
	if err != nil {
		return err
	}
	showHidden, _ := cmd.Flags().GetBool("show-hidden")

	var opts []di.Option
	if storeID != uuid.Nil {
		opts = append(opts, di.WithStoreContext(domain.ContextStoreContext{Default: &domain.Store{ID: storeID}}))
	}

	container, err := a.container(cmd.Context(), opts...)
	if err != nil {
		return err
	}
	defer container.Close()

	countries, err := container.Countries().GetAllCountries(cmd.Context(), languageID, showHidden)
	if err != nil {
		return fmt.Errorf("failed to list countries: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(countries) == 0 {
		fmt.Fprintln(out, "No countries found")
		return nil
	}

	t := prettytable.NewWriter()
	t.SetStyle(prettytable.StyleRounded)
	t.AppendHeader(prettytable.Row{"Code", "Name", "Order", "Published", "Billing", "Shipping", "ID"})

	for _, c := range countries {
		name, err := container.LocalizedEntities().GetLocalized(cmd.Context(), c, "Name", c.Name, languageID)
		if err != nil {
			return err
		}
		t.AppendRow(prettytable.Row{
			strings.ToUpper(c.TwoLetterISOCode),
			name,
			c.DisplayOrder,
			c.Published,
			c.AllowsBilling,
			c.AllowsShipping,
			c.ID.String(),
		})
	}

	fmt.Fprintln(out, t.Render())
	return nil
}

func runCountriesAdd(cmd *cobra.Command, a *app, name string) error {
	flags := cmd.Flags()
	two, _ := flags.GetString("two")
	three, _ := flags.GetString("three")
	order, _ := flags.GetInt("display-order")
	published, _ := flags.GetBool("published")
	billing, _ := flags.GetBool("billing")
	shipping, _ := flags.GetBool("shipping")

	container, err := a.container(cmd.Context())
	if err != nil {
		return err
	}
	defer container.Close()

	country, err := container.Countries().InsertCountry(cmd.Context(), &domain.Country{
		Name:               name,
		TwoLetterISOCode:   strings.ToUpper(two),
		ThreeLetterISOCode: strings.ToUpper(three),
		DisplayOrder:       order,
		Published:          published,
		AllowsBilling:      billing,
		AllowsShipping:     shipping,
	})
	if err != nil {
		return fmt.Errorf("failed to add country: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", country.Name, country.ID)
	return nil
}

func uuidFlag(cmd *cobra.Command, name string) (uuid.UUID, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --%s %q: %w", name, raw, err)
	}
	return id, nil
}
