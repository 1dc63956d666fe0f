package repositorycache

import (
	"context"
)

type invalidationTagsContextKey struct{}

// WithInvalidationTags attaches extra prefixes to drop when the next write
// made with ctx succeeds.
func WithInvalidationTags(ctx context.Context, tags ...string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(tags) == 0 {
		return ctx
	}

	existing := invalidationTagsFromContext(ctx)
	combined := dedupeStrings(append(existing, tags...))
	if len(combined) == 0 {
		return ctx
	}

	return context.WithValue(ctx, invalidationTagsContextKey{}, combined)
}

func invalidationTagsFromContext(ctx context.Context) []string {
	if ctx == nil {
		return nil
	}
	if tags, ok := ctx.Value(invalidationTagsContextKey{}).([]string); ok {
		return append([]string(nil), tags...)
	}
	return nil
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
