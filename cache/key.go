package cache

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// hashSuffixLength is the size of "#" plus a 16 char xxhash64 hex digest.
const hashSuffixLength = 17

var placeholderPattern = regexp.MustCompile(`\{(\d+)\}`)

// KeyTemplate names a family of cache entries.
//
// Key and Prefixes use positional placeholders ({0}, {1}, ...) that are
// replaced by the serialized key parts. Prefixes are the group tags used by
// RemoveByPrefix. CacheTime overrides the flavour default when non zero.
type KeyTemplate struct {
	Key       string
	Prefixes  []string
	CacheTime time.Duration
}

// NewKeyTemplate is a shorthand for building a KeyTemplate.
func NewKeyTemplate(key string, prefixes ...string) KeyTemplate {
	return KeyTemplate{Key: key, Prefixes: prefixes}
}

// WithCacheTime returns a copy of the template with a cache time override.
func (t KeyTemplate) WithCacheTime(d time.Duration) KeyTemplate {
	t.CacheTime = d
	t.Prefixes = append([]string(nil), t.Prefixes...)
	return t
}

// CacheKey is a resolved, immutable cache key.
type CacheKey struct {
	template  string
	key       string
	parts     []string
	prefixes  []string
	cacheTime time.Duration
}

// Key returns the resolved string key.
func (k CacheKey) Key() string { return k.key }

// Template returns the template the key was built from.
func (k CacheKey) Template() string { return k.template }

// Parts returns the serialized parts.
func (k CacheKey) Parts() []string { return append([]string(nil), k.parts...) }

// Prefixes returns the resolved prefix tags of the key.
func (k CacheKey) Prefixes() []string { return append([]string(nil), k.prefixes...) }

// CacheTime returns the expiry for the key. Zero means the backend default.
func (k CacheKey) CacheTime() time.Duration { return k.cacheTime }

// String implements fmt.Stringer.
func (k CacheKey) String() string { return k.key }

// IsZero reports whether the key was never prepared.
func (k CacheKey) IsZero() bool { return k.key == "" }

// KeyBuilder prepares cache keys from templates.
type KeyBuilder struct {
	prefix     string
	maxLength  int
	defaultTTL time.Duration
	shortTTL   time.Duration
	serializer KeySerializer
}

// NewKeyBuilder creates a KeyBuilder from the key related settings in cfg.
func NewKeyBuilder(cfg Config, serializer KeySerializer) *KeyBuilder {
	if serializer == nil {
		serializer = NewDefaultKeySerializer()
	}
	return &KeyBuilder{
		prefix:     cfg.KeyPrefix,
		maxLength:  cfg.MaxKeyLength,
		defaultTTL: cfg.DefaultCacheTime,
		shortTTL:   cfg.ShortTermCacheTime,
		serializer: serializer,
	}
}

// PrepareKey resolves template with parts. The cache time is the template
// override, or zero for the backend default.
func (b *KeyBuilder) PrepareKey(template KeyTemplate, parts ...any) (CacheKey, error) {
	return b.prepare(template, template.CacheTime, parts)
}

// PrepareKeyForDefaultCache resolves template using the default cache time
// unless the template overrides it.
func (b *KeyBuilder) PrepareKeyForDefaultCache(template KeyTemplate, parts ...any) (CacheKey, error) {
	ttl := template.CacheTime
	if ttl == 0 {
		ttl = b.defaultTTL
	}
	return b.prepare(template, ttl, parts)
}

// PrepareKeyForShortTermCache resolves template using the short term cache time.
func (b *KeyBuilder) PrepareKeyForShortTermCache(template KeyTemplate, parts ...any) (CacheKey, error) {
	return b.prepare(template, b.shortTTL, parts)
}

// ResolvePrefix resolves a prefix template the same way key prefixes are
// resolved, so RemoveByPrefix(prefix, parts...) matches the tags stored with keys.
func (b *KeyBuilder) ResolvePrefix(prefix string, parts ...any) (string, error) {
	if strings.TrimSpace(prefix) == "" {
		return "", invalidKeyError("empty prefix")
	}
	serialized, err := b.serializeParts(parts)
	if err != nil {
		return "", err
	}
	resolved, _, err := format(prefix, serialized)
	if err != nil {
		return "", err
	}
	return b.namespace(resolved), nil
}

// ResolveKey resolves the exact key string for template and parts, without
// building a full CacheKey.
func (b *KeyBuilder) ResolveKey(template KeyTemplate, parts ...any) (string, error) {
	key, err := b.PrepareKey(template, parts...)
	if err != nil {
		return "", err
	}
	return key.key, nil
}

func (b *KeyBuilder) prepare(template KeyTemplate, ttl time.Duration, parts []any) (CacheKey, error) {
	if strings.TrimSpace(template.Key) == "" {
		return CacheKey{}, invalidKeyError("empty key template")
	}

	serialized, err := b.serializeParts(parts)
	if err != nil {
		return CacheKey{}, err
	}

	resolved, used, err := format(template.Key, serialized)
	if err != nil {
		return CacheKey{}, err
	}

	// parts without a placeholder still make the key distinct
	if used < len(serialized) {
		resolved = strings.Join(append([]string{resolved}, serialized[used:]...), KeySeparator)
	}

	prefixes := make([]string, 0, len(template.Prefixes))
	for _, p := range template.Prefixes {
		rp, _, err := format(p, serialized)
		if err != nil {
			return CacheKey{}, err
		}
		prefixes = append(prefixes, b.namespace(rp))
	}

	return CacheKey{
		template:  template.Key,
		key:       b.shorten(b.namespace(resolved)),
		parts:     serialized,
		prefixes:  prefixes,
		cacheTime: ttl,
	}, nil
}

func (b *KeyBuilder) serializeParts(parts []any) ([]string, error) {
	out := make([]string, len(parts))
	for i, p := range parts {
		s, err := b.serializer.SerializePart(i, p)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func (b *KeyBuilder) namespace(s string) string {
	if b.prefix == "" {
		return s
	}
	return b.prefix + "." + s
}

// shorten keeps keys under maxLength. The head of the key is kept so
// operators can still recognise the family when inspecting the store.
func (b *KeyBuilder) shorten(key string) string {
	if b.maxLength <= 0 || len(key) <= b.maxLength {
		return key
	}
	sum := strconv.FormatUint(xxhash.Sum64String(key), 16)
	sum = strings.Repeat("0", 16-len(sum)) + sum
	return key[:b.maxLength-hashSuffixLength] + "#" + sum
}

// format replaces {n} placeholders and returns the number of parts consumed,
// which is the highest placeholder index plus one.
func format(template string, parts []string) (string, int, error) {
	used := 0
	var missing error

	out := placeholderPattern.ReplaceAllStringFunc(template, func(m string) string {
		idx, _ := strconv.Atoi(m[1 : len(m)-1])
		if idx >= len(parts) {
			if missing == nil {
				missing = invalidKeyError("template %q references part {%d} but only %d parts were given", template, idx, len(parts))
			}
			return m
		}
		if idx+1 > used {
			used = idx + 1
		}
		return parts[idx]
	})

	if missing != nil {
		return "", 0, missing
	}
	return out, used, nil
}
