package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

// stubManager returns a canned result from GetOrFetch
type stubManager struct {
	*KeyBuilder
	result any
	err    error
}

func (m *stubManager) GetOrFetch(ctx context.Context, key CacheKey, fetch func(ctx context.Context) (any, error)) (any, error) {
	return m.result, m.err
}

func (m *stubManager) Remove(ctx context.Context, template KeyTemplate, parts ...any) error {
	return nil
}

func (m *stubManager) RemoveKey(ctx context.Context, key CacheKey) error { return nil }

func (m *stubManager) RemoveByPrefix(ctx context.Context, prefix string, parts ...any) error {
	return nil
}

func (m *stubManager) Clear(ctx context.Context) error { return nil }

func newStub(result any, err error) *stubManager {
	return &stubManager{KeyBuilder: newTestBuilder(), result: result, err: err}
}

func testKey(t *testing.T) CacheKey {
	t.Helper()
	k, err := newTestBuilder().PrepareKey(NewKeyTemplate("test.{0}"), 1)
	if err != nil {
		t.Fatalf("PrepareKey() error = %v", err)
	}
	return k
}

func TestGet_NilInterfaceReturnsZero(t *testing.T) {
	type SomeInterface interface {
		DoSomething() string
	}

	result, err := Get[SomeInterface](context.Background(), newStub(nil, nil), testKey(t), func(ctx context.Context) (SomeInterface, error) {
		return nil, nil
	})

	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result but got: %v", result)
	}
}

func TestGet_TypedNilPointer(t *testing.T) {
	result, err := Get[*string](context.Background(), newStub((*string)(nil), nil), testKey(t), func(ctx context.Context) (*string, error) {
		return nil, nil
	})

	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil pointer but got: %v", result)
	}
}

func TestGet_PropagatesError(t *testing.T) {
	want := errors.New("db down")

	_, err := Get[int](context.Background(), newStub(nil, want), testKey(t), func(ctx context.Context) (int, error) {
		return 0, want
	})

	if !errors.Is(err, want) {
		t.Errorf("expected %v, got %v", want, err)
	}
}

func TestGet_DecodesEncodedValues(t *testing.T) {
	type country struct {
		Name string
		Code string
	}

	raw, err := msgpack.Marshal([]country{{Name: "France", Code: "FR"}})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	got, err := Get[[]country](context.Background(), newStub(Encoded(raw), nil), testKey(t), func(ctx context.Context) ([]country, error) {
		t.Fatal("fetch should not be called")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if len(got) != 1 || got[0].Code != "FR" {
		t.Errorf("unexpected decoded value %+v", got)
	}
}

func TestGet_TypeMismatch(t *testing.T) {
	_, err := Get[int](context.Background(), newStub("not an int", nil), testKey(t), func(ctx context.Context) (int, error) {
		return 0, nil
	})

	if err == nil {
		t.Fatal("expected an error for a mismatched cached type")
	}
}
