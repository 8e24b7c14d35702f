package repository

import (
	"context"
	"iter"
	"reflect"
	"strings"

	"golang.org/x/text/cases"
)

// Entity is a document persisted in a Collection.
type Entity interface {
	GetID() string
	SetID(id string)
	GetRevision() int64
	SetRevision(rev int64)
	// LookupKey is the value indexed for case-insensitive name queries.
	LookupKey() string
}

// Meta carries the store-managed fields of a document. Embed it by value.
type Meta struct {
	ID       string `json:"id"`
	Revision int64  `json:"-"`
}

func (m *Meta) GetID() string         { return m.ID }
func (m *Meta) SetID(id string)       { m.ID = id }
func (m *Meta) GetRevision() int64    { return m.Revision }
func (m *Meta) SetRevision(rev int64) { m.Revision = rev }

// Query selects documents by id and/or lookup key. Empty fields are ignored.
// Key is normalized with NormalizeKey before matching.
type Query struct {
	ID  string
	Key string
}

// Collection is a typed view over one logical document collection.
type Collection[E Entity] interface {
	Name() string
	Create(ctx context.Context, doc E) (E, error)
	GetAll(ctx context.Context) iter.Seq2[E, error]
	// GetBy yields matching documents in insertion order. limit <= 0 means no limit.
	GetBy(ctx context.Context, q Query, limit int) iter.Seq2[E, error]
	// GetFirst returns the first match or ErrNotFound.
	GetFirst(ctx context.Context, q Query) (E, error)
	// Update replaces the stored document if its revision still matches doc's.
	Update(ctx context.Context, doc E) error
	Delete(ctx context.Context, id string) error
	// DeleteAtRevision removes doc only if its stored revision still
	// matches doc's, returning ErrConflict otherwise.
	DeleteAtRevision(ctx context.Context, doc E) error
}

// NormalizeKey folds s for case-insensitive comparison.
func NormalizeKey(s string) string {
	// Casers are stateful; allocate one per call.
	return cases.Fold().String(s)
}

// SameKey reports whether a and b are equal under NormalizeKey.
func SameKey(a, b string) bool {
	return NormalizeKey(a) == NormalizeKey(b)
}

// CollectionName derives a collection name from the document type:
// the lower-cased type name followed by "s".
func CollectionName[T any]() string {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return strings.ToLower(t.Name()) + "s"
}

// Collect drains seq into a slice, stopping at the first error.
func Collect[E any](seq iter.Seq2[E, error]) ([]E, error) {
	var out []E
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
