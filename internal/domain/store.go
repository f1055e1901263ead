package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Document is a schemaless field map as persisted by the document store.
// Numeric fields round-trip through JSON and come back as float64; the
// typed accessors normalize that once, at the store boundary, so business
// logic never carries scattered fallback defaults.
type Document map[string]any

// Int returns the field as int64, or 0 when absent or non-numeric.
func (d Document) Int(field string) int64 {
	switch v := d[field].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// String returns the field as a string, or "" when absent.
func (d Document) String(field string) string {
	if v, ok := d[field].(string); ok {
		return v
	}
	return ""
}

// Time returns the field as a time. Timestamps are stored as Unix seconds;
// absent or zero fields decode as the zero time.
func (d Document) Time(field string) time.Time {
	sec := d.Int(field)
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// Has reports whether the field is present at all.
func (d Document) Has(field string) bool {
	_, ok := d[field]
	return ok
}

// Tx is a consistent read-then-conditional-write scope. Reads inside the
// transaction see a stable snapshot; the writes commit atomically or not
// at all. The streak calculator funnels its read-modify-write through this
// to guarantee at-most-one transition per logical day across concurrent
// sessions.
type Tx interface {
	Get(path string) (Document, error)
	Merge(path string, fields Document) error
}

// Store is the document-store contract the engine is built against. The
// production implementation lives in internal/infra/docstore; tests inject
// fakes so the engine runs without a live backend.
//
// Merge upserts with field-level merge: listed fields replace their previous
// values, unlisted fields are preserved, and a missing document is created.
// Increment atomically adds to a numeric field without a prior read, creating
// the document or field at zero first when absent. Both are commutative, so
// concurrent sessions converge without coordination.
type Store interface {
	Get(ctx context.Context, path string) (Document, error)
	Merge(ctx context.Context, path string, fields Document) error
	Increment(ctx context.Context, path, field string, delta int64) error
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error

	// List returns the paths of all documents under a prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	// Delete removes a document. Deleting a missing path is not an error.
	Delete(ctx context.Context, path string) error
}
