// Package document derives index documents from host entities, in full or
// partial mode, guarding partial updates against fields that cannot be
// serialized without an explicit override.
package document

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kailas-cloud/syncdex/internal/domain"
)

// Fields is the flat field map representing an entity inside a search index.
type Fields map[string]any

// Document is the derived, ephemeral representation of one entity for one
// index.
type Document struct {
	id     string
	fields Fields
}

// New creates a Document.
func New(id string, fields Fields) Document {
	return Document{id: id, fields: fields}
}

// ID returns the document identifier.
func (d Document) ID() string { return d.id }

// Fields returns the field map.
func (d Document) Fields() Fields { return d.fields }

// Empty reports whether the document carries no fields. Partial builds may
// legitimately produce empty documents when every changed field is unmapped.
func (d Document) Empty() bool { return len(d.fields) == 0 }

// MarshalBody returns the canonical JSON body used both for remote writes and
// for dedup cache comparison.
func (d Document) MarshalBody() ([]byte, error) {
	return json.Marshal(d.fields)
}

// Source is the capability every registered entity type must provide: the
// full index representation of one of its instances.
type Source interface {
	// SearchDocument returns the full field map for the instance with the
	// given id, as it should appear in the named index.
	SearchDocument(ctx context.Context, id, index string) (Fields, error)
}

// UpdateSource is the optional capability for types that override partial
// document construction, e.g. to serialize relation-backed fields themselves.
// Implementations take responsibility for the serializability of what they
// return; the builder does not re-check it.
type UpdateSource interface {
	SearchDocumentUpdate(ctx context.Context, id, index string, changed []string) (Fields, error)
}

// Identifier is the optional capability for types whose document id differs
// from the entity id.
type Identifier interface {
	SearchDocumentID(id, index string) string
}

// Serializable reports whether a value is of a directly serializable kind:
// nil, booleans, strings, integers, floats, time.Time, or a slice of such.
// Maps, structs and pointers are treated as relation-backed values that need
// an explicit override.
func Serializable(v any) bool {
	switch t := v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64,
		time.Time, json.Number:
		return true
	case []any:
		for _, el := range t {
			if !Serializable(el) {
				return false
			}
		}
		return true
	case []bool, []string, []int, []int32, []int64, []float32, []float64, []time.Time:
		return true
	}
	return false
}

// ValidateFields checks every field of a partial document for direct
// serializability, returning a NonSerializableFieldError naming the first
// offending field.
func ValidateFields(typeName string, fields Fields) error {
	for name, value := range fields {
		if !Serializable(value) {
			return domain.NewNonSerializableField(typeName, name)
		}
	}
	return nil
}
