package domain

import (
	"errors"
	"fmt"
)

// AllIndexes is the reserved index name meaning "every configured index".
// It is accepted at the event and ops levels as a fan-out sentinel but is
// never a valid target for a single bulk or reconcile operation.
const AllIndexes = "_all"

var (
	// ErrNotRegistered signals an entity type unknown to the registry.
	ErrNotRegistered = errors.New("entity type not registered")
	// ErrAlreadyRegistered signals a duplicate entity type registration.
	ErrAlreadyRegistered = errors.New("entity type already registered")
	// ErrIndexNotConfigured signals an index name absent from the configuration.
	ErrIndexNotConfigured = errors.New("index not configured")
	// ErrReservedIndex signals use of the "_all" sentinel where a single index is required.
	ErrReservedIndex = errors.New("index name is reserved")
	// ErrMissingMapping signals an index without a mapping descriptor.
	ErrMissingMapping = errors.New("index has no mapping")
	// ErrMissingQuery signals a query log without a stored wire query.
	ErrMissingQuery = errors.New("query log has no query payload")
	// ErrInvalidAction signals an unknown sync event action.
	ErrInvalidAction = errors.New("invalid sync action")
	// ErrMissingID signals an entity without a stable identifier.
	ErrMissingID = errors.New("entity has no id")
	// ErrNonSerializableField signals a partial update touching a field that
	// cannot be serialized without an explicit override.
	ErrNonSerializableField = errors.New("field is not directly serializable")
)

// NonSerializableFieldError wraps ErrNonSerializableField with the offending
// type and field names.
type NonSerializableFieldError struct {
	TypeName string
	Field    string
}

func (e *NonSerializableFieldError) Error() string {
	return fmt.Sprintf(
		"%s.%s: %s: override the document update capability for this type",
		e.TypeName, e.Field, ErrNonSerializableField.Error(),
	)
}

func (e *NonSerializableFieldError) Unwrap() error { return ErrNonSerializableField }

// NewNonSerializableField creates a non-serializable field error.
func NewNonSerializableField(typeName, field string) error {
	return &NonSerializableFieldError{TypeName: typeName, Field: field}
}
