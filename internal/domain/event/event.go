// Package event defines the lifecycle events the host application feeds into
// the sync engine. Events are transient: created on save/delete, consumed
// immediately, never persisted.
package event

import (
	"fmt"

	"github.com/kailas-cloud/syncdex/internal/domain"
)

// Action is the index mutation implied by a lifecycle event.
type Action string

// Supported actions.
const (
	ActionIndex  Action = "index"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Valid reports whether the action is one of the supported values.
func (a Action) Valid() bool {
	switch a {
	case ActionIndex, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Event is an immutable record of one entity lifecycle transition.
type Event struct {
	typeName string
	id       string
	index    string
	action   Action
	changed  []string
	force    bool
}

// New validates and creates an Event targeting every index the type is
// registered for.
func New(typeName, id string, action Action) (Event, error) {
	if typeName == "" {
		return Event{}, fmt.Errorf("event: type name is required")
	}
	if id == "" {
		return Event{}, fmt.Errorf("event: %w", domain.ErrMissingID)
	}
	if !action.Valid() {
		return Event{}, fmt.Errorf("event: %q: %w", action, domain.ErrInvalidAction)
	}
	return Event{typeName: typeName, id: id, index: domain.AllIndexes, action: action}, nil
}

// WithIndex returns a copy targeting a single named index.
func (e Event) WithIndex(index string) Event {
	e.index = index
	return e
}

// WithChangedFields returns a copy carrying the set of fields the host
// reported as modified. A non-empty set selects the partial update path.
func (e Event) WithChangedFields(fields ...string) Event {
	e.changed = append([]string(nil), fields...)
	return e
}

// WithForce returns a copy that bypasses the dedup cache comparison.
func (e Event) WithForce() Event {
	e.force = true
	return e
}

// TypeName returns the fully-qualified entity type name.
func (e Event) TypeName() string { return e.typeName }

// ID returns the entity identifier.
func (e Event) ID() string { return e.id }

// Index returns the target index name, or the "_all" sentinel when the event
// is untargeted.
func (e Event) Index() string { return e.index }

// Action returns the index mutation implied by the event.
func (e Event) Action() Action { return e.action }

// ChangedFields returns the changed-field set, nil when absent.
func (e Event) ChangedFields() []string { return e.changed }

// Force reports whether the dedup cache must be bypassed.
func (e Event) Force() bool { return e.force }

// Targeted reports whether the event names a single index.
func (e Event) Targeted() bool { return e.index != domain.AllIndexes && e.index != "" }
