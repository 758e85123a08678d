// Package registry binds host entity types to the indexes they appear in.
// Capabilities are validated when a type is registered, not probed at event
// time.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/syncdex/internal/domain"
	"github.com/kailas-cloud/syncdex/internal/domain/document"
)

// Scope is the authoritative result scope of an entity type: the set of
// instances that belong in an index.
type Scope interface {
	// InScope reports whether the instance with the given id currently
	// belongs in the named index's source set.
	InScope(ctx context.Context, id, index string) (bool, error)
	// ResultScope returns a lazy cursor over the ids of every instance in
	// the named index's source set.
	ResultScope(ctx context.Context, index string) (Cursor, error)
}

// Cursor iterates entity ids lazily. Result sets can be arbitrarily large, so
// implementations must not materialize them.
type Cursor interface {
	// Next returns the next id. ok is false when the cursor is exhausted.
	Next(ctx context.Context) (id string, ok bool, err error)
	Close() error
}

type registration struct {
	source document.Source
	scope  Scope
}

type indexConfig struct {
	mapping Mapping
	types   []string
}

// Registry holds entity type registrations and index configuration.
type Registry struct {
	mu      sync.RWMutex
	types   map[string]registration
	indexes map[string]*indexConfig
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		types:   make(map[string]registration),
		indexes: make(map[string]*indexConfig),
	}
}

// AddIndex configures a named index with its mapping descriptor and the
// fully-qualified names of the entity types it contains.
func (r *Registry) AddIndex(name string, mapping Mapping, typeNames ...string) error {
	if name == "" || name == domain.AllIndexes {
		return fmt.Errorf("add index %q: %w", name, domain.ErrReservedIndex)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.indexes[name]; ok {
		return fmt.Errorf("add index %q: %w", name, domain.ErrAlreadyRegistered)
	}
	r.indexes[name] = &indexConfig{
		mapping: mapping,
		types:   append([]string(nil), typeNames...),
	}
	return nil
}

// Register binds an entity type to its document source and authoritative
// scope. Both capabilities are required; duplicates fail.
func (r *Registry) Register(typeName string, src document.Source, scope Scope) error {
	if typeName == "" {
		return fmt.Errorf("register: type name is required")
	}
	if src == nil {
		return fmt.Errorf("register %q: a document source is required", typeName)
	}
	if scope == nil {
		return fmt.Errorf("register %q: a result scope is required", typeName)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[typeName]; ok {
		return fmt.Errorf("register %q: %w", typeName, domain.ErrAlreadyRegistered)
	}
	r.types[typeName] = registration{source: src, scope: scope}
	return nil
}

// Validate checks that every type named by an index is registered and that
// every index carries a mapping. A missing mapping is fatal only in strict
// mode; otherwise the remote engine's dynamic mapping is relied on with a
// warning.
func (r *Registry) Validate(strict bool, logger *zap.Logger) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, idx := range r.indexes {
		if idx.mapping.Empty() {
			if strict {
				return fmt.Errorf("index %q: %w", name, domain.ErrMissingMapping)
			}
			logger.Warn("index has no mapping, relying on the remote engine instead",
				zap.String("index", name))
		}
		for _, typeName := range idx.types {
			if _, ok := r.types[typeName]; !ok {
				return fmt.Errorf("index %q: type %q: %w", name, typeName, domain.ErrNotRegistered)
			}
		}
	}
	return nil
}

// Names returns the configured index names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.indexes))
	for name := range r.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Types returns the entity type names configured for an index.
func (r *Registry) Types(index string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.indexes[index]
	if !ok {
		return nil, fmt.Errorf("index %q: %w", index, domain.ErrIndexNotConfigured)
	}
	return append([]string(nil), idx.types...), nil
}

// Indexes returns the names of every index a type is configured for, sorted.
func (r *Registry) Indexes(typeName string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for name, idx := range r.indexes {
		for _, t := range idx.types {
			if t == typeName {
				names = append(names, name)
				break
			}
		}
	}
	sort.Strings(names)
	return names
}

// Source returns the document source registered for a type.
func (r *Registry) Source(typeName string) (document.Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.types[typeName]
	if !ok {
		return nil, fmt.Errorf("type %q: %w", typeName, domain.ErrNotRegistered)
	}
	return reg.source, nil
}

// Scope returns the authoritative scope registered for a type.
func (r *Registry) Scope(typeName string) (Scope, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.types[typeName]
	if !ok {
		return nil, fmt.Errorf("type %q: %w", typeName, domain.ErrNotRegistered)
	}
	return reg.scope, nil
}

// PropertyNames returns the declared document property names of an index.
// Implements document.Properties.
func (r *Registry) PropertyNames(index string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.indexes[index]
	if !ok {
		return nil, fmt.Errorf("index %q: %w", index, domain.ErrIndexNotConfigured)
	}
	if idx.mapping.Empty() {
		return nil, fmt.Errorf("index %q: %w", index, domain.ErrMissingMapping)
	}
	return idx.mapping.PropertyNames(), nil
}

// MappingBody returns the create-index payload for an index.
func (r *Registry) MappingBody(index string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.indexes[index]
	if !ok {
		return nil, fmt.Errorf("index %q: %w", index, domain.ErrIndexNotConfigured)
	}
	if idx.mapping.Empty() {
		return nil, fmt.Errorf("index %q: %w", index, domain.ErrMissingMapping)
	}
	return idx.mapping.Body(), nil
}
