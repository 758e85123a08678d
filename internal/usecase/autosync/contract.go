package autosync

import (
	"context"

	"github.com/kailas-cloud/syncdex/internal/cache"
	"github.com/kailas-cloud/syncdex/internal/domain/document"
	"github.com/kailas-cloud/syncdex/internal/registry"
)

// Registry resolves the per-type sync configuration.
type Registry interface {
	Indexes(typeName string) []string
	Source(typeName string) (document.Source, error)
	Scope(typeName string) (registry.Scope, error)
}

// Builder renders full and partial documents for an entity.
type Builder interface {
	Full(ctx context.Context, src document.Source, typeName, id, index string) (document.Document, error)
	Partial(
		ctx context.Context, src document.Source, typeName, id, index string, changed []string,
	) (document.Document, error)
}

// Writer is the remote single-document write contract (ISP).
type Writer interface {
	Index(ctx context.Context, idx, id string, fields document.Fields) error
	Update(ctx context.Context, idx, id string, fields document.Fields) error
	Delete(ctx context.Context, idx, id string) error
}

// Deduper suppresses writes whose document body is unchanged.
type Deduper interface {
	ShouldWrite(ctx context.Context, key cache.Key, doc document.Document) bool
	Remember(ctx context.Context, key cache.Key, doc document.Document) error
	Forget(ctx context.Context, key cache.Key) error
}
