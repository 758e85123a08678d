package reconcile

import (
	"context"

	"github.com/kailas-cloud/syncdex/internal/domain/document"
	"github.com/kailas-cloud/syncdex/internal/index"
	"github.com/kailas-cloud/syncdex/internal/registry"
)

// Registry resolves per-index configuration.
type Registry interface {
	Types(index string) ([]string, error)
	Source(typeName string) (document.Source, error)
	Scope(typeName string) (registry.Scope, error)
	MappingBody(index string) ([]byte, error)
}

// Builder renders full documents for bulk indexing.
type Builder interface {
	Full(ctx context.Context, src document.Source, typeName, id, index string) (document.Document, error)
}

// Engine is the remote index contract for reconciliation (ISP).
type Engine interface {
	Bulk(ctx context.Context, actions []index.BulkAction) (index.BulkResult, error)
	Scan(ctx context.Context, idx string) (index.HitCursor, error)
	CreateIndex(ctx context.Context, name string, body []byte) error
	DeleteIndex(ctx context.Context, name string, ignoreMissing bool) error
}
