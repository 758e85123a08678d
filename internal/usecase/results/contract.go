package results

import (
	"context"

	"github.com/kailas-cloud/syncdex/internal/domain/querylog"
	"github.com/kailas-cloud/syncdex/internal/domain/relational"
)

// Repository materializes hits into rank-annotated rows.
type Repository interface {
	Fetch(ctx context.Context, scope relational.Scope, hits []querylog.Hit) ([]relational.Record, error)
}
