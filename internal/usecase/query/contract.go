package query

import (
	"context"
	"encoding/json"

	"github.com/kailas-cloud/syncdex/internal/domain/querylog"
	"github.com/kailas-cloud/syncdex/internal/index"
)

// Searcher is the remote query contract (ISP).
type Searcher interface {
	Search(ctx context.Context, idx string, query json.RawMessage) (*index.SearchResult, error)
	Count(ctx context.Context, idx string, query json.RawMessage) (int64, error)
}

// LogWriter persists executed query logs.
type LogWriter interface {
	Save(ctx context.Context, log querylog.QueryLog) (querylog.QueryLog, error)
}
