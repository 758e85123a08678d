// Package results rebuilds the relational view of a logged query: the rows
// behind its hits, in engine order, with scores interleaved.
package results

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/syncdex/internal/domain"
	"github.com/kailas-cloud/syncdex/internal/domain/querylog"
	"github.com/kailas-cloud/syncdex/internal/domain/relational"
)

// Result is one reconstructed row with its search annotations.
type Result struct {
	Fields    map[string]any
	Score     *float64
	Rank      int
	Highlight map[string][]string
}

// Reconstructor turns persisted query logs back into relational results.
type Reconstructor struct {
	repo Repository
}

// New creates a reconstructor.
func New(repo Repository) *Reconstructor {
	return &Reconstructor{repo: repo}
}

// FromQueryLog materializes the rows behind a logged query's hits, ordered
// by hit rank, attaching each hit's highlight fragments. A log without a
// stored query cannot be reconstructed.
func (r *Reconstructor) FromQueryLog(
	ctx context.Context, log *querylog.QueryLog, scope relational.Scope,
) ([]Result, error) {
	if log == nil || len(log.Query) == 0 {
		return nil, domain.ErrMissingQuery
	}
	if len(log.Hits) == 0 {
		return []Result{}, nil
	}

	records, err := r.repo.Fetch(ctx, scope, log.Hits)
	if err != nil {
		return nil, fmt.Errorf("materialize hits for log %d: %w", log.ID, err)
	}

	highlights := make(map[string]map[string][]string, len(log.Hits))
	for _, h := range log.Hits {
		if len(h.Highlight) > 0 {
			highlights[h.ID] = h.Highlight
		}
	}

	out := make([]Result, 0, len(records))
	for _, rec := range records {
		res := Result{Fields: rec.Fields, Score: rec.Score, Rank: rec.Rank}
		if pk, ok := rec.Fields[scope.PKColumn]; ok {
			res.Highlight = highlights[fmt.Sprint(pk)]
		}
		out = append(out, res)
	}
	return out, nil
}
