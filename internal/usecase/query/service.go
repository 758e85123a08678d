// Package query executes remote search and count queries and records an
// audit log entry for each execution.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/syncdex/internal/config"
	"github.com/kailas-cloud/syncdex/internal/domain"
	"github.com/kailas-cloud/syncdex/internal/domain/querylog"
	"github.com/kailas-cloud/syncdex/internal/index"
	"github.com/kailas-cloud/syncdex/internal/metrics"
)

// Executor runs queries against the remote engine.
type Executor struct {
	engine   Searcher
	logs     LogWriter
	pageSize int
	logger   *zap.Logger

	now func() time.Time
}

// New creates a query executor.
func New(engine Searcher, logs LogWriter, cfg config.SearchConfig, logger *zap.Logger) *Executor {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 25
	}
	return &Executor{
		engine:   engine,
		logs:     logs,
		pageSize: pageSize,
		logger:   logger,
		now:      time.Now,
	}
}

// Search executes a search query and returns its log entry. Paging defaults
// are resolved into the query before the remote call so the logged query is
// a faithful replay artifact. The entry is persisted unless WithoutSave.
func (e *Executor) Search(
	ctx context.Context, idx string, query json.RawMessage, opts ...Option,
) (querylog.QueryLog, error) {
	if len(query) == 0 {
		return querylog.QueryLog{}, domain.ErrMissingQuery
	}

	resolved, err := e.resolvePaging(query)
	if err != nil {
		return querylog.QueryLog{}, err
	}

	start := e.now()
	result, err := e.engine.Search(ctx, idx, resolved)
	duration := e.now().Sub(start)
	if err != nil {
		return querylog.QueryLog{}, fmt.Errorf("search %q: %w", idx, err)
	}
	metrics.RemoteCallDuration.WithLabelValues("search").Observe(duration.Seconds())

	log := querylog.QueryLog{
		Index:             idx,
		QueryType:         querylog.TypeSearch,
		Query:             resolved,
		Hits:              normalizeHits(result.Hits),
		Aggregations:      result.Aggregations,
		TotalHits:         result.Total.Value,
		TotalHitsRelation: relationOf(result.Total.Relation),
		ExecutedAt:        start,
		Duration:          duration,
	}
	return e.finish(ctx, log, opts)
}

// Count executes a count query. The total is always exact and the entry
// carries no hits.
func (e *Executor) Count(
	ctx context.Context, idx string, query json.RawMessage, opts ...Option,
) (querylog.QueryLog, error) {
	if len(query) == 0 {
		return querylog.QueryLog{}, domain.ErrMissingQuery
	}

	start := e.now()
	total, err := e.engine.Count(ctx, idx, query)
	duration := e.now().Sub(start)
	if err != nil {
		return querylog.QueryLog{}, fmt.Errorf("count %q: %w", idx, err)
	}
	metrics.RemoteCallDuration.WithLabelValues("count").Observe(duration.Seconds())

	log := querylog.QueryLog{
		Index:             idx,
		QueryType:         querylog.TypeCount,
		Query:             query,
		Hits:              []querylog.Hit{},
		TotalHits:         total,
		TotalHitsRelation: querylog.RelationExact,
		ExecutedAt:        start,
		Duration:          duration,
	}
	return e.finish(ctx, log, opts)
}

func (e *Executor) finish(
	ctx context.Context, log querylog.QueryLog, opts []Option,
) (querylog.QueryLog, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log.User = o.user
	log.Reference = o.reference
	log.SearchTerms = o.searchTerms

	metrics.QueriesTotal.WithLabelValues(log.Index, string(log.QueryType), strconv.FormatBool(o.save)).Inc()

	if !o.save {
		return log, nil
	}
	saved, err := e.logs.Save(ctx, log)
	if err != nil {
		return log, fmt.Errorf("save query log: %w", err)
	}
	return saved, nil
}

// resolvePaging fills in the from/size defaults the engine would otherwise
// apply implicitly.
func (e *Executor) resolvePaging(query json.RawMessage) (json.RawMessage, error) {
	var body map[string]any
	if err := json.Unmarshal(query, &body); err != nil {
		return nil, fmt.Errorf("malformed query: %w", err)
	}
	if _, ok := body["from"]; !ok {
		body["from"] = 0
	}
	if _, ok := body["size"]; !ok {
		body["size"] = e.pageSize
	}
	resolved, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("re-encode query: %w", err)
	}
	return resolved, nil
}

func normalizeHits(hits []index.Hit) []querylog.Hit {
	out := make([]querylog.Hit, 0, len(hits))
	for _, h := range hits {
		out = append(out, querylog.Hit{
			ID:        h.ID,
			Index:     h.Index,
			Score:     h.Score,
			Highlight: h.Highlight,
			Fields:    h.Fields,
		})
	}
	return out
}

func relationOf(relation string) querylog.Relation {
	if relation == "gte" {
		return querylog.RelationAtLeast
	}
	return querylog.RelationExact
}
