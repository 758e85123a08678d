// Package results materializes search hits back into relational rows.
package results

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kailas-cloud/syncdex/internal/domain/querylog"
	"github.com/kailas-cloud/syncdex/internal/domain/relational"
)

// rows is the subset of pgx.Rows the repository consumes.
type rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// querier is the consumer interface for ranked selects (ISP).
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (rows, error)
}

// Repo implements usecase/results.Repository over Postgres.
type Repo struct {
	q querier
}

// New creates a results repository.
func New(q querier) *Repo {
	return &Repo{q: q}
}

// NewFromPool creates a results repository backed by a pgx pool.
func NewFromPool(pool *pgxpool.Pool) *Repo {
	return New(poolQuerier{pool: pool})
}

type poolQuerier struct {
	pool *pgxpool.Pool
}

func (p poolQuerier) Query(ctx context.Context, sql string, args ...any) (rows, error) {
	r, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by the repository
	}
	return r, nil
}

// Fetch returns the scope rows matching the hits, ordered by hit rank.
// Hits whose id has no matching row are dropped silently, mirroring what
// a stale index entry looks like to the caller.
func (r *Repo) Fetch(
	ctx context.Context, scope relational.Scope, hits []querylog.Hit,
) ([]relational.Record, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return []relational.Record{}, nil
	}

	sql, args := buildRankedQuery(scope, hits)

	rs, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ranked select from %s: %w", scope.Table, err)
	}
	defer rs.Close()

	records := make([]relational.Record, 0, len(hits))
	for rs.Next() {
		rec, err := scanRecord(rs, scope)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("ranked select from %s: %w", scope.Table, err)
	}
	return records, nil
}

func scanRecord(rs rows, scope relational.Scope) (relational.Record, error) {
	vals := make([]any, len(scope.Columns))
	dests := make([]any, 0, len(scope.Columns)+2)
	for i := range vals {
		dests = append(dests, &vals[i])
	}

	var score *float64
	var rank int
	dests = append(dests, &score, &rank)

	if err := rs.Scan(dests...); err != nil {
		return relational.Record{}, fmt.Errorf("scan %s row: %w", scope.Table, err)
	}

	fields := make(map[string]any, len(scope.Columns))
	for i, c := range scope.Columns {
		fields[c] = vals[i]
	}
	return relational.Record{Fields: fields, Score: score, Rank: rank}, nil
}
