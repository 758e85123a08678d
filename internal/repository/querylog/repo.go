// Package querylog persists executed query logs in Postgres.
package querylog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kailas-cloud/syncdex/internal/domain/querylog"
)

// querier is the consumer interface for the log table (ISP).
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ErrLogNotFound is returned when no log row matches the requested id.
var ErrLogNotFound = errors.New("query log entry not found")

const createTableSQL = `
CREATE TABLE IF NOT EXISTS search_query_log (
	id                  BIGSERIAL PRIMARY KEY,
	username            TEXT NOT NULL DEFAULT '',
	search_terms        TEXT NOT NULL DEFAULT '',
	reference           TEXT NOT NULL DEFAULT '',
	index_name          TEXT NOT NULL,
	query_type          TEXT NOT NULL,
	query               JSONB NOT NULL,
	hits                JSONB NOT NULL DEFAULT '[]',
	aggregations        JSONB,
	total_hits          BIGINT NOT NULL DEFAULT 0,
	total_hits_relation TEXT NOT NULL DEFAULT '',
	executed_at         TIMESTAMPTZ NOT NULL,
	duration_seconds    DOUBLE PRECISION NOT NULL
)`

const insertSQL = `
INSERT INTO search_query_log (
	username, search_terms, reference, index_name, query_type, query,
	hits, aggregations, total_hits, total_hits_relation, executed_at, duration_seconds
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id`

const selectSQL = `
SELECT id, username, search_terms, reference, index_name, query_type, query,
	hits, aggregations, total_hits, total_hits_relation, executed_at, duration_seconds
FROM search_query_log WHERE id = $1`

// Repo implements usecase/query.LogWriter over Postgres.
type Repo struct {
	q querier
}

// New creates a query log repository.
func New(q querier) *Repo {
	return &Repo{q: q}
}

// NewFromPool creates a query log repository backed by a pgx pool.
func NewFromPool(pool *pgxpool.Pool) *Repo {
	return New(pool)
}

// Init creates the log table if it does not exist.
func (r *Repo) Init(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create query log table: %w", err)
	}
	return nil
}

// Save appends a log entry and returns it with the assigned id.
func (r *Repo) Save(ctx context.Context, log querylog.QueryLog) (querylog.QueryLog, error) {
	row, err := buildRow(log)
	if err != nil {
		return querylog.QueryLog{}, fmt.Errorf("encode query log: %w", err)
	}

	var id int64
	err = r.q.QueryRow(ctx, insertSQL,
		row.User, row.SearchTerms, row.Reference, row.Index, row.QueryType, row.Query,
		row.Hits, row.Aggregations, row.TotalHits, row.TotalHitsRelation, row.ExecutedAt, row.Duration,
	).Scan(&id)
	if err != nil {
		return querylog.QueryLog{}, fmt.Errorf("insert query log: %w", err)
	}

	log.ID = id
	return log, nil
}

// Get returns a log entry by id.
func (r *Repo) Get(ctx context.Context, id int64) (querylog.QueryLog, error) {
	var row logRow
	err := r.q.QueryRow(ctx, selectSQL, id).Scan(
		&row.ID, &row.User, &row.SearchTerms, &row.Reference, &row.Index, &row.QueryType,
		&row.Query, &row.Hits, &row.Aggregations, &row.TotalHits, &row.TotalHitsRelation,
		&row.ExecutedAt, &row.Duration,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return querylog.QueryLog{}, ErrLogNotFound
		}
		return querylog.QueryLog{}, fmt.Errorf("select query log %d: %w", id, err)
	}
	return parseRow(row)
}
