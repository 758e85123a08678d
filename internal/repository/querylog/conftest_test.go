package querylog

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kailas-cloud/syncdex/internal/domain/querylog"
)

// mockQuerier implements the consumer interface for tests.
type mockQuerier struct {
	execFn     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
}

func (m *mockQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.execFn != nil {
		return m.execFn(ctx, sql, args...)
	}
	return pgconn.NewCommandTag(""), nil
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFn != nil {
		return m.queryRowFn(ctx, sql, args...)
	}
	return &fakeRow{}
}

// fakeRow implements pgx.Row with canned scan values.
type fakeRow struct {
	values []any
	err    error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		if i >= len(r.values) {
			break
		}
		assign(d, r.values[i])
	}
	return nil
}

func assign(dest, value any) {
	switch d := dest.(type) {
	case *int64:
		d2, _ := value.(int64)
		*d = d2
	case *string:
		d2, _ := value.(string)
		*d = d2
	case *[]byte:
		d2, _ := value.([]byte)
		*d = d2
	case *time.Time:
		d2, _ := value.(time.Time)
		*d = d2
	case *float64:
		d2, _ := value.(float64)
		*d = d2
	}
}

func newTestRepo(t *testing.T) (*Repo, *mockQuerier) {
	t.Helper()
	mq := &mockQuerier{}
	repo := New(mq)
	return repo, mq
}

func testLog(t *testing.T) querylog.QueryLog {
	t.Helper()
	score := 2.5
	return querylog.QueryLog{
		User:              "alice",
		SearchTerms:       "go books",
		Index:             "books",
		QueryType:         querylog.TypeSearch,
		Query:             []byte(`{"query":{"match_all":{}},"from":0,"size":10}`),
		Hits:              []querylog.Hit{{ID: "1", Index: "books", Score: &score}},
		TotalHits:         1,
		TotalHitsRelation: querylog.RelationExact,
		ExecutedAt:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Duration:          250 * time.Millisecond,
	}
}
