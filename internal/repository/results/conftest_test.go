package results

import (
	"context"
	"testing"

	"github.com/kailas-cloud/syncdex/internal/domain/relational"
)

// mockQuerier implements the consumer interface for tests.
type mockQuerier struct {
	queryFn func(ctx context.Context, sql string, args ...any) (rows, error)
}

func (m *mockQuerier) Query(ctx context.Context, sql string, args ...any) (rows, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, sql, args...)
	}
	return &fakeRows{}, nil
}

// fakeRows implements the rows subset with canned per-row scan values.
type fakeRows struct {
	data   [][]any
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.pos-1]
	for i, d := range dest {
		if i >= len(row) {
			break
		}
		switch p := d.(type) {
		case *any:
			*p = row[i]
		case **float64:
			v, _ := row[i].(*float64)
			*p = v
		case *int:
			v, _ := row[i].(int)
			*p = v
		}
	}
	return nil
}

func (r *fakeRows) Err() error { return r.err }
func (r *fakeRows) Close()     { r.closed = true }

func newTestRepo(t *testing.T) (*Repo, *mockQuerier) {
	t.Helper()
	mq := &mockQuerier{}
	repo := New(mq)
	return repo, mq
}

func bookScope() relational.Scope {
	return relational.Scope{Table: "books", PKColumn: "id", Columns: []string{"id", "title"}}
}
