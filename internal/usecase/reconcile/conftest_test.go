package reconcile

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/syncdex/internal/config"
	"github.com/kailas-cloud/syncdex/internal/domain/document"
	"github.com/kailas-cloud/syncdex/internal/index"
	"github.com/kailas-cloud/syncdex/internal/registry"
)

// mockRegistry implements the Registry consumer interface for tests.
type mockRegistry struct {
	types    map[string][]string
	typesErr error
	scopes   map[string]registry.Scope
	mapping  []byte
}

func (m *mockRegistry) Types(idx string) ([]string, error) {
	if m.typesErr != nil {
		return nil, m.typesErr
	}
	return m.types[idx], nil
}

func (m *mockRegistry) Source(string) (document.Source, error) {
	return &mockSource{}, nil
}

func (m *mockRegistry) Scope(typeName string) (registry.Scope, error) {
	return m.scopes[typeName], nil
}

func (m *mockRegistry) MappingBody(string) ([]byte, error) {
	return m.mapping, nil
}

// mockSource renders a minimal document per id.
type mockSource struct{}

func (m *mockSource) SearchDocument(_ context.Context, id, _ string) (document.Fields, error) {
	return document.Fields{"id": id}, nil
}

// mockScope claims a fixed id set.
type mockScope struct {
	ids []string
}

func (m *mockScope) InScope(_ context.Context, id, _ string) (bool, error) {
	for _, v := range m.ids {
		if v == id {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockScope) ResultScope(_ context.Context, _ string) (registry.Cursor, error) {
	return registry.SliceCursor(m.ids...), nil
}

// mockBuilder renders per-id documents, failing on a chosen id.
type mockBuilder struct {
	failID string
	err    error
}

func (m *mockBuilder) Full(
	ctx context.Context, src document.Source, _, id, idx string,
) (document.Document, error) {
	if m.failID != "" && id == m.failID {
		return document.Document{}, m.err
	}
	fields, err := src.SearchDocument(ctx, id, idx)
	if err != nil {
		return document.Document{}, err
	}
	return document.New(id, fields), nil
}

// mockEngine records bulk batches and serves a canned scan.
type mockEngine struct {
	batches  [][]index.BulkAction
	bulkErr  error
	scanHits []index.Hit
	scanErr  error
	admin    []string // "create:<name>", "delete:<name>:<ignoreMissing>"
}

func (m *mockEngine) Bulk(_ context.Context, actions []index.BulkAction) (index.BulkResult, error) {
	if m.bulkErr != nil {
		return index.BulkResult{}, m.bulkErr
	}
	batch := make([]index.BulkAction, len(actions))
	copy(batch, actions)
	m.batches = append(m.batches, batch)
	return index.BulkResult{Succeeded: len(actions)}, nil
}

func (m *mockEngine) Scan(_ context.Context, _ string) (index.HitCursor, error) {
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	return &sliceHitCursor{hits: m.scanHits}, nil
}

func (m *mockEngine) CreateIndex(_ context.Context, name string, _ []byte) error {
	m.admin = append(m.admin, "create:"+name)
	return nil
}

func (m *mockEngine) DeleteIndex(_ context.Context, name string, ignoreMissing bool) error {
	if ignoreMissing {
		m.admin = append(m.admin, "delete:"+name+":ignore")
	} else {
		m.admin = append(m.admin, "delete:"+name)
	}
	return nil
}

type sliceHitCursor struct {
	hits []index.Hit
	pos  int
}

func (c *sliceHitCursor) Next(_ context.Context) (index.Hit, bool, error) {
	if c.pos >= len(c.hits) {
		return index.Hit{}, false, nil
	}
	h := c.hits[c.pos]
	c.pos++
	return h, true, nil
}

func (c *sliceHitCursor) Close() error { return nil }

type fixture struct {
	svc     *Service
	reg     *mockRegistry
	builder *mockBuilder
	engine  *mockEngine
}

func newFixture(t *testing.T, chunkSize int) *fixture {
	t.Helper()
	reg := &mockRegistry{
		types:   map[string][]string{"books": {"library.Book"}},
		scopes:  map[string]registry.Scope{"library.Book": &mockScope{ids: []string{"1", "2", "3"}}},
		mapping: []byte(`{"mappings":{"properties":{"title":{"type":"text"}}}}`),
	}
	builder := &mockBuilder{}
	engine := &mockEngine{}
	svc := New(reg, builder, engine, config.ReconcileConfig{ChunkSize: chunkSize}, zap.NewNop())
	return &fixture{svc: svc, reg: reg, builder: builder, engine: engine}
}
