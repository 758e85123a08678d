package autosync

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/syncdex/internal/cache"
	"github.com/kailas-cloud/syncdex/internal/config"
	"github.com/kailas-cloud/syncdex/internal/domain/document"
	"github.com/kailas-cloud/syncdex/internal/registry"
)

// mockRegistry implements the Registry consumer interface for tests.
type mockRegistry struct {
	indexes []string
	source  document.Source
	scope   registry.Scope
}

func (m *mockRegistry) Indexes(string) []string { return m.indexes }

func (m *mockRegistry) Source(string) (document.Source, error) { return m.source, nil }

func (m *mockRegistry) Scope(string) (registry.Scope, error) { return m.scope, nil }

// mockScope gates ids via a fixed membership set.
type mockScope struct {
	in  map[string]bool
	err error
}

func (m *mockScope) InScope(_ context.Context, id, _ string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.in[id], nil
}

func (m *mockScope) ResultScope(_ context.Context, _ string) (registry.Cursor, error) {
	ids := make([]string, 0, len(m.in))
	for id, ok := range m.in {
		if ok {
			ids = append(ids, id)
		}
	}
	return registry.SliceCursor(ids...), nil
}

// mockSource returns canned document fields.
type mockSource struct {
	fields document.Fields
	err    error
}

func (m *mockSource) SearchDocument(_ context.Context, _, _ string) (document.Fields, error) {
	return m.fields, m.err
}

// mockBuilder records which render path was taken.
type mockBuilder struct {
	fullCalls    int
	partialCalls int
	doc          document.Document
	err          error
}

func (m *mockBuilder) Full(
	_ context.Context, _ document.Source, _, _, _ string,
) (document.Document, error) {
	m.fullCalls++
	return m.doc, m.err
}

func (m *mockBuilder) Partial(
	_ context.Context, _ document.Source, _, _, _ string, _ []string,
) (document.Document, error) {
	m.partialCalls++
	return m.doc, m.err
}

// mockWriter records remote write calls in order.
type mockWriter struct {
	calls    []string // "index:<idx>:<id>", "update:...", "delete:..."
	indexErr error
	delErr   error
}

func (m *mockWriter) Index(_ context.Context, idx, id string, _ document.Fields) error {
	m.calls = append(m.calls, "index:"+idx+":"+id)
	return m.indexErr
}

func (m *mockWriter) Update(_ context.Context, idx, id string, _ document.Fields) error {
	m.calls = append(m.calls, "update:"+idx+":"+id)
	return nil
}

func (m *mockWriter) Delete(_ context.Context, idx, id string) error {
	m.calls = append(m.calls, "delete:"+idx+":"+id)
	return m.delErr
}

// mockDeduper records guard interactions in order.
type mockDeduper struct {
	calls       []string
	shouldWrite bool
}

func (m *mockDeduper) ShouldWrite(_ context.Context, key cache.Key, _ document.Document) bool {
	m.calls = append(m.calls, "should:"+key.String())
	return m.shouldWrite
}

func (m *mockDeduper) Remember(_ context.Context, key cache.Key, _ document.Document) error {
	m.calls = append(m.calls, "remember:"+key.String())
	return nil
}

func (m *mockDeduper) Forget(_ context.Context, key cache.Key) error {
	m.calls = append(m.calls, "forget:"+key.String())
	return nil
}

type fixture struct {
	svc     *Service
	reg     *mockRegistry
	builder *mockBuilder
	writer  *mockWriter
	guard   *mockDeduper
}

func newFixture(t *testing.T, cfg config.SyncConfig) *fixture {
	t.Helper()
	reg := &mockRegistry{
		indexes: []string{"books"},
		source:  &mockSource{fields: document.Fields{"title": "Go"}},
		scope:   &mockScope{in: map[string]bool{"1": true}},
	}
	builder := &mockBuilder{doc: document.New("1", document.Fields{"title": "Go"})}
	writer := &mockWriter{}
	guard := &mockDeduper{shouldWrite: true}
	svc := New(reg, builder, writer, guard, cfg, zap.NewNop())
	return &fixture{svc: svc, reg: reg, builder: builder, writer: writer, guard: guard}
}

func syncCfg() config.SyncConfig {
	return config.SyncConfig{Enabled: true, UpdateStrategy: config.StrategyFull}
}
