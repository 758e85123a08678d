// Package index defines the contract with the remote search engine and the
// wire types shared by its drivers.
package index

import (
	"context"
	"encoding/json"

	"github.com/kailas-cloud/syncdex/internal/domain/document"
)

// OpType is the operation carried by one bulk action.
type OpType string

// Bulk operation types.
const (
	OpIndex  OpType = "index"
	OpUpdate OpType = "update"
	OpDelete OpType = "delete"
)

// BulkAction is one unit of a batched remote write. Source is set on index
// actions, Doc on update actions, neither on deletes.
type BulkAction struct {
	Index  string          `json:"_index"`
	OpType OpType          `json:"_op_type"`
	ID     string          `json:"_id"`
	Source document.Fields `json:"_source,omitempty"`
	Doc    document.Fields `json:"doc,omitempty"`
}

// IndexAction builds a bulk "index" action for a document.
func IndexAction(index string, doc document.Document) BulkAction {
	return BulkAction{Index: index, OpType: OpIndex, ID: doc.ID(), Source: doc.Fields()}
}

// UpdateAction builds a bulk "update" action for a partial document.
func UpdateAction(index string, doc document.Document) BulkAction {
	return BulkAction{Index: index, OpType: OpUpdate, ID: doc.ID(), Doc: doc.Fields()}
}

// DeleteAction builds a bulk "delete" action from an id-only stub.
func DeleteAction(index, id string) BulkAction {
	return BulkAction{Index: index, OpType: OpDelete, ID: id}
}

// Total is the total-hit envelope of a search response.
type Total struct {
	Value    int64  `json:"value"`
	Relation string `json:"relation"` // "eq" exact, "gte" lower bound
}

// Hit is one matched document as returned by the engine.
type Hit struct {
	Index     string              `json:"_index"`
	ID        string              `json:"_id"`
	Score     *float64            `json:"_score"`
	Source    json.RawMessage     `json:"_source,omitempty"`
	Highlight map[string][]string `json:"highlight,omitempty"`
	Fields    map[string]any      `json:"fields,omitempty"`
}

// SearchResult is a parsed search response.
type SearchResult struct {
	Hits         []Hit
	Total        Total
	MaxScore     *float64
	Aggregations json.RawMessage
}

// BulkResult summarizes one bulk submission.
type BulkResult struct {
	Succeeded int
	Failed    int
	FailedIDs []string
}

// HitCursor streams hits from a remote index scan one at a time.
type HitCursor interface {
	Next(ctx context.Context) (Hit, bool, error)
	Close() error
}

// Client is the remote index facade combining all sub-interfaces.
type Client interface {
	Pinger
	DocWriter
	BulkWriter
	Scanner
	Searcher
	Admin
}

// Pinger checks engine connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DocWriter performs single-document writes.
type DocWriter interface {
	Index(ctx context.Context, index, id string, fields document.Fields) error
	Update(ctx context.Context, index, id string, fields document.Fields) error
	Delete(ctx context.Context, index, id string) error
}

// BulkWriter submits batched writes.
type BulkWriter interface {
	Bulk(ctx context.Context, actions []BulkAction) (BulkResult, error)
}

// Scanner streams every document of an index.
type Scanner interface {
	Scan(ctx context.Context, index string) (HitCursor, error)
}

// Searcher executes raw wire queries.
type Searcher interface {
	Search(ctx context.Context, index string, query json.RawMessage) (*SearchResult, error)
	Count(ctx context.Context, index string, query json.RawMessage) (int64, error)
}

// Admin manages index lifecycle.
type Admin interface {
	CreateIndex(ctx context.Context, name string, body []byte) error
	DeleteIndex(ctx context.Context, name string, ignoreMissing bool) error
}
