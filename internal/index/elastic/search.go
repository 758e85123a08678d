package elastic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kailas-cloud/syncdex/internal/index"
)

// searchResponse is the engine's _search response envelope.
type searchResponse struct {
	Hits struct {
		Total    index.Total `json:"total"`
		MaxScore *float64    `json:"max_score"`
		Hits     []index.Hit `json:"hits"`
	} `json:"hits"`
	Aggregations json.RawMessage `json:"aggregations"`
	ScrollID     string          `json:"_scroll_id"`
}

// Search executes a raw wire query against one index.
func (c *Client) Search(ctx context.Context, idx string, query json.RawMessage) (*index.SearchResult, error) {
	path := fmt.Sprintf("/%s/_search", escape(idx))
	var resp searchResponse
	if err := c.send(ctx, http.MethodPost, path, "application/json", query, &resp); err != nil {
		return nil, &index.Error{Op: index.OpSearch, Err: err}
	}
	return &index.SearchResult{
		Hits:         resp.Hits.Hits,
		Total:        resp.Hits.Total,
		MaxScore:     resp.Hits.MaxScore,
		Aggregations: resp.Aggregations,
	}, nil
}

// Count returns the number of documents matching a query.
func (c *Client) Count(ctx context.Context, idx string, query json.RawMessage) (int64, error) {
	path := fmt.Sprintf("/%s/_count", escape(idx))
	var resp struct {
		Count int64 `json:"count"`
	}
	if err := c.send(ctx, http.MethodPost, path, "application/json", query, &resp); err != nil {
		return 0, &index.Error{Op: index.OpCount, Err: err}
	}
	return resp.Count, nil
}
