package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kailas-cloud/syncdex/internal/index"
)

// bulkResponse is the engine's _bulk response envelope.
type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// Bulk submits a batch of actions as one NDJSON _bulk request. Item-level
// failures are reported in the result, not as an error.
func (c *Client) Bulk(ctx context.Context, actions []index.BulkAction) (index.BulkResult, error) {
	if len(actions) == 0 {
		return index.BulkResult{}, nil
	}

	body, err := encodeBulk(actions)
	if err != nil {
		return index.BulkResult{}, &index.Error{Op: index.OpBulk, Err: err}
	}

	var resp bulkResponse
	if err := c.send(ctx, http.MethodPost, "/_bulk", "application/x-ndjson", body, &resp); err != nil {
		return index.BulkResult{}, &index.Error{Op: index.OpBulk, Err: err}
	}

	result := index.BulkResult{}
	for _, item := range resp.Items {
		for _, detail := range item {
			if detail.Error != nil {
				result.Failed++
				result.FailedIDs = append(result.FailedIDs, detail.ID)
			} else {
				result.Succeeded++
			}
		}
	}
	return result, nil
}

// encodeBulk renders actions as NDJSON: one meta line per action, followed by
// a payload line for index and update actions.
func encodeBulk(actions []index.BulkAction) ([]byte, error) {
	var buf bytes.Buffer
	for _, a := range actions {
		meta := map[string]map[string]string{
			string(a.OpType): {"_index": a.Index, "_id": a.ID},
		}
		if err := json.NewEncoder(&buf).Encode(meta); err != nil {
			return nil, fmt.Errorf("encode bulk meta for %s: %w", a.ID, err)
		}
		switch a.OpType {
		case index.OpIndex:
			if err := json.NewEncoder(&buf).Encode(a.Source); err != nil {
				return nil, fmt.Errorf("encode bulk source for %s: %w", a.ID, err)
			}
		case index.OpUpdate:
			if err := json.NewEncoder(&buf).Encode(map[string]any{"doc": a.Doc}); err != nil {
				return nil, fmt.Errorf("encode bulk doc for %s: %w", a.ID, err)
			}
		case index.OpDelete:
			// meta line only
		default:
			return nil, fmt.Errorf("unknown bulk op type %q", a.OpType)
		}
	}
	return buf.Bytes(), nil
}
