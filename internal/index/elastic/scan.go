package elastic

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kailas-cloud/syncdex/internal/index"
)

// Scan streams every document of an index via the scroll API. Hits carry meta
// only (_source is excluded): pruning needs ids, not payloads.
func (c *Client) Scan(ctx context.Context, idx string) (index.HitCursor, error) {
	path := fmt.Sprintf("/%s/_search?scroll=%ds", escape(idx), int(c.scrollKeepalive.Seconds()))
	body := map[string]any{
		"size":    c.scrollPageSize,
		"query":   map[string]any{"match_all": map[string]any{}},
		"_source": false,
	}

	var resp searchResponse
	if err := c.sendJSON(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, &index.Error{Op: index.OpScan, Err: err}
	}

	return &scrollCursor{
		client:   c,
		scrollID: resp.ScrollID,
		buf:      resp.Hits.Hits,
	}, nil
}

// scrollCursor pages through scroll batches lazily.
type scrollCursor struct {
	client   *Client
	scrollID string
	buf      []index.Hit
	pos      int
	done     bool
}

func (s *scrollCursor) Next(ctx context.Context) (index.Hit, bool, error) {
	for {
		if s.pos < len(s.buf) {
			hit := s.buf[s.pos]
			s.pos++
			return hit, true, nil
		}
		if s.done {
			return index.Hit{}, false, nil
		}
		if err := s.fetch(ctx); err != nil {
			return index.Hit{}, false, err
		}
	}
}

func (s *scrollCursor) fetch(ctx context.Context) error {
	body := map[string]any{
		"scroll":    fmt.Sprintf("%ds", int(s.client.scrollKeepalive.Seconds())),
		"scroll_id": s.scrollID,
	}
	var resp searchResponse
	if err := s.client.sendJSON(ctx, http.MethodPost, "/_search/scroll", body, &resp); err != nil {
		return &index.Error{Op: index.OpScan, Err: err}
	}
	s.scrollID = resp.ScrollID
	s.buf = resp.Hits.Hits
	s.pos = 0
	if len(s.buf) == 0 {
		s.done = true
	}
	return nil
}

// Close releases the scroll context on the engine.
func (s *scrollCursor) Close() error {
	if s.scrollID == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.client.httpc.Timeout)
	defer cancel()
	body := map[string]any{"scroll_id": s.scrollID}
	if err := s.client.sendJSON(ctx, http.MethodDelete, "/_search/scroll", body, nil); err != nil {
		return &index.Error{Op: index.OpScan, Err: err}
	}
	return nil
}
