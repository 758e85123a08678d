package elastic

import (
	"context"
	"errors"
	"net/http"

	"github.com/kailas-cloud/syncdex/internal/index"
)

// CreateIndex creates an index with its mapping body. A nil body creates the
// index with the engine's dynamic mapping.
func (c *Client) CreateIndex(ctx context.Context, name string, body []byte) error {
	contentType := ""
	if body != nil {
		contentType = "application/json"
	}
	if err := c.send(ctx, http.MethodPut, "/"+escape(name), contentType, body, nil); err != nil {
		return &index.Error{Op: index.OpCreateIndex, Err: err}
	}
	return nil
}

// DeleteIndex removes an index entirely: all documents and the mapping.
func (c *Client) DeleteIndex(ctx context.Context, name string, ignoreMissing bool) error {
	err := c.send(ctx, http.MethodDelete, "/"+escape(name), "", nil, nil)
	if err != nil {
		if ignoreMissing && errors.Is(err, index.ErrIndexMissing) {
			return nil
		}
		return &index.Error{Op: index.OpDeleteIndex, Err: err}
	}
	return nil
}
