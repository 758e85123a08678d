package elastic

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kailas-cloud/syncdex/internal/domain/document"
	"github.com/kailas-cloud/syncdex/internal/index"
)

// Index writes a full document, creating or replacing it.
func (c *Client) Index(ctx context.Context, idx, id string, fields document.Fields) error {
	path := fmt.Sprintf("/%s/_doc/%s", escape(idx), escape(id))
	if err := c.sendJSON(ctx, http.MethodPut, path, fields, nil); err != nil {
		return &index.Error{Op: index.OpDocIndex, Err: err}
	}
	return nil
}

// Update applies a partial document to an existing one.
func (c *Client) Update(ctx context.Context, idx, id string, fields document.Fields) error {
	path := fmt.Sprintf("/%s/_update/%s", escape(idx), escape(id))
	body := map[string]document.Fields{"doc": fields}
	if err := c.sendJSON(ctx, http.MethodPost, path, body, nil); err != nil {
		return &index.Error{Op: index.OpDocUpdate, Err: err}
	}
	return nil
}

// Delete removes a document. A missing document is not an error: the desired
// state is already in place.
func (c *Client) Delete(ctx context.Context, idx, id string) error {
	path := fmt.Sprintf("/%s/_doc/%s", escape(idx), escape(id))
	err := c.send(ctx, http.MethodDelete, path, "", nil, nil)
	if err != nil {
		if ee, ok := err.(*engineError); ok && ee.Status == http.StatusNotFound {
			return nil
		}
		return &index.Error{Op: index.OpDocDelete, Err: err}
	}
	return nil
}
