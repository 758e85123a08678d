package registry

import "context"

// sliceCursor iterates a fixed id slice. Intended for small scopes and tests;
// production scopes should stream from their store.
type sliceCursor struct {
	ids []string
	pos int
}

// SliceCursor returns a Cursor over a fixed id slice.
func SliceCursor(ids ...string) Cursor {
	return &sliceCursor{ids: ids}
}

func (c *sliceCursor) Next(_ context.Context) (string, bool, error) {
	if c.pos >= len(c.ids) {
		return "", false, nil
	}
	id := c.ids[c.pos]
	c.pos++
	return id, true, nil
}

func (c *sliceCursor) Close() error { return nil }
