package index

import "errors"

// Sentinel errors for remote index operations.
var (
	ErrNotFound     = errors.New("index: document not found")
	ErrIndexMissing = errors.New("index: index does not exist")
	ErrIndexExists  = errors.New("index: index already exists")
	ErrBulkRejected = errors.New("index: bulk request rejected")
	ErrUnexpected   = errors.New("index: unexpected engine response")
)

// Op constants name the wire operations for error context.
const (
	OpPing        = "ping"
	OpDocIndex    = "doc index"
	OpDocUpdate   = "doc update"
	OpDocDelete   = "doc delete"
	OpBulk        = "bulk"
	OpScan        = "scan"
	OpSearch      = "search"
	OpCount       = "count"
	OpCreateIndex = "create index"
	OpDeleteIndex = "delete index"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
