package types

import "errors"

// Sentinel errors shared across layers. Components wrap these with context
// via fmt.Errorf so the transport edge can map them to HTTP status codes
// with errors.Is instead of inspecting strings.
var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("requested item not found")
	ErrInternal   = errors.New("internal server error")
)
