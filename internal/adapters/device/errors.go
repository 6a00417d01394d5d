package device

import "errors"

// Sentinel kinds for device I/O.
var (
	ErrNoData   = errors.New("no data available")
	ErrLinkLost = errors.New("device link lost")
	ErrWrite    = errors.New("device write failed")
	ErrOpen     = errors.New("device open failed")
	ErrClosed   = errors.New("device link closed")
)
