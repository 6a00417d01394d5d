package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrServe = errors.New("status api serve failed")
)
