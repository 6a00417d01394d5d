package export

import "errors"

// Sentinel kinds for export errors.
var (
	ErrEncode          = errors.New("encode result")
	ErrDecode          = errors.New("decode result")
	ErrRender          = errors.New("render result")
	ErrInvalidBaseURL  = errors.New("invalid result base url")
	ErrAlreadyExported = errors.New("result already exported")
)
