package scoring

import "errors"

// ErrSessionClosed is returned for events evaluated after the session ended.
var ErrSessionClosed = errors.New("session closed")
