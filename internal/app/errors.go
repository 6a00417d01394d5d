package service

import "errors"

// Controller lifecycle errors.
var (
	ErrAlreadyStarted = errors.New("game already started")
	ErrNotFinished    = errors.New("game not finished")
	ErrNoLink         = errors.New("no device link")
)
