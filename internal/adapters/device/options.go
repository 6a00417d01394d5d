package device

import (
	"github.com/okian/bullseye/pkg/logger"
)

// Option applies a configuration option to the StreamLink.
type Option func(*StreamLink)

// WithLogger sets a custom logger for the link.
func WithLogger(l logger.Logger) Option {
	return func(s *StreamLink) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLineBuffer bounds the number of lines waiting to be read.
func WithLineBuffer(n int) Option {
	return func(s *StreamLink) {
		if n > 0 {
			s.lineBuffer = n
		}
	}
}

// WithMaxLineLength bounds a single line. Longer lines are discarded and
// counted; the stream keeps running.
func WithMaxLineLength(n int) Option {
	return func(s *StreamLink) {
		if n > 0 {
			s.maxLineLength = n
		}
	}
}
