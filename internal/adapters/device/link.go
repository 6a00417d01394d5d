// Package device implements the byte-stream link to the sensor board.
//
// A reader goroutine splits the incoming stream into lines and buffers them,
// so Available is a non-blocking check and ReadLine never stalls the poll loop.
package device

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/bullseye/internal/adapters/mq/queue"
	"github.com/okian/bullseye/internal/domain/frame"
	"github.com/okian/bullseye/pkg/logger"
	"github.com/okian/bullseye/pkg/metrics"
)

const (
	defaultLineBuffer    = 256
	defaultMaxLineLength = 1024
)

// Link is the board connection as seen by the controller.
type Link interface {
	// Available reports whether a complete line is buffered.
	Available(ctx context.Context) bool
	// ReadLine returns the next buffered line without blocking. It returns
	// ErrNoData when nothing is buffered and ErrLinkLost once the stream has
	// failed and every buffered line was consumed.
	ReadLine(ctx context.Context) (string, error)
	// Err returns the terminal stream error, or nil while the link is healthy.
	Err() error
	// Write sends raw bytes to the board.
	Write(ctx context.Context, p []byte) error
	Close() error
}

// StreamLink implements Link over any io.ReadWriteCloser.
type StreamLink struct {
	rwc   io.ReadWriteCloser
	lines *queue.InMemoryQueue

	writeMu sync.Mutex

	readErr atomic.Pointer[error]
	closed  atomic.Bool
	done    chan struct{}

	lineBuffer    int
	maxLineLength int

	logger logger.Logger
}

// NewStreamLink wraps rwc and starts the reader goroutine. The goroutine
// stops when the stream ends, fails, or the link is closed.
func NewStreamLink(ctx context.Context, rwc io.ReadWriteCloser, opts ...Option) *StreamLink {
	l := &StreamLink{
		rwc:           rwc,
		done:          make(chan struct{}),
		lineBuffer:    defaultLineBuffer,
		maxLineLength: defaultMaxLineLength,
	}

	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = logger.Named("device")
	}

	l.lines = queue.NewInMemoryQueue(queue.WithCapacity(l.lineBuffer))
	go l.readLoop(ctx)
	return l
}

func (l *StreamLink) readLoop(ctx context.Context) {
	defer close(l.done)
	defer func() { _ = l.lines.Close() }()

	reader := bufio.NewReaderSize(l.rwc, l.maxLineLength)
	oversized := 0 // bytes discarded from the current line

	var err error
	for {
		var chunk []byte
		chunk, err = reader.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			oversized += len(chunk)
			continue
		}
		if len(chunk) > 0 {
			if oversized > 0 {
				l.dropLongLine(ctx, oversized+len(chunk))
			} else {
				l.enqueueLine(ctx, strings.TrimRight(string(chunk), "\r\n"))
			}
		}
		oversized = 0
		if err != nil {
			break
		}
	}

	if l.closed.Load() {
		err = ErrClosed
	} else {
		err = fmt.Errorf("%w: %w", ErrLinkLost, err)
		metrics.RecordErrorByComponent("device", "link_lost")
		l.logger.Error(ctx, "device stream ended", logger.Error(err))
	}
	l.readErr.Store(&err)
}

func (l *StreamLink) enqueueLine(ctx context.Context, line string) {
	metrics.RecordLineReceived()
	f := queue.Frame{Line: line, ReceivedAt: time.Now()}
	if !l.lines.Enqueue(ctx, f) {
		l.logger.Warn(ctx, "line buffer full, dropping line", logger.String("line", f.Line))
	}
}

// dropLongLine discards a line that did not fit the read buffer. Noise like
// this shows up when the baud rate is wrong; it is not a broken link.
func (l *StreamLink) dropLongLine(ctx context.Context, n int) {
	metrics.RecordLineReceived()
	metrics.RecordDecodeError(string(frame.KindTooLong))
	l.logger.Warn(ctx, "discarding over-long line",
		logger.Int("bytes", n),
		logger.Int("maxLineLength", l.maxLineLength),
	)
}

// Available reports whether a line is ready to be read.
func (l *StreamLink) Available(ctx context.Context) bool {
	return l.lines.Len(ctx) > 0
}

// ReadLine returns the next buffered line.
func (l *StreamLink) ReadLine(ctx context.Context) (string, error) {
	if f, ok := l.lines.TryDequeue(ctx); ok {
		metrics.RecordLineQueueWait(float64(time.Since(f.ReceivedAt)) / float64(time.Millisecond))
		return f.Line, nil
	}
	if err := l.Err(); err != nil {
		return "", err
	}
	return "", ErrNoData
}

// Err returns why the stream stopped, or nil while it is running.
func (l *StreamLink) Err() error {
	if errp := l.readErr.Load(); errp != nil {
		return *errp
	}
	return nil
}

// Write sends p to the board. Concurrent writes are serialised.
func (l *StreamLink) Write(_ context.Context, p []byte) error {
	if l.closed.Load() {
		return fmt.Errorf("%w: %w", ErrWrite, ErrClosed)
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if _, err := l.rwc.Write(p); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// Close closes the underlying stream. It is safe to call more than once.
func (l *StreamLink) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := l.rwc.Close()
	if err != nil && !errors.Is(err, io.ErrClosedPipe) {
		return fmt.Errorf("close device: %w", err)
	}
	return nil
}

// Done is closed when the reader goroutine has stopped.
func (l *StreamLink) Done() <-chan struct{} {
	return l.done
}
