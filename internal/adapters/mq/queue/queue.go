// Package queue buffers raw device lines between the reader and the poll loop.
//
// Enqueue never blocks: when the poll loop falls behind, new lines are
// dropped and counted rather than stalling the device reader.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/bullseye/pkg/metrics"
)

const defaultCapacity = 256

// Frame is one raw line received from the device.
type Frame struct {
	Line       string
	ReceivedAt time.Time
}

// Queue provides non-blocking enqueue and poll-style dequeue.
type Queue interface {
	// Enqueue adds a frame. Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, f Frame) bool
	// TryDequeue returns the oldest frame without blocking.
	TryDequeue(ctx context.Context) (Frame, bool)
	// Len returns the number of buffered frames.
	Len(ctx context.Context) int
	// Close stops accepting frames. Buffered frames remain readable.
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	frames   chan Frame
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.frames = make(chan Frame, q.capacity)

	metrics.UpdateLineQueueCapacity(q.capacity)
	metrics.UpdateLineQueueSize(0)
	return q
}

// Enqueue adds a frame to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, f Frame) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent("line_queue", "closed")
		return false
	}

	select {
	case q.frames <- f:
		metrics.UpdateLineQueueSize(len(q.frames))
		return true
	case <-ctx.Done():
		metrics.RecordErrorByComponent("line_queue", "context_cancelled")
		return false
	default:
		metrics.RecordLineDropped()
		return false
	}
}

// TryDequeue returns the oldest frame, or false if none is buffered.
func (q *InMemoryQueue) TryDequeue(ctx context.Context) (Frame, bool) {
	select {
	case f, ok := <-q.frames:
		if !ok {
			return Frame{}, false
		}
		metrics.UpdateLineQueueSize(len(q.frames))
		return f, true
	default:
		return Frame{}, false
	}
}

// Len returns the current number of buffered frames.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	return len(q.frames)
}

// Close stops accepting frames. Buffered frames can still be dequeued.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.frames)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
