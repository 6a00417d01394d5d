// Package worker delivers hit feedback to the board off the poll loop.
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/bullseye/internal/domain/zone"
	"github.com/okian/bullseye/pkg/logger"
	"github.com/okian/bullseye/pkg/metrics"
)

const defaultBuffer = 16

// Sender writes one feedback signal to the board.
type Sender func(ctx context.Context, f zone.Feedback) error

// Worker drains submitted feedback in the background.
type Worker interface {
	// Submit queues f without blocking. It reports false when the buffer
	// is full or the worker is shutting down.
	Submit(f zone.Feedback) bool

	// Run starts the worker loop until ctx is canceled or Shutdown is called.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will send any queued feedback before stopping.
	Shutdown(ctx context.Context) error
}

// FeedbackWorker implements Worker with a buffered channel.
type FeedbackWorker struct {
	send   Sender
	jobs   chan zone.Feedback
	buffer int
	name   string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewFeedbackWorker creates a worker that hands each feedback to send.
func NewFeedbackWorker(send Sender, opts ...Option) *FeedbackWorker {
	w := &FeedbackWorker{
		send:     send,
		buffer:   defaultBuffer,
		name:     "feedback",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}
	w.jobs = make(chan zone.Feedback, w.buffer)

	if w.logger == nil {
		w.logger = logger.Named(w.name)
	}
	return w
}

// Submit queues f for delivery.
func (w *FeedbackWorker) Submit(f zone.Feedback) bool {
	select {
	case <-w.shutdown:
		return false
	default:
	}

	select {
	case w.jobs <- f:
		return true
	default:
		metrics.RecordFeedbackError()
		return false
	}
}

// Run starts the worker loop.
func (w *FeedbackWorker) Run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			w.drain(ctx)
			return
		case f := <-w.jobs:
			w.deliver(ctx, f)
		}
	}
}

func (w *FeedbackWorker) drain(ctx context.Context) {
	for {
		select {
		case f := <-w.jobs:
			w.deliver(ctx, f)
		default:
			return
		}
	}
}

func (w *FeedbackWorker) deliver(ctx context.Context, f zone.Feedback) {
	if err := w.send(ctx, f); err != nil {
		metrics.RecordFeedbackError()
		metrics.RecordErrorByComponent("worker", "feedback_error")
		w.logger.Warn(ctx, "feedback not delivered",
			logger.String("feedback", f.String()),
			logger.Error(err),
		)
	}
}

// Shutdown gracefully stops the worker.
func (w *FeedbackWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
