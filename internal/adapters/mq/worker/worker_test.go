package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/bullseye/internal/adapters/mq/worker"
	"github.com/okian/bullseye/internal/domain/zone"
	logging "github.com/okian/bullseye/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logging.Init(); err != nil {
		panic(err)
	}
}

type recordingSender struct {
	mu   sync.Mutex
	sent []zone.Feedback
	err  error
	gate chan struct{}
}

func (r *recordingSender) send(_ context.Context, f zone.Feedback) error {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, f)
	return r.err
}

func (r *recordingSender) snapshot() []zone.Feedback {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]zone.Feedback, len(r.sent))
	copy(out, r.sent)
	return out
}

func TestFeedbackWorker(t *testing.T) {
	convey.Convey("Given a running feedback worker", t, func() {
		rs := &recordingSender{}
		w := worker.NewFeedbackWorker(rs.send, worker.WithName("test-feedback"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When feedback is submitted", func() {
			convey.So(w.Submit(zone.FeedbackBull), convey.ShouldBeTrue)
			convey.So(w.Submit(zone.FeedbackLow), convey.ShouldBeTrue)

			convey.Convey("Then it is delivered in order", func() {
				sctx, scancel := context.WithTimeout(context.Background(), time.Second)
				defer scancel()
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
				convey.So(rs.snapshot(), convey.ShouldResemble, []zone.Feedback{zone.FeedbackBull, zone.FeedbackLow})
			})
		})

		convey.Convey("When the sender fails", func() {
			rs.err = errors.New("write failed")
			convey.So(w.Submit(zone.FeedbackMid), convey.ShouldBeTrue)

			convey.Convey("Then the worker keeps running", func() {
				convey.So(w.Submit(zone.FeedbackHigh), convey.ShouldBeTrue)
				sctx, scancel := context.WithTimeout(context.Background(), time.Second)
				defer scancel()
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
				convey.So(len(rs.snapshot()), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When shut down twice", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()
			convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			convey.So(w.Shutdown(sctx), convey.ShouldBeNil)

			convey.Convey("Then further submissions are refused", func() {
				convey.So(w.Submit(zone.FeedbackBull), convey.ShouldBeFalse)
			})
		})
	})

	convey.Convey("Given a worker whose sender is stuck", t, func() {
		rs := &recordingSender{gate: make(chan struct{})}
		w := worker.NewFeedbackWorker(rs.send, worker.WithBuffer(1))
		ctx, cancel := context.WithCancel(context.Background())
		go w.Run(ctx)

		convey.So(w.Submit(zone.FeedbackBull), convey.ShouldBeTrue)
		// Wait until the first job is taken off the channel.
		deadline := time.Now().Add(time.Second)
		for time.Now().Before(deadline) {
			if w.Submit(zone.FeedbackMid) {
				break
			}
			time.Sleep(time.Millisecond)
		}

		convey.Convey("Then submissions beyond the buffer are dropped without blocking", func() {
			convey.So(w.Submit(zone.FeedbackLow), convey.ShouldBeFalse)
		})

		close(rs.gate)
		cancel()
	})
}
