// Package service drives a dart game from the first poll to the exported
// result.
//
// A Game moves Idle -> Running -> Finalizing -> Done exactly once. The poll
// loop, the session timer, Abort and a lost link can all ask for the game to
// end; the first one wins and the rest are no-ops.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/bullseye/internal/adapters/device"
	"github.com/okian/bullseye/internal/adapters/mq/worker"
	"github.com/okian/bullseye/internal/domain/frame"
	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/internal/domain/scoring"
	"github.com/okian/bullseye/internal/domain/types"
	"github.com/okian/bullseye/internal/domain/zone"
	"github.com/okian/bullseye/pkg/logger"
	"github.com/okian/bullseye/pkg/metrics"
)

const (
	defaultDuration       = 60 * time.Second
	defaultPollInterval   = 100 * time.Millisecond
	defaultFeedbackBuffer = 16
	feedbackFlushTimeout  = 2 * time.Second
)

// State is the controller lifecycle position.
type State int32

// Controller states.
const (
	StateIdle State = iota
	StateRunning
	StateFinalizing
	StateDone
)

var stateNames = [...]string{"idle", "running", "finalizing", "done"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int32(s))
	}
	return stateNames[s]
}

// Reason names what ended a session.
type Reason string

// Finalize reasons.
const (
	ReasonTimerExpired Reason = "timer_expired"
	ReasonAborted      Reason = "aborted"
	ReasonLinkLost     Reason = "link_lost"
)

// Exporter receives the final result once.
type Exporter interface {
	Export(ctx context.Context, r model.GameResult) error
}

// Game is the session controller.
type Game struct {
	link     device.Link
	sensors  zone.SensorMap
	exporter Exporter

	duration       time.Duration
	pollInterval   time.Duration
	feedbackBuffer int
	now            func() time.Time

	state  atomic.Int32
	engine atomic.Pointer[scoring.Engine]

	abort     chan struct{}
	abortOnce sync.Once
	done      chan struct{}

	// Written by the finalizer before done is closed.
	result    model.GameResult
	exportErr error

	logger logger.Logger
}

// New builds an idle game reading from link.
func New(link device.Link, opts ...Option) (*Game, error) {
	if link == nil {
		return nil, ErrNoLink
	}

	g := &Game{
		link:           link,
		sensors:        zone.DefaultSensorMap(),
		duration:       defaultDuration,
		pollInterval:   defaultPollInterval,
		feedbackBuffer: defaultFeedbackBuffer,
		now:            time.Now,
		abort:          make(chan struct{}),
		done:           make(chan struct{}),
	}

	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = logger.Named("game")
	}
	if err := g.sensors.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Run plays one session and blocks until it is Done. It returns the result
// together with a wrapped device.ErrLinkLost when the board went away.
// Canceling ctx aborts the session; the result is still exported.
func (g *Game) Run(ctx context.Context) (model.GameResult, error) {
	if !g.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return model.GameResult{}, ErrAlreadyStarted
	}

	engine := scoring.NewEngine(g.duration, scoring.WithClock(g.now))
	g.engine.Store(engine)
	metrics.UpdateSessionState(int(StateRunning))

	// Finalization must outlive the caller's cancellation.
	finalCtx := context.WithoutCancel(ctx)

	fbCtx, fbCancel := context.WithCancel(finalCtx)
	defer fbCancel()
	fb := worker.NewFeedbackWorker(func(ctx context.Context, f zone.Feedback) error {
		return device.SendFeedback(ctx, g.link, f)
	}, worker.WithBuffer(g.feedbackBuffer), worker.WithLogger(g.logger.Named("feedback")))
	go fb.Run(fbCtx)
	defer func() {
		sctx, cancel := context.WithTimeout(finalCtx, feedbackFlushTimeout)
		defer cancel()
		_ = fb.Shutdown(sctx)
	}()

	g.logger.Info(ctx, "game started",
		logger.String("sessionID", engine.Snapshot().ID.String()),
		logger.Duration("duration", g.duration),
	)

	timer := StartTimer(g.duration, func() {
		g.finalize(finalCtx, ReasonTimerExpired)
	})
	defer timer.Stop()

	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	var runErr error
	for {
		select {
		case <-g.done:
			return g.result, runErr
		case <-ctx.Done():
			g.finalize(finalCtx, ReasonAborted)
		case <-g.abort:
			g.finalize(finalCtx, ReasonAborted)
		case <-ticker.C:
			if err := g.poll(ctx, engine, fb); err != nil {
				runErr = err
				if !errors.Is(err, device.ErrLinkLost) {
					runErr = fmt.Errorf("%w: %w", device.ErrLinkLost, err)
				}
				g.finalize(finalCtx, ReasonLinkLost)
			}
		}
		// Another goroutine may be finalizing; wait for it rather than spin
		// on an already closed channel.
		if State(g.state.Load()) >= StateFinalizing {
			<-g.done
			return g.result, runErr
		}
	}
}

// poll drains every buffered line. It returns the link error once the
// stream has failed and nothing is left to read.
func (g *Game) poll(ctx context.Context, engine *scoring.Engine, fb worker.Worker) error {
	for g.link.Available(ctx) {
		if State(g.state.Load()) != StateRunning {
			return nil
		}
		line, err := g.link.ReadLine(ctx)
		if errors.Is(err, device.ErrNoData) {
			return nil
		}
		if err != nil {
			return err
		}
		g.handleLine(ctx, engine, fb, line)
	}
	return g.link.Err()
}

func (g *Game) handleLine(ctx context.Context, engine *scoring.Engine, fb worker.Worker, line string) {
	ev, err := frame.Decode(line)
	if err != nil {
		metrics.RecordDecodeError(string(frame.KindOf(err)))
		g.logger.Warn(ctx, "dropping malformed line", logger.Error(err))
		return
	}

	z, err := g.sensors.Resolve(ev.SensorID)
	if err != nil {
		metrics.RecordUnknownSensor()
		g.logger.Debug(ctx, "dropping reading from unmapped sensor",
			logger.Int("sensor", ev.SensorID),
			logger.Int("pressure", ev.Pressure),
		)
		return
	}

	rec, err := engine.Evaluate(ev, z)
	switch {
	case errors.Is(err, scoring.ErrSessionClosed):
		g.logger.Debug(ctx, "reading after session end discarded", logger.Int("sensor", ev.SensorID))
		return
	case err != nil:
		g.logger.Warn(ctx, "reading not evaluated", logger.Error(err))
		return
	case rec == nil:
		g.logger.Debug(ctx, "reading below threshold",
			logger.String("zone", z.String()),
			logger.Int("pressure", ev.Pressure),
			logger.Int("threshold", z.Threshold()),
		)
		return
	}

	g.logger.Info(ctx, "hit",
		logger.String("zone", z.Label()),
		logger.Int("points", rec.Points),
		logger.Int("pressure", rec.Pressure),
		logger.Int("score", engine.Score()),
	)
	if !fb.Submit(z.Feedback()) {
		g.logger.Warn(ctx, "feedback dropped", logger.String("feedback", z.Feedback().String()))
	}
}

// finalize ends the session. Only the first caller does any work.
func (g *Game) finalize(ctx context.Context, reason Reason) {
	if !g.state.CompareAndSwap(int32(StateRunning), int32(StateFinalizing)) {
		return
	}
	metrics.UpdateSessionState(int(StateFinalizing))

	session, _ := g.engine.Load().Close()
	result := session.Result(g.now(), string(reason))

	g.logger.Info(ctx, "game over",
		logger.String("sessionID", result.SessionID.String()),
		logger.String("reason", string(reason)),
		logger.Int("finalScore", result.FinalScore),
		logger.Int("totalHits", result.TotalHits),
	)

	var exportErr error
	if g.exporter != nil {
		if exportErr = g.exporter.Export(ctx, result); exportErr != nil {
			metrics.RecordErrorByComponent("game", "export_error")
			g.logger.Error(ctx, "result export failed", logger.Error(exportErr))
		}
	}

	metrics.RecordSessionFinalized(string(reason))
	g.result = result
	g.exportErr = exportErr
	g.state.Store(int32(StateDone))
	metrics.UpdateSessionState(int(StateDone))
	close(g.done)
}

// Abort asks a running game to end. A pending abort also ends a game that
// has not started polling yet. Safe to call more than once.
func (g *Game) Abort() {
	g.abortOnce.Do(func() { close(g.abort) })
}

// Done is closed once the result has been exported.
func (g *Game) Done() <-chan struct{} {
	return g.done
}

// State returns the current lifecycle position.
func (g *Game) State() State {
	return State(g.state.Load())
}

// Result returns the final result. It fails with ErrNotFinished until Done.
func (g *Game) Result() (model.GameResult, error) {
	select {
	case <-g.done:
		return g.result, nil
	default:
		return model.GameResult{}, ErrNotFinished
	}
}

// ExportErr returns the export failure, if any, once the game is Done.
func (g *Game) ExportErr() error {
	select {
	case <-g.done:
		return g.exportErr
	default:
		return nil
	}
}

// Status returns a live view for the status API.
func (g *Game) Status() types.SessionStatus {
	st := types.SessionStatus{
		State:            g.State().String(),
		RemainingSeconds: g.duration.Seconds(),
	}
	engine := g.engine.Load()
	if engine == nil {
		return st
	}

	s := engine.Snapshot()
	elapsed := min(engine.Elapsed(), g.duration)
	if !s.Active {
		if r, err := g.Result(); err == nil {
			elapsed = min(r.Date.Sub(s.StartedAt), g.duration)
		}
	}
	st.SessionID = s.ID.String()
	st.Score = s.Score
	st.TotalHits = len(s.Hits)
	st.ElapsedSeconds = elapsed.Seconds()
	st.RemainingSeconds = (g.duration - elapsed).Seconds()
	return st
}
