// Package scoring owns the state of a game session and turns sensor events
// into confirmed hits.
package scoring

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/internal/domain/zone"
	"github.com/okian/bullseye/pkg/metrics"
)

// Scorer evaluates events against the session it owns.
type Scorer interface {
	// Evaluate returns the hit record for a confirmed hit, nil for a reading
	// at or below the zone threshold, or ErrSessionClosed once closed.
	Evaluate(ev model.SensorEvent, z zone.Zone) (*model.HitRecord, error)
	// Close marks the session inactive. Only the first call reports true.
	Close() (Session, bool)
	// Score returns the running total without copying the hit log.
	Score() int
	// Snapshot returns a copy of the current session state.
	Snapshot() Session
}

// Session is the mutable state of one game run.
type Session struct {
	ID        uuid.UUID
	Score     int
	Active    bool
	StartedAt time.Time
	Hits      []model.HitRecord
	Duration  time.Duration
}

// Result freezes the session into a GameResult.
func (s Session) Result(date time.Time, reason string) model.GameResult {
	hits := make([]model.HitRecord, len(s.Hits))
	copy(hits, s.Hits)
	return model.GameResult{
		SessionID:  s.ID,
		FinalScore: s.Score,
		TotalHits:  len(hits),
		Hits:       hits,
		Date:       date,
		Duration:   s.Duration,
		Reason:     reason,
	}
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithSessionID fixes the session id instead of generating one.
func WithSessionID(id uuid.UUID) Option {
	return func(e *Engine) {
		e.session.ID = id
	}
}

// Engine implements Scorer. All session mutations happen under mu, so
// Evaluate is safe to call from several goroutines and Close waits for any
// in-flight evaluation before taking its snapshot.
type Engine struct {
	mu      sync.Mutex
	session Session
	now     func() time.Time
}

// NewEngine starts a new active session of the given length.
func NewEngine(duration time.Duration, opts ...Option) *Engine {
	e := &Engine{
		session: Session{
			ID:       uuid.New(),
			Active:   true,
			Duration: duration,
		},
		now: time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.session.StartedAt = e.now()
	metrics.UpdateCurrentScore(0)
	return e
}

// Evaluate applies the threshold rule: a hit needs pressure strictly greater
// than the zone threshold.
func (e *Engine) Evaluate(ev model.SensorEvent, z zone.Zone) (*model.HitRecord, error) {
	if !z.Valid() {
		return nil, fmt.Errorf("sensor %d: %w", ev.SensorID, zone.ErrInvalidZone)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.session.Active {
		metrics.RecordEventDiscarded()
		return nil, ErrSessionClosed
	}

	if ev.Pressure <= z.Threshold() {
		metrics.RecordBelowThreshold(z.String())
		return nil, nil
	}

	rec := model.HitRecord{
		Zone:     z,
		Points:   z.Points(),
		Pressure: ev.Pressure,
		Elapsed:  e.now().Sub(e.session.StartedAt),
	}
	e.session.Hits = append(e.session.Hits, rec)
	e.session.Score += rec.Points

	metrics.RecordHit(z.String(), ev.Pressure)
	metrics.UpdateCurrentScore(e.session.Score)
	return &rec, nil
}

// Close clears the active flag. The returned snapshot reflects every
// evaluation that completed before the call.
func (e *Engine) Close() (Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.session.Active {
		return e.snapshotLocked(), false
	}
	e.session.Active = false
	return e.snapshotLocked(), true
}

// Score returns the running total.
func (e *Engine) Score() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Score
}

// Snapshot returns a copy of the session.
func (e *Engine) Snapshot() Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Elapsed returns the time since the session started.
func (e *Engine) Elapsed() time.Duration {
	return e.now().Sub(e.session.StartedAt)
}

func (e *Engine) snapshotLocked() Session {
	s := e.session
	s.Hits = make([]model.HitRecord, len(e.session.Hits))
	copy(s.Hits, e.session.Hits)
	return s
}
