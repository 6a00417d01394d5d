// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/okian/bullseye/internal/domain/zone"
)

// SensorEvent is one decoded reading from the board.
type SensorEvent struct {
	SensorID int // index into the sensor map
	Pressure int // raw FSR reading
}

// HitRecord is a confirmed hit. It is never mutated after creation.
type HitRecord struct {
	Zone     zone.Zone
	Points   int
	Pressure int
	Elapsed  time.Duration // since session start
}

// GameResult is the immutable snapshot of a terminated session.
type GameResult struct {
	SessionID  uuid.UUID
	FinalScore int
	TotalHits  int
	Hits       []HitRecord
	Date       time.Time     // when the session was finalized
	Duration   time.Duration // configured session length
	Reason     string        // what triggered finalize
}
