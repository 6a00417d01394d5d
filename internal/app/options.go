package service

import (
	"time"

	"github.com/okian/bullseye/internal/domain/zone"
	"github.com/okian/bullseye/pkg/logger"
)

// Option applies a configuration option to the Game.
type Option func(*Game)

// WithLogger sets a custom logger for the game.
func WithLogger(l logger.Logger) Option {
	return func(g *Game) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithSensorMap replaces the default sensor-to-zone assignment.
func WithSensorMap(m zone.SensorMap) Option {
	return func(g *Game) {
		g.sensors = m
	}
}

// WithExporter sets where the final result goes.
func WithExporter(e Exporter) Option {
	return func(g *Game) {
		if e != nil {
			g.exporter = e
		}
	}
}

// WithDuration sets the session length.
func WithDuration(d time.Duration) Option {
	return func(g *Game) {
		if d > 0 {
			g.duration = d
		}
	}
}

// WithPollInterval sets how often the link is checked for data.
func WithPollInterval(d time.Duration) Option {
	return func(g *Game) {
		if d > 0 {
			g.pollInterval = d
		}
	}
}

// WithFeedbackBuffer sets how many LED signals may wait for delivery.
func WithFeedbackBuffer(n int) Option {
	return func(g *Game) {
		if n > 0 {
			g.feedbackBuffer = n
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Game) {
		if now != nil {
			g.now = now
		}
	}
}

// CalibratorOption applies a configuration option to the Calibrator.
type CalibratorOption func(*Calibrator)

// WithCalibrationLogger sets a custom logger for the calibrator.
func WithCalibrationLogger(l logger.Logger) CalibratorOption {
	return func(c *Calibrator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCalibrationSensorMap replaces the default sensor-to-zone assignment.
func WithCalibrationSensorMap(m zone.SensorMap) CalibratorOption {
	return func(c *Calibrator) {
		c.sensors = m
	}
}

// WithTicks sets how many sampling ticks a calibration run lasts.
func WithTicks(n int) CalibratorOption {
	return func(c *Calibrator) {
		if n > 0 {
			c.ticks = n
		}
	}
}

// WithTickInterval sets the delay between sampling ticks.
func WithTickInterval(d time.Duration) CalibratorOption {
	return func(c *Calibrator) {
		if d > 0 {
			c.interval = d
		}
	}
}
