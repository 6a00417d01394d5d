package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/bullseye/internal/adapters/device"
	"github.com/okian/bullseye/internal/domain/calibration"
	"github.com/okian/bullseye/internal/domain/frame"
	"github.com/okian/bullseye/internal/domain/zone"
	"github.com/okian/bullseye/pkg/logger"
	"github.com/okian/bullseye/pkg/metrics"
)

const (
	defaultCalibrationTicks    = 30
	defaultCalibrationInterval = time.Second
)

// Calibrator samples raw readings for a fixed number of ticks and reports
// per-zone statistics. It never scores.
type Calibrator struct {
	link     device.Link
	sensors  zone.SensorMap
	ticks    int
	interval time.Duration
	logger   logger.Logger
}

// NewCalibrator builds a calibrator reading from link.
func NewCalibrator(link device.Link, opts ...CalibratorOption) (*Calibrator, error) {
	if link == nil {
		return nil, ErrNoLink
	}
	c := &Calibrator{
		link:     link,
		sensors:  zone.DefaultSensorMap(),
		ticks:    defaultCalibrationTicks,
		interval: defaultCalibrationInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Named("calibration")
	}
	if err := c.sensors.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Run samples for the configured number of ticks. The report gathered so
// far is returned even when ctx is canceled or the link fails.
func (c *Calibrator) Run(ctx context.Context) ([]calibration.Stat, error) {
	collector := calibration.NewCollector()
	c.logger.Info(ctx, "calibration started; hit each zone several times",
		logger.Int("ticks", c.ticks),
		logger.Duration("interval", c.interval),
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for tick := 0; tick < c.ticks; tick++ {
		if err := c.sample(ctx, collector); err != nil {
			report := c.finish(ctx, collector)
			return report, err
		}
		select {
		case <-ctx.Done():
			report := c.finish(ctx, collector)
			return report, ctx.Err()
		case <-ticker.C:
		}
	}

	// Pick up anything that arrived during the last tick.
	err := c.sample(ctx, collector)
	return c.finish(ctx, collector), err
}

func (c *Calibrator) sample(ctx context.Context, collector *calibration.Collector) error {
	for c.link.Available(ctx) {
		line, err := c.link.ReadLine(ctx)
		if errors.Is(err, device.ErrNoData) {
			return nil
		}
		if err != nil {
			return err
		}

		ev, err := frame.Decode(line)
		if err != nil {
			metrics.RecordDecodeError(string(frame.KindOf(err)))
			c.logger.Debug(ctx, "skipping malformed line", logger.Error(err))
			continue
		}

		z, err := c.sensors.Resolve(ev.SensorID)
		if err != nil {
			collector.AddUnknown(ev.Pressure)
			metrics.RecordCalibrationSample(calibration.UnknownBucket)
			c.logger.Info(ctx, "reading",
				logger.Int("sensor", ev.SensorID),
				logger.String("zone", calibration.UnknownBucket),
				logger.Int("pressure", ev.Pressure),
			)
			continue
		}

		collector.Add(z, ev.Pressure)
		metrics.RecordCalibrationSample(z.String())
		c.logger.Info(ctx, "reading",
			logger.Int("sensor", ev.SensorID),
			logger.String("zone", z.String()),
			logger.Int("pressure", ev.Pressure),
			logger.Int("threshold", z.Threshold()),
			logger.Bool("wouldHit", ev.Pressure > z.Threshold()),
		)
	}
	if err := c.link.Err(); err != nil {
		return fmt.Errorf("calibration sampling: %w", err)
	}
	return nil
}

func (c *Calibrator) finish(ctx context.Context, collector *calibration.Collector) []calibration.Stat {
	report := collector.Report()
	if len(report) == 0 {
		c.logger.Warn(ctx, "calibration collected no readings")
		return report
	}
	for _, st := range report {
		c.logger.Info(ctx, "calibration result",
			logger.String("zone", st.Bucket),
			logger.Int("samples", st.Samples),
			logger.Float64("mean", st.Mean),
			logger.Int("min", st.Min),
			logger.Int("max", st.Max),
			logger.Int("currentThreshold", st.CurrentThreshold),
			logger.Int("recommendedThreshold", st.RecommendedThreshold),
		)
	}
	return report
}
