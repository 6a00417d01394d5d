package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/okian/bullseye/internal/adapters/device"
	"github.com/okian/bullseye/internal/adapters/export"
	"github.com/okian/bullseye/internal/adapters/http/api"
	"github.com/okian/bullseye/internal/adapters/http/swagger"
	"github.com/okian/bullseye/internal/adapters/render"
	app "github.com/okian/bullseye/internal/app"
	"github.com/okian/bullseye/internal/config"
	"github.com/okian/bullseye/internal/domain/zone"
	"github.com/okian/bullseye/pkg/logger"
	"github.com/okian/bullseye/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 5 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

const (
	modePlay      = "play"
	modeCalibrate = "calibrate"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// cliOptions holds command line overrides. Zero values leave the
// configured value untouched.
type cliOptions struct {
	mode     string
	port     string
	baud     int
	duration int
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// We collect our own system metrics instead of the default collectors.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return exitFailure
	}
	defer func() { _ = logger.Sync() }()

	opts, err := parseArgs(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		os.Stderr.WriteString(err.Error() + "\n")
		return exitUsage
	}

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env), then flags.
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return exitFailure
	}
	if err := opts.apply(cfg); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		return exitUsage
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	sensors, err := sensorMap(cfg)
	if err != nil {
		loggerInstance.Error(ctx, "invalid sensor map", logger.Error(err))
		return exitFailure
	}

	go startSystemMetricsUpdater(ctx)

	loggerInstance.Info(ctx, "connecting to board",
		logger.String("port", cfg.Port),
		logger.Int("baud", cfg.BaudRate),
	)
	link, err := device.Open(ctx, device.Endpoint{
		Address:     cfg.Port,
		BaudRate:    cfg.BaudRate,
		SettleDelay: cfg.SettleDelay(),
	}, device.WithLineBuffer(cfg.LineBuffer))
	if err != nil {
		loggerInstance.Error(ctx, "could not open device", logger.Error(err))
		return exitFailure
	}
	defer func() {
		if err := link.Close(); err != nil {
			loggerInstance.Warn(ctx, "device close failed", logger.Error(err))
		}
	}()

	switch opts.mode {
	case modeCalibrate:
		return runCalibration(ctx, cfg, link, sensors)
	default:
		return runGame(ctx, cfg, link, sensors)
	}
}

// parseArgs reads an optional subcommand followed by flags.
func parseArgs(args []string, output io.Writer) (cliOptions, error) {
	opts := cliOptions{mode: modePlay}
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		opts.mode = args[0]
		args = args[1:]
	}
	if opts.mode != modePlay && opts.mode != modeCalibrate {
		return opts, fmt.Errorf("unknown command %q; use %s or %s", opts.mode, modePlay, modeCalibrate)
	}

	fs := flag.NewFlagSet(opts.mode, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.port, "port", "", "serial device or tcp://host:port (overrides config)")
	fs.IntVar(&opts.baud, "baud", 0, "serial baud rate (overrides config)")
	fs.IntVar(&opts.duration, "duration", 0, "game length in seconds (overrides config)")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return opts, nil
}

// apply layers the flags over cfg and re-validates it.
func (o cliOptions) apply(cfg *config.Config) error {
	if o.port != "" {
		cfg.Port = o.port
	}
	if o.baud != 0 {
		cfg.BaudRate = o.baud
	}
	if o.duration != 0 {
		cfg.GameDuration = o.duration
	}
	return cfg.Validate()
}

func sensorMap(cfg *config.Config) (zone.SensorMap, error) {
	if len(cfg.SensorZones) == 0 {
		return zone.DefaultSensorMap(), nil
	}
	return zone.ParseSensorMap(cfg.SensorZones)
}

func newExporter(cfg *config.Config) (*export.Exporter, error) {
	var renderer export.Renderer
	if cfg.ResultFile != "" {
		renderer = render.NewQRRenderer(cfg.ResultFile)
	}
	return export.New(cfg.ResultBaseURL, export.WithRenderer(renderer))
}

func newStatusMux(ctx context.Context, game api.Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(game).Register(ctx, mux)
	return mux
}

func runGame(ctx context.Context, cfg *config.Config, link device.Link, sensors zone.SensorMap) int {
	loggerInstance := logger.Get()

	exporter, err := newExporter(cfg)
	if err != nil {
		loggerInstance.Error(ctx, "invalid exporter configuration", logger.Error(err))
		return exitFailure
	}

	game, err := app.New(link,
		app.WithLogger(loggerInstance.Named("game")),
		app.WithSensorMap(sensors),
		app.WithExporter(exporter),
		app.WithDuration(cfg.GameDurationValue()),
		app.WithPollInterval(cfg.PollInterval()),
	)
	if err != nil {
		loggerInstance.Error(ctx, "could not create game", logger.Error(err))
		return exitFailure
	}

	var srv *http.Server
	if cfg.Addr != "" {
		srv = &http.Server{
			Addr:              cfg.Addr,
			Handler:           newStatusMux(ctx, game),
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
		}
		go func() {
			loggerInstance.Info(ctx, "starting status API", logger.String("addr", cfg.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				loggerInstance.Error(ctx, "status API failed", logger.Error(fmt.Errorf("%w: %w", api.ErrServe, err)))
			}
		}()
	}

	result, runErr := game.Run(ctx)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			loggerInstance.Error(ctx, "status API shutdown failed", logger.Error(err))
		}
	}

	loggerInstance.Info(ctx, "final result",
		logger.String("reason", result.Reason),
		logger.Int("finalScore", result.FinalScore),
		logger.Int("totalHits", result.TotalHits),
	)
	if runErr != nil {
		loggerInstance.Error(ctx, "game ended with an error", logger.Error(runErr))
		return exitFailure
	}
	if err := game.ExportErr(); err != nil {
		return exitFailure
	}
	return exitOK
}

func runCalibration(ctx context.Context, cfg *config.Config, link device.Link, sensors zone.SensorMap) int {
	loggerInstance := logger.Get()

	cal, err := app.NewCalibrator(link,
		app.WithCalibrationLogger(loggerInstance.Named("calibration")),
		app.WithCalibrationSensorMap(sensors),
		app.WithTicks(cfg.CalibrationTicks),
		app.WithTickInterval(cfg.CalibrationInterval()),
	)
	if err != nil {
		loggerInstance.Error(ctx, "could not create calibrator", logger.Error(err))
		return exitFailure
	}

	if _, err := cal.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		loggerInstance.Error(ctx, "calibration ended with an error", logger.Error(err))
		return exitFailure
	}
	return exitOK
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
