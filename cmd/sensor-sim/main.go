package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/okian/bullseye/internal/simulator"
	"github.com/okian/bullseye/pkg/logger"
)

func main() {
	var (
		addr     = flag.String("addr", simulator.DefaultAddr, "TCP address to listen on")
		interval = flag.Duration("interval", simulator.DefaultInterval, "Delay between emitted lines")
		script   = flag.String("script", "", "Comma separated lines to send first, e.g. 9:350,0:140,3:250")
		random   = flag.Bool("random", true, "Keep sending random readings after the script")
		noise    = flag.Float64("noise", simulator.DefaultNoiseRate, "Share of random lines that are malformed or unmapped")
		maxPress = flag.Int("max-pressure", simulator.DefaultMaxPress, "Upper bound of random pressure readings")
		verbose  = flag.Bool("verbose", false, "Log every emitted line")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var lines []string
	if *script != "" {
		lines = strings.Split(*script, ",")
	}

	board := simulator.New(simulator.Config{
		Addr:      *addr,
		Interval:  *interval,
		Script:    lines,
		Random:    *random,
		NoiseRate: *noise,
		MaxPress:  *maxPress,
	})
	if err := board.Listen(); err != nil {
		logger.Get().Error(ctx, "could not listen", logger.Error(err))
		os.Exit(1)
	}
	logger.Get().Info(ctx, "point the controller at the simulator", logger.String("port", board.Addr()))

	if err := board.Serve(ctx); err != nil {
		logger.Get().Error(ctx, "simulator stopped", logger.Error(err))
		os.Exit(1)
	}

	stats := board.Stats()
	logger.Get().Info(ctx, "simulator stopped",
		logger.Int("linesSent", stats.LinesSent),
		logger.Int("feedbackReceived", len(stats.FeedbackReceived)),
	)
}
