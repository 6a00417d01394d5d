package simulator

import "time"

// Config holds configuration for a simulated board.
type Config struct {
	Addr      string        // TCP listen address
	Interval  time.Duration // delay between emitted lines
	Script    []string      // lines sent first, verbatim
	Random    bool          // keep emitting random readings after the script
	NoiseRate float64       // share of random lines that are malformed or unmapped
	Sensors   int           // sensor ids drawn from [0, Sensors)
	MaxPress  int           // pressures drawn from [0, MaxPress]
}

// Stats holds what one connection exchanged.
type Stats struct {
	LinesSent        int
	FeedbackReceived []string
}

// Default configuration constants.
const (
	DefaultAddr      = "127.0.0.1:7070"
	DefaultInterval  = 500 * time.Millisecond
	DefaultNoiseRate = 0.05
	DefaultSensors   = 12
	DefaultMaxPress  = 400
)

func (c *Config) withDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Sensors <= 0 {
		c.Sensors = DefaultSensors
	}
	if c.MaxPress <= 0 {
		c.MaxPress = DefaultMaxPress
	}
}
