// Package config defines the controller configuration and its loader.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load(ctx) layers defaults, an optional YAML file and BULLSEYE_ env vars.
// - Validation failures are *FieldError values that match ErrInvalidConfig.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr is the status API listen address. Empty disables the API.
	Addr string `koanf:"addr"`

	// Port is the device address: a serial device path (e.g. /dev/ttyACM0, COM3)
	// or tcp://host:port for the sensor simulator.
	Port string `koanf:"port"`

	// BaudRate is the serial line speed.
	BaudRate int `koanf:"baud_rate"`

	// SettleDelayMS is how long to wait after opening the port for the board to reset.
	SettleDelayMS int `koanf:"settle_delay_ms"`

	// GameDuration is the session length in seconds.
	GameDuration int `koanf:"game_duration"`

	// PollIntervalMS is the sleep between poll ticks.
	PollIntervalMS int `koanf:"poll_interval_ms"`

	// LineBuffer bounds the number of device lines waiting to be polled.
	LineBuffer int `koanf:"line_buffer"`

	// ResultBaseURL is the endpoint the encoded result is appended to.
	ResultBaseURL string `koanf:"result_base_url"`

	// ResultFile is where the QR artifact is written. Empty logs the URL only.
	ResultFile string `koanf:"result_file"`

	// CalibrationTicks and CalibrationIntervalMS bound the calibration loop.
	CalibrationTicks      int `koanf:"calibration_ticks"`
	CalibrationIntervalMS int `koanf:"calibration_interval_ms"`

	// SensorZones optionally overrides the sensor id to zone mapping,
	// e.g. {"0": "zone1", ..., "11": "bull"}. It must cover every sensor.
	SensorZones map[string]string `koanf:"sensor_zones"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		Port:                  "/dev/ttyACM0",
		BaudRate:              9600,
		SettleDelayMS:         2000,
		GameDuration:          60,
		PollIntervalMS:        100,
		LineBuffer:            256,
		ResultBaseURL:         "https://your-webapp.com/results",
		ResultFile:            "game_result_qr.png",
		CalibrationTicks:      30,
		CalibrationIntervalMS: 1000,
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Port == "":
		return invalid("port", "must not be empty")
	case c.BaudRate <= 0:
		return invalid("baud_rate", "must be positive")
	case c.GameDuration <= 0:
		return invalid("game_duration", "must be positive")
	case c.PollIntervalMS <= 0:
		return invalid("poll_interval_ms", "must be positive")
	case c.LineBuffer <= 0:
		return invalid("line_buffer", "must be positive")
	case c.SettleDelayMS < 0:
		return invalid("settle_delay_ms", "must not be negative")
	case c.CalibrationTicks <= 0:
		return invalid("calibration_ticks", "must be positive")
	case c.CalibrationIntervalMS <= 0:
		return invalid("calibration_interval_ms", "must be positive")
	case c.ResultBaseURL == "":
		return invalid("result_base_url", "must not be empty")
	}
	return nil
}

// GameDurationValue returns GameDuration as a time.Duration.
func (c *Config) GameDurationValue() time.Duration {
	return time.Duration(c.GameDuration) * time.Second
}

// PollInterval returns PollIntervalMS as a time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// SettleDelay returns SettleDelayMS as a time.Duration.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMS) * time.Millisecond
}

// CalibrationInterval returns CalibrationIntervalMS as a time.Duration.
func (c *Config) CalibrationInterval() time.Duration {
	return time.Duration(c.CalibrationIntervalMS) * time.Millisecond
}
