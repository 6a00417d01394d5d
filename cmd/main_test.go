package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/bullseye/internal/config"
	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/internal/domain/types"
	"github.com/okian/bullseye/internal/domain/zone"
	"github.com/okian/bullseye/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type idleGame struct{}

func (idleGame) Status() types.SessionStatus { return types.SessionStatus{State: "idle"} }
func (idleGame) Result() (model.GameResult, error) {
	return model.GameResult{}, errors.New("game not finished")
}
func (idleGame) Abort() {}

func TestParseArgs(t *testing.T) {
	convey.Convey("Given no arguments", t, func() {
		opts, err := parseArgs(nil, io.Discard)

		convey.Convey("Then the game is played with configured values", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(opts.mode, convey.ShouldEqual, modePlay)
			convey.So(opts.port, convey.ShouldBeEmpty)
		})
	})

	convey.Convey("Given the calibrate subcommand with flags", t, func() {
		opts, err := parseArgs([]string{"calibrate", "-port", "tcp://127.0.0.1:7000", "-baud", "115200"}, io.Discard)

		convey.Convey("Then the overrides are captured", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(opts.mode, convey.ShouldEqual, modeCalibrate)
			convey.So(opts.port, convey.ShouldEqual, "tcp://127.0.0.1:7000")
			convey.So(opts.baud, convey.ShouldEqual, 115200)
		})
	})

	convey.Convey("Given flags without a subcommand", t, func() {
		opts, err := parseArgs([]string{"-duration", "30"}, io.Discard)
		convey.So(err, convey.ShouldBeNil)
		convey.So(opts.mode, convey.ShouldEqual, modePlay)
		convey.So(opts.duration, convey.ShouldEqual, 30)
	})

	convey.Convey("Given an unknown subcommand", t, func() {
		_, err := parseArgs([]string{"practice"}, io.Discard)
		convey.So(err, convey.ShouldNotBeNil)
	})

	convey.Convey("Given -h", t, func() {
		_, err := parseArgs([]string{"-h"}, io.Discard)
		convey.So(errors.Is(err, flag.ErrHelp), convey.ShouldBeTrue)
	})

	convey.Convey("Given trailing arguments", t, func() {
		_, err := parseArgs([]string{"play", "-duration", "10", "extra"}, io.Discard)
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestApplyOverrides(t *testing.T) {
	convey.Convey("Given default configuration", t, func() {
		cfg := config.New()

		convey.Convey("When flags override port and duration", func() {
			err := cliOptions{port: "COM3", duration: 90}.apply(cfg)

			convey.Convey("Then only those values change", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Port, convey.ShouldEqual, "COM3")
				convey.So(cfg.GameDuration, convey.ShouldEqual, 90)
				convey.So(cfg.BaudRate, convey.ShouldEqual, 9600)
			})
		})

		convey.Convey("When a flag is out of range", func() {
			err := cliOptions{duration: -5}.apply(cfg)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestWiring(t *testing.T) {
	convey.Convey("Given configuration without sensor overrides", t, func() {
		cfg := config.New()

		convey.Convey("Then the default sensor map is used", func() {
			m, err := sensorMap(cfg)
			convey.So(err, convey.ShouldBeNil)
			z, err := m.Resolve(9)
			convey.So(err, convey.ShouldBeNil)
			convey.So(z, convey.ShouldEqual, zone.Bull)
		})

		convey.Convey("Then an exporter can be built", func() {
			e, err := newExporter(cfg)
			convey.So(err, convey.ShouldBeNil)
			convey.So(e, convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given a partial sensor override", t, func() {
		cfg := config.New()
		cfg.SensorZones = map[string]string{"0": "bull"}

		_, err := sensorMap(cfg)
		convey.So(errors.Is(err, zone.ErrInvalidSensorMap), convey.ShouldBeTrue)
	})

	convey.Convey("Given the status mux", t, func() {
		mux := newStatusMux(context.Background(), idleGame{})

		convey.Convey("Then every route is registered", func() {
			for _, path := range []string{"/healthz", "/session", "/openapi.yaml"} {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}

			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/result", http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusNotFound)
		})
	})
}
