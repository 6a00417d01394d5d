package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should register the game collectors", func() {
				So(manager, ShouldNotBeNil)
				manager.currentScore.Set(10)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("board"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithPressureBuckets([]float64{100, 200}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then names should use the custom namespace", func() {
				manager.currentScore.Set(1)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_board_current_score" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When registering the same names twice on one registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then promauto should panic", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestGameMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording hits", func() {
			before := testutil.ToFloat64(globalManager.hitsTotal.WithLabelValues("bull"))
			RecordHit("bull", 350)
			RecordHit("bull", 410)

			Convey("Then the zone counter should advance", func() {
				So(testutil.ToFloat64(globalManager.hitsTotal.WithLabelValues("bull")), ShouldEqual, before+2)
			})
		})

		Convey("When updating the score and state gauges", func() {
			UpdateCurrentScore(120)
			UpdateSessionState(3)

			Convey("Then the gauges should hold the last value", func() {
				So(testutil.ToFloat64(globalManager.currentScore), ShouldEqual, 120)
				So(testutil.ToFloat64(globalManager.sessionState), ShouldEqual, 3)
			})
		})

		Convey("When recording decode errors and discards", func() {
			beforeDecode := testutil.ToFloat64(globalManager.decodeErrors.WithLabelValues("non_numeric"))
			beforeDiscard := testutil.ToFloat64(globalManager.eventsDiscarded)
			RecordDecodeError("non_numeric")
			RecordEventDiscarded()

			Convey("Then both counters should advance by one", func() {
				So(testutil.ToFloat64(globalManager.decodeErrors.WithLabelValues("non_numeric")), ShouldEqual, beforeDecode+1)
				So(testutil.ToFloat64(globalManager.eventsDiscarded), ShouldEqual, beforeDiscard+1)
			})
		})

		Convey("When recording the remaining counters", func() {
			So(func() {
				RecordBelowThreshold("zone1")
				RecordSessionFinalized("timer_expired")
				RecordUnknownSensor()
				RecordFeedbackError()
				RecordCalibrationSample("unknown")
				RecordLineReceived()
				RecordLineDropped()
				UpdateLineQueueSize(3)
				UpdateLineQueueCapacity(256)
				RecordLineQueueWait(12)
				RecordHTTPRequest("session", "GET", "200")
				RecordHTTPRequestDuration("session", "GET", "200", 1.5)
				RecordErrorByComponent("device", "write_failed")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.4)
			}, ShouldNotPanic)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		RecordLineReceived()
		families, err := GetRegistry().Gather()

		Convey("Then it should expose bullseye metrics only", func() {
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
			for _, f := range families {
				So(strings.HasPrefix(f.GetName(), "bullseye_"), ShouldBeTrue)
			}
		})
	})
}
