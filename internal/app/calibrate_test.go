package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/bullseye/internal/adapters/device"
	"github.com/okian/bullseye/internal/domain/calibration"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCalibrator(t *testing.T) {
	Convey("Given three outer-ring readings, one stray sensor and noise", t, func() {
		link := &fakeLink{}
		link.push("0:100", "1:200", "2:300", "42:50", "garbage")
		c, err := NewCalibrator(link, WithTicks(2), WithTickInterval(2*time.Millisecond))
		So(err, ShouldBeNil)

		Convey("When calibration runs", func() {
			report, err := c.Run(context.Background())

			Convey("Then the zone mean and recommendation are reported", func() {
				So(err, ShouldBeNil)
				So(len(report), ShouldEqual, 2)
				So(report[0].Bucket, ShouldEqual, "zone1")
				So(report[0].Samples, ShouldEqual, 3)
				So(report[0].Mean, ShouldEqual, 200.0)
				So(report[0].Min, ShouldEqual, 100)
				So(report[0].Max, ShouldEqual, 300)
				So(report[0].RecommendedThreshold, ShouldEqual, 140)
				So(report[0].CurrentThreshold, ShouldEqual, 150)
			})

			Convey("Then unmapped sensors land in their own bucket", func() {
				So(report[1].Bucket, ShouldEqual, calibration.UnknownBucket)
				So(report[1].Samples, ShouldEqual, 1)
			})

			Convey("Then nothing is written back to the board", func() {
				So(link.written(), ShouldBeEmpty)
			})
		})
	})

	Convey("Given a silent board", t, func() {
		c, err := NewCalibrator(&fakeLink{}, WithTicks(1), WithTickInterval(time.Millisecond))
		So(err, ShouldBeNil)

		report, err := c.Run(context.Background())
		So(err, ShouldBeNil)
		So(report, ShouldBeEmpty)
	})

	Convey("Given a board that drops mid-run", t, func() {
		link := &fakeLink{}
		link.push("9:320")
		link.fail(fmt.Errorf("%w: EOF", device.ErrLinkLost))
		c, err := NewCalibrator(link, WithTicks(5), WithTickInterval(time.Millisecond))
		So(err, ShouldBeNil)

		report, err := c.Run(context.Background())
		So(errors.Is(err, device.ErrLinkLost), ShouldBeTrue)
		So(len(report), ShouldEqual, 1)
		So(report[0].Bucket, ShouldEqual, "bull")
	})

	Convey("Given a canceled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		c, err := NewCalibrator(&fakeLink{}, WithTicks(100), WithTickInterval(time.Hour))
		So(err, ShouldBeNil)

		_, err = c.Run(ctx)
		So(errors.Is(err, context.Canceled), ShouldBeTrue)
	})
}
