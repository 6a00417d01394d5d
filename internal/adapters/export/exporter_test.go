package export_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/okian/bullseye/internal/adapters/export"
	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/internal/domain/zone"
	"github.com/okian/bullseye/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type captureRenderer struct {
	urls []string
	err  error
}

func (c *captureRenderer) Render(_ context.Context, u string) error {
	c.urls = append(c.urls, u)
	return c.err
}

type recordingLogger struct {
	logger.Logger
	urls []string
}

func (r *recordingLogger) Info(_ context.Context, msg string, fields ...logger.Field) {
	for _, f := range fields {
		if f.Key == "url" {
			r.urls = append(r.urls, f.Value.(string))
		}
	}
}

func (r *recordingLogger) Named(string) logger.Logger { return r }

func sampleResult() model.GameResult {
	return model.GameResult{
		SessionID:  uuid.New(),
		FinalScore: 120,
		TotalHits:  2,
		Hits: []model.HitRecord{
			{Zone: zone.Bull, Points: 100, Pressure: 350, Elapsed: 1500 * time.Millisecond},
			{Zone: zone.Zone2, Points: 20, Pressure: 250, Elapsed: 4 * time.Second},
		},
		Date:     time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC),
		Duration: 60 * time.Second,
	}
}

func TestEncode(t *testing.T) {
	Convey("Given a finished game", t, func() {
		b, err := export.Encode(sampleResult())

		Convey("Then the JSON carries the renderer's field names", func() {
			So(err, ShouldBeNil)
			s := string(b)
			So(s, ShouldContainSubstring, `"final_score":120`)
			So(s, ShouldContainSubstring, `"total_hits":2`)
			So(s, ShouldContainSubstring, `"game_duration":60`)
			So(s, ShouldContainSubstring, `"game_date":"2026-10-18T09:30:00Z"`)
			So(s, ShouldContainSubstring, `{"zone":"bull","points":100,"pressure":350,"timestamp":1.5}`)
		})
	})

	Convey("Given a game without hits", t, func() {
		r := sampleResult()
		r.Hits, r.TotalHits, r.FinalScore = nil, 0, 0
		b, err := export.Encode(r)

		Convey("Then hit_details is an empty list, not null", func() {
			So(err, ShouldBeNil)
			So(string(b), ShouldContainSubstring, `"hit_details":[]`)
		})
	})
}

func TestExporter(t *testing.T) {
	Convey("Given an exporter with a capturing renderer", t, func() {
		cr := &captureRenderer{}
		e, err := export.New("https://your-webapp.com/results", export.WithRenderer(cr))
		So(err, ShouldBeNil)

		Convey("When exporting a result", func() {
			err := e.Export(context.Background(), sampleResult())

			Convey("Then the renderer receives the base URL with a decodable payload", func() {
				So(err, ShouldBeNil)
				So(len(cr.urls), ShouldEqual, 1)
				So(strings.HasPrefix(cr.urls[0], "https://your-webapp.com/results?data="), ShouldBeTrue)

				u, err := url.Parse(cr.urls[0])
				So(err, ShouldBeNil)
				p, err := export.Decode(u.Query().Get("data"))
				So(err, ShouldBeNil)
				So(p.FinalScore, ShouldEqual, 120)
				So(p.TotalHits, ShouldEqual, 2)
				So(len(p.HitDetails), ShouldEqual, 2)
				So(p.HitDetails[1].Zone, ShouldEqual, zone.Zone2)
				So(p.HitDetails[1].Timestamp, ShouldEqual, 4.0)
			})
		})

		Convey("When the same session is exported twice", func() {
			r := sampleResult()
			first := e.Export(context.Background(), r)
			second := e.Export(context.Background(), r)

			Convey("Then the renderer runs once", func() {
				So(first, ShouldBeNil)
				So(errors.Is(second, export.ErrAlreadyExported), ShouldBeTrue)
				So(len(cr.urls), ShouldEqual, 1)
			})
		})

		Convey("When the renderer fails", func() {
			cr.err = errors.New("disk full")
			r := sampleResult()
			err := e.Export(context.Background(), r)

			Convey("Then ErrRender is returned and a retry is allowed", func() {
				So(errors.Is(err, export.ErrRender), ShouldBeTrue)
				cr.err = nil
				So(e.Export(context.Background(), r), ShouldBeNil)
				So(len(cr.urls), ShouldEqual, 2)
			})
		})
	})

	Convey("Given invalid base URLs", t, func() {
		_, errRel := export.New("/results")
		_, errBad := export.New("://nope")

		Convey("Then construction fails", func() {
			So(errors.Is(errRel, export.ErrInvalidBaseURL), ShouldBeTrue)
			So(errors.Is(errBad, export.ErrInvalidBaseURL), ShouldBeTrue)
		})
	})

	Convey("Given a payload that is not base64", t, func() {
		_, err := export.Decode("!!!")
		So(errors.Is(err, export.ErrDecode), ShouldBeTrue)
	})

	Convey("Given the default renderer", t, func() {
		e, err := export.New("https://example.com/r")
		So(err, ShouldBeNil)
		So(e.Export(context.Background(), sampleResult()), ShouldBeNil)
	})
}

func TestLogRenderer(t *testing.T) {
	Convey("Given an exporter without a renderer", t, func() {
		rl := &recordingLogger{Logger: logger.Get()}
		e, err := export.New("https://your-webapp.com/results", export.WithLogger(rl))
		So(err, ShouldBeNil)

		Convey("When a result is exported", func() {
			err := e.Export(context.Background(), sampleResult())

			Convey("Then the URL is written to the log", func() {
				So(err, ShouldBeNil)
				So(len(rl.urls), ShouldEqual, 1)
				So(strings.HasPrefix(rl.urls[0], "https://your-webapp.com/results?data="), ShouldBeTrue)
			})
		})
	})

	Convey("Given a log renderer built directly", t, func() {
		rl := &recordingLogger{Logger: logger.Get()}
		r := export.NewLogRenderer(rl)
		So(r.Render(context.Background(), "https://example.test/r"), ShouldBeNil)
		So(rl.urls, ShouldResemble, []string{"https://example.test/r"})
	})
}
