package render_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/bullseye/internal/adapters/render"
	"github.com/okian/bullseye/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestQRRenderer(t *testing.T) {
	Convey("Given a QR renderer pointed at a temp file", t, func() {
		path := filepath.Join(t.TempDir(), "result.png")
		r := render.NewQRRenderer(path, render.WithSize(128))

		Convey("When rendering a result URL", func() {
			err := r.Render(context.Background(), "https://your-webapp.com/results?data=eyJmaW5hbF9zY29yZSI6MTIwfQ%3D%3D")

			Convey("Then a PNG is written", func() {
				So(err, ShouldBeNil)
				b, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(bytes.HasPrefix(b, []byte("\x89PNG")), ShouldBeTrue)
			})
		})

		Convey("When the target directory does not exist", func() {
			bad := render.NewQRRenderer(filepath.Join(t.TempDir(), "missing", "result.png"))
			err := bad.Render(context.Background(), "https://example.com")

			Convey("Then the error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
