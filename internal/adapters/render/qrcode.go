// Package render draws result URLs as scannable QR codes.
package render

import (
	"context"
	"fmt"

	"github.com/okian/bullseye/pkg/logger"
	qrcode "github.com/skip2/go-qrcode"
)

const defaultSize = 290 // 29 modules at 10px, plus quiet zone

// QRRenderer writes a PNG QR code for each rendered URL.
type QRRenderer struct {
	path   string
	size   int
	level  qrcode.RecoveryLevel
	logger logger.Logger
}

// Option applies a configuration option to the QRRenderer.
type Option func(*QRRenderer)

// WithSize sets the image width and height in pixels.
func WithSize(px int) Option {
	return func(r *QRRenderer) {
		if px > 0 {
			r.size = px
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(r *QRRenderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewQRRenderer writes images to path. Low error correction keeps long
// result URLs within a scannable symbol size.
func NewQRRenderer(path string, opts ...Option) *QRRenderer {
	r := &QRRenderer{
		path:  path,
		size:  defaultSize,
		level: qrcode.Low,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Named("render")
	}
	return r
}

// Render encodes url and writes the PNG.
func (r *QRRenderer) Render(ctx context.Context, url string) error {
	if err := qrcode.WriteFile(url, r.level, r.size, r.path); err != nil {
		return fmt.Errorf("write qr code %s: %w", r.path, err)
	}
	r.logger.Info(ctx, "qr code written; scan it to view the result", logger.String("path", r.path))
	return nil
}
