// Package export turns a finished game into a shareable payload.
//
// The result is serialised as JSON, encoded with URL-safe base64 and appended
// to a fixed endpoint as the "data" query parameter. Rendering that URL (for
// example as a QR code) is delegated to a Renderer.
package export

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/okian/bullseye/internal/domain/dedupe"
	"github.com/okian/bullseye/internal/domain/model"
	"github.com/okian/bullseye/internal/domain/zone"
	"github.com/okian/bullseye/pkg/logger"
)

const dataParam = "data"

// Renderer consumes the final URL.
type Renderer interface {
	Render(ctx context.Context, url string) error
}

// Payload is the wire shape of a game result.
type Payload struct {
	FinalScore   int         `json:"final_score"`
	TotalHits    int         `json:"total_hits"`
	HitDetails   []HitDetail `json:"hit_details"`
	GameDate     string      `json:"game_date"`
	GameDuration int         `json:"game_duration"`
}

// HitDetail is one entry of Payload.HitDetails. Timestamp is seconds since
// the session started.
type HitDetail struct {
	Zone      zone.Zone `json:"zone"`
	Points    int       `json:"points"`
	Pressure  int       `json:"pressure"`
	Timestamp float64   `json:"timestamp"`
}

// NewPayload converts a GameResult to its wire shape.
func NewPayload(r model.GameResult) Payload {
	details := make([]HitDetail, len(r.Hits))
	for i, h := range r.Hits {
		details[i] = HitDetail{
			Zone:      h.Zone,
			Points:    h.Points,
			Pressure:  h.Pressure,
			Timestamp: h.Elapsed.Seconds(),
		}
	}
	return Payload{
		FinalScore:   r.FinalScore,
		TotalHits:    r.TotalHits,
		HitDetails:   details,
		GameDate:     r.Date.Format(time.RFC3339Nano),
		GameDuration: int(r.Duration / time.Second),
	}
}

// Encode serialises the result as JSON text.
func Encode(r model.GameResult) ([]byte, error) {
	b, err := json.Marshal(NewPayload(r))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return b, nil
}

// Decode parses a URL-safe base64 payload back into its wire shape.
func Decode(data string) (Payload, error) {
	raw, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return p, nil
}

// Exporter builds result URLs and hands them to a Renderer.
type Exporter struct {
	base     *url.URL
	renderer Renderer
	exported dedupe.Deduper
	logger   logger.Logger
}

// Option applies a configuration option to the Exporter.
type Option func(*Exporter)

// WithRenderer sets the renderer that receives the final URL.
func WithRenderer(r Renderer) Option {
	return func(e *Exporter) {
		if r != nil {
			e.renderer = r
		}
	}
}

// WithDeduper sets the ledger of already exported session ids.
func WithDeduper(d dedupe.Deduper) Option {
	return func(e *Exporter) {
		if d != nil {
			e.exported = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Exporter for the given base endpoint.
func New(baseURL string, opts ...Option) (*Exporter, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: base url: %w", ErrInvalidBaseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q needs a scheme and host", ErrInvalidBaseURL, baseURL)
	}

	e := &Exporter{base: u}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Named("export")
	}
	if e.renderer == nil {
		e.renderer = NewLogRenderer(e.logger)
	}
	if e.exported == nil {
		e.exported = dedupe.NewInMemoryDeduper()
	}
	return e, nil
}

// URL returns the base endpoint with the encoded result attached.
func (e *Exporter) URL(r model.GameResult) (string, error) {
	payload, err := Encode(r)
	if err != nil {
		return "", err
	}
	u := *e.base
	q := u.Query()
	q.Set(dataParam, base64.URLEncoding.EncodeToString(payload))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Export builds the URL and renders it. A session is rendered at most
// once; a failed render may be retried.
func (e *Exporter) Export(ctx context.Context, r model.GameResult) error {
	id := r.SessionID.String()
	if e.exported.SeenAndRecord(ctx, id) {
		return fmt.Errorf("%w: session %s", ErrAlreadyExported, id)
	}

	link, err := e.URL(r)
	if err != nil {
		e.exported.Unrecord(ctx, id)
		return err
	}
	if err := e.renderer.Render(ctx, link); err != nil {
		e.exported.Unrecord(ctx, id)
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	e.logger.Info(ctx, "result exported",
		logger.String("sessionID", r.SessionID.String()),
		logger.Int("finalScore", r.FinalScore),
		logger.Int("urlLength", len(link)),
	)
	return nil
}

// LogRenderer only logs the URL.
type LogRenderer struct {
	logger logger.Logger
}

// NewLogRenderer returns a renderer that logs through l.
func NewLogRenderer(l logger.Logger) LogRenderer {
	return LogRenderer{logger: l}
}

// Render logs url.
func (r LogRenderer) Render(ctx context.Context, url string) error {
	r.logger.Info(ctx, "result url", logger.String("url", url))
	return nil
}
