// Package simulator emulates the sensor board over TCP so the controller
// can be run and tested without hardware.
//
// The board prints newline-terminated "id:pressure" readings and accepts
// unterminated LED feedback tokens, the same as the firmware does over USB.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/okian/bullseye/pkg/logger"
)

var feedbackTokens = []string{"LED:BULL", "LED:HIGH", "LED:MID", "LED:LOW"}

// ErrNotListening is returned by Serve before Listen.
var ErrNotListening = errors.New("simulator not listening")

// Option applies a configuration option to the Board.
type Option func(*Board)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Board) {
		if l != nil {
			b.logger = l
		}
	}
}

// Board is a simulated sensor board.
type Board struct {
	cfg Config
	ln  net.Listener

	mu    sync.Mutex
	stats Stats
	wg    sync.WaitGroup

	logger logger.Logger
}

// New creates a board. Call Listen then Serve.
func New(cfg Config, opts ...Option) *Board {
	cfg.withDefaults()
	b := &Board{cfg: cfg}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = logger.Named("simulator")
	}
	return b
}

// Listen binds the TCP address.
func (b *Board) Listen() error {
	ln, err := net.Listen("tcp", b.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", b.cfg.Addr, err)
	}
	b.ln = ln
	return nil
}

// Addr returns the device address the controller should open.
func (b *Board) Addr() string {
	if b.ln == nil {
		return ""
	}
	return "tcp://" + b.ln.Addr().String()
}

// Serve accepts controller connections until ctx is canceled. Every
// connection gets its own replay of the script.
func (b *Board) Serve(ctx context.Context) error {
	if b.ln == nil {
		return ErrNotListening
	}
	go func() {
		<-ctx.Done()
		_ = b.ln.Close()
	}()

	b.logger.Info(ctx, "simulated board listening", logger.String("addr", b.Addr()))
	for {
		conn, err := b.ln.Accept()
		if err != nil {
			b.wg.Wait()
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.handle(ctx, conn)
		}()
	}
}

// Stats returns what was exchanged so far across all connections.
func (b *Board) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.stats
	s.FeedbackReceived = append([]string(nil), b.stats.FeedbackReceived...)
	return s
}

func (b *Board) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	b.logger.Info(ctx, "controller connected", logger.String("remote", conn.RemoteAddr().String()))

	peerGone := make(chan struct{})
	go func() {
		defer close(peerGone)
		b.readFeedback(ctx, conn)
	}()

	gen := NewGenerator(b.cfg)
	ticker := time.NewTicker(b.cfg.Interval)
	defer ticker.Stop()

	emitting := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-peerGone:
			b.logger.Info(ctx, "controller disconnected")
			return
		case <-ticker.C:
			if !emitting {
				continue
			}
			line, ok := gen.Next()
			if !ok {
				emitting = false
				continue
			}
			if _, err := io.WriteString(conn, line+"\n"); err != nil {
				b.logger.Warn(ctx, "write failed", logger.Error(err))
				return
			}
			b.mu.Lock()
			b.stats.LinesSent++
			b.mu.Unlock()
			b.logger.Debug(ctx, "sent", logger.String("line", line))
		}
	}
}

func (b *Board) readFeedback(ctx context.Context, conn net.Conn) {
	buf := make([]byte, 64)
	var pending string
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			var tokens []string
			tokens, pending = ParseFeedback(pending + string(buf[:n]))
			for _, tok := range tokens {
				b.logger.Info(ctx, "feedback", logger.String("token", tok))
			}
			b.mu.Lock()
			b.stats.FeedbackReceived = append(b.stats.FeedbackReceived, tokens...)
			b.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// ParseFeedback splits a stream of unterminated tokens. The returned rest
// is an incomplete token to prepend to the next read. Unknown bytes are
// skipped.
func ParseFeedback(s string) (tokens []string, rest string) {
	for s != "" {
		matched := false
		for _, tok := range feedbackTokens {
			if strings.HasPrefix(s, tok) {
				tokens = append(tokens, tok)
				s = s[len(tok):]
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		for _, tok := range feedbackTokens {
			if strings.HasPrefix(tok, s) {
				return tokens, s
			}
		}
		s = s[1:]
	}
	return tokens, ""
}
