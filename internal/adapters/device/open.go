package device

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"go.bug.st/serial"
)

const tcpScheme = "tcp://"

// Endpoint describes where the board is attached.
type Endpoint struct {
	// Address is a serial device (/dev/ttyACM0, COM3) or tcp://host:port.
	Address  string
	BaudRate int
	// SettleDelay is waited after connecting; boards that reset on open
	// print boot noise during this window, which is discarded.
	SettleDelay time.Duration
}

// Open connects to the board and returns a running StreamLink.
func Open(ctx context.Context, ep Endpoint, opts ...Option) (*StreamLink, error) {
	var (
		rwc   io.ReadWriteCloser
		reset func() error
	)

	if addr, ok := strings.CutPrefix(ep.Address, tcpScheme); ok {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrOpen, ep.Address, err)
		}
		rwc = conn
	} else {
		port, err := serial.Open(ep.Address, &serial.Mode{BaudRate: ep.BaudRate})
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrOpen, ep.Address, err)
		}
		rwc = port
		reset = port.ResetInputBuffer
	}

	if ep.SettleDelay > 0 {
		t := time.NewTimer(ep.SettleDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			_ = rwc.Close()
			return nil, fmt.Errorf("%w: %w", ErrOpen, ctx.Err())
		case <-t.C:
		}
		if reset != nil {
			if err := reset(); err != nil {
				_ = rwc.Close()
				return nil, fmt.Errorf("%w: reset input: %w", ErrOpen, err)
			}
		}
	}

	return NewStreamLink(ctx, rwc, opts...), nil
}
