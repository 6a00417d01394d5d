// Package frame decodes raw device lines into sensor events.
//
// The board sends one reading per line as "<sensor_id>:<pressure>". Anything
// else is reported as a *DecodeError and never forwarded as a partial event.
package frame

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/bullseye/internal/domain/model"
)

const fieldSeparator = ":"

// ErrDecode is matched by every *DecodeError via errors.Is.
var ErrDecode = errors.New("malformed sensor line")

// Kind classifies a decode failure.
type Kind string

// Decode failure kinds. KindTooLong is reported by the device link for
// lines it discarded before they reached Decode.
const (
	KindEmpty      Kind = "empty"
	KindFieldCount Kind = "field_count"
	KindNonNumeric Kind = "non_numeric"
	KindTooLong    Kind = "too_long"
)

// DecodeError describes why a line could not be decoded.
type DecodeError struct {
	Kind Kind
	Line string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s %q: %v", ErrDecode, e.Kind, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %s %q", ErrDecode, e.Kind, e.Line)
}

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode parses a single line. Surrounding whitespace (including the line
// terminator) is ignored.
func Decode(line string) (model.SensorEvent, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return model.SensorEvent{}, &DecodeError{Kind: KindEmpty, Line: line}
	}

	fields := strings.Split(trimmed, fieldSeparator)
	if len(fields) != 2 {
		return model.SensorEvent{}, &DecodeError{Kind: KindFieldCount, Line: line}
	}

	id, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return model.SensorEvent{}, &DecodeError{Kind: KindNonNumeric, Line: line, Err: err}
	}
	pressure, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return model.SensorEvent{}, &DecodeError{Kind: KindNonNumeric, Line: line, Err: err}
	}

	return model.SensorEvent{SensorID: id, Pressure: pressure}, nil
}

// KindOf returns the decode failure kind of err, or "" if err is not a decode error.
func KindOf(err error) Kind {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
