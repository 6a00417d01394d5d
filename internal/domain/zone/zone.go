// Package zone defines the scoring zones of the board and the fixed mapping
// from sensor ids to zones.
package zone

import (
	"fmt"
	"strings"
)

// Zone is one of the four concentric scoring regions.
type Zone uint8

// The zero Zone is invalid so an unset value never scores.
const (
	Bull Zone = iota + 1
	Zone3
	Zone2
	Zone1
)

// Feedback identifies the LED pattern the board shows for a hit.
type Feedback uint8

// Feedback patterns, one per zone from the centre outwards.
const (
	FeedbackBull Feedback = iota + 1
	FeedbackHigh
	FeedbackMid
	FeedbackLow
)

type zoneInfo struct {
	name      string
	label     string
	points    int
	threshold int
	feedback  Feedback
}

// Indexed by Zone. Pressure thresholds follow the FSR datasheet calibration:
// the bull is the most sensitive, the outer ring the least.
var zoneTable = [...]zoneInfo{
	Bull:  {name: "bull", label: "BULL", points: 100, threshold: 300, feedback: FeedbackBull},
	Zone3: {name: "zone3", label: "50-point ring", points: 50, threshold: 250, feedback: FeedbackHigh},
	Zone2: {name: "zone2", label: "20-point ring", points: 20, threshold: 200, feedback: FeedbackMid},
	Zone1: {name: "zone1", label: "10-point ring", points: 10, threshold: 150, feedback: FeedbackLow},
}

// All lists every zone from the centre outwards.
func All() []Zone {
	return []Zone{Bull, Zone3, Zone2, Zone1}
}

// Valid reports whether z is one of the defined zones.
func (z Zone) Valid() bool {
	return z >= Bull && z <= Zone1
}

// String returns the zone's wire name, or zone(N) for an invalid value.
func (z Zone) String() string {
	if !z.Valid() {
		return fmt.Sprintf("zone(%d)", uint8(z))
	}
	return zoneTable[z].name
}

// Label is the human-readable name used in diagnostics.
func (z Zone) Label() string {
	if !z.Valid() {
		return z.String()
	}
	return zoneTable[z].label
}

// Points awarded for a confirmed hit.
func (z Zone) Points() int {
	if !z.Valid() {
		return 0
	}
	return zoneTable[z].points
}

// Threshold is the pressure a reading must strictly exceed to count as a hit.
func (z Zone) Threshold() int {
	if !z.Valid() {
		return 0
	}
	return zoneTable[z].threshold
}

// Feedback returns the LED pattern for the zone.
func (z Zone) Feedback() Feedback {
	if !z.Valid() {
		return 0
	}
	return zoneTable[z].feedback
}

// MarshalText encodes the zone by name.
func (z Zone) MarshalText() ([]byte, error) {
	if !z.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidZone, uint8(z))
	}
	return []byte(zoneTable[z].name), nil
}

// UnmarshalText decodes a zone name.
func (z *Zone) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*z = parsed
	return nil
}

// Parse returns the zone with the given name (case-insensitive).
func Parse(name string) (Zone, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, z := range All() {
		if zoneTable[z].name == n {
			return z, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidZone, name)
}

// String returns the lowercase pattern name used in logs.
func (f Feedback) String() string {
	switch f {
	case FeedbackBull:
		return "bull"
	case FeedbackHigh:
		return "high"
	case FeedbackMid:
		return "mid"
	case FeedbackLow:
		return "low"
	default:
		return fmt.Sprintf("feedback(%d)", uint8(f))
	}
}
