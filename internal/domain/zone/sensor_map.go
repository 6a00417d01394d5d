package zone

import (
	"fmt"
	"strconv"
	"strings"
)

// SensorCount is the number of pressure sensors on the board (three per ring).
const SensorCount = 12

// SensorMap maps every sensor id in [0, SensorCount) to exactly one zone.
// It is a value type and never changes after construction.
type SensorMap struct {
	zones [SensorCount]Zone
}

// DefaultSensorMap wires sensors 0-2 to the outer ring, 3-5 to the 20-point
// ring, 6-8 to the 50-point ring and 9-11 to the bull.
func DefaultSensorMap() SensorMap {
	var m SensorMap
	for id := 0; id < SensorCount; id++ {
		m.zones[id] = []Zone{Zone1, Zone2, Zone3, Bull}[id/3]
	}
	return m
}

// NewSensorMap builds a map from an explicit assignment and validates it.
func NewSensorMap(assign map[int]Zone) (SensorMap, error) {
	var m SensorMap
	for id, z := range assign {
		if id < 0 || id >= SensorCount {
			return SensorMap{}, fmt.Errorf("%w: sensor id %d out of range [0,%d)", ErrInvalidSensorMap, id, SensorCount)
		}
		if !z.Valid() {
			return SensorMap{}, fmt.Errorf("%w: sensor %d: %w", ErrInvalidSensorMap, id, ErrInvalidZone)
		}
		m.zones[id] = z
	}
	if err := m.Validate(); err != nil {
		return SensorMap{}, err
	}
	return m, nil
}

// ParseSensorMap builds a map from config entries like {"0": "zone1"}.
func ParseSensorMap(entries map[string]string) (SensorMap, error) {
	assign := make(map[int]Zone, len(entries))
	for key, name := range entries {
		id, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return SensorMap{}, fmt.Errorf("%w: sensor id %q: %w", ErrInvalidSensorMap, key, err)
		}
		z, err := Parse(name)
		if err != nil {
			return SensorMap{}, fmt.Errorf("%w: sensor %d: %w", ErrInvalidSensorMap, id, err)
		}
		assign[id] = z
	}
	return NewSensorMap(assign)
}

// Validate reports every sensor id that is not mapped to a zone.
func (m SensorMap) Validate() error {
	var missing []string
	for id, z := range m.zones {
		if !z.Valid() {
			missing = append(missing, strconv.Itoa(id))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: unmapped sensors %s", ErrInvalidSensorMap, strings.Join(missing, ","))
	}
	return nil
}

// Resolve returns the zone for a sensor id, or ErrUnknownSensor.
func (m SensorMap) Resolve(sensorID int) (Zone, error) {
	if sensorID < 0 || sensorID >= SensorCount || !m.zones[sensorID].Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownSensor, sensorID)
	}
	return m.zones[sensorID], nil
}

// Sensors returns the ids wired to z in ascending order.
func (m SensorMap) Sensors(z Zone) []int {
	var ids []int
	for id, mapped := range m.zones {
		if mapped == z {
			ids = append(ids, id)
		}
	}
	return ids
}
