package zone

import "errors"

// Sentinel kinds for zone resolution.
var (
	ErrUnknownSensor    = errors.New("unknown sensor")
	ErrInvalidZone      = errors.New("invalid zone")
	ErrInvalidSensorMap = errors.New("invalid sensor map")
)
