package sensor

import "codeberg.org/arlen/sensorctl/internal/errors"

const (
	// Configuration validation
	ErrInvalidRate       = errors.ErrorCode("sensor_invalid_rate")
	ErrInvalidResolution = errors.ErrorCode("sensor_invalid_resolution")
	ErrInvalidRange      = errors.ErrorCode("sensor_invalid_range")

	// Collector lifecycle
	ErrSessionInit   = errors.ErrorCode("sensor_session_init_failed")
	ErrNotCollecting = errors.ErrorCode("sensor_not_collecting")
	ErrStopTimeout   = errors.ErrorCode("sensor_stop_timeout")
)
