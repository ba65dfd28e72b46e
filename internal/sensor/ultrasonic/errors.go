package ultrasonic

import "codeberg.org/arlen/sensorctl/internal/errors"

const (
	ErrDetectionActive   = errors.ErrorCode("ultrasonic_detection_already_active")
	ErrDetectionInactive = errors.ErrorCode("ultrasonic_detection_not_active")
	ErrInvalidChannel    = errors.ErrorCode("ultrasonic_invalid_channel")
	ErrInvalidThreshold  = errors.ErrorCode("ultrasonic_invalid_threshold")
	ErrInvalidConfidence = errors.ErrorCode("ultrasonic_invalid_confidence")
)
