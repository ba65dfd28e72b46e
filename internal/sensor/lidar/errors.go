package lidar

import "codeberg.org/arlen/sensorctl/internal/errors"

const (
	ErrDetectionActive   = errors.ErrorCode("lidar_detection_already_active")
	ErrDetectionInactive = errors.ErrorCode("lidar_detection_not_active")
)
