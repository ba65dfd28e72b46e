package stream

import "codeberg.org/arlen/sensorctl/internal/errors"

const (
	ErrAlreadyStreaming = errors.ErrorCode("stream_already_active")
	ErrNotStreaming     = errors.ErrorCode("stream_not_active")
	ErrInvalidInterval  = errors.ErrorCode("stream_invalid_interval")
)
