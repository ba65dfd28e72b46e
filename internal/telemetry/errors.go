package telemetry

import "codeberg.org/arlen/sensorctl/internal/errors"

const (
	// Configuration errors
	ErrInvalidConfig = errors.ErrorCode("telemetry_invalid_config")
	ErrInvalidDBPath = errors.ErrorCode("telemetry_invalid_db_path")

	// Storage errors
	ErrStorageAccess = errors.ErrorCode("telemetry_storage_access_failed")
	ErrStorageInit   = errors.ErrorCode("telemetry_storage_init_failed")
	ErrStorageClose  = errors.ErrorCode("telemetry_storage_close_failed")

	// Session file errors
	ErrSessionFileInit   = errors.ErrorCode("telemetry_session_file_init_failed")
	ErrSessionFileWrite  = errors.ErrorCode("telemetry_session_file_write_failed")
	ErrSessionFileClose  = errors.ErrorCode("telemetry_session_file_close_failed")
	ErrSessionFileClosed = errors.ErrorCode("telemetry_session_file_already_closed")

	// Operation errors
	ErrInvalidSample    = errors.ErrorCode("telemetry_invalid_sample")
	ErrOperationTimeout = errors.ErrorCode("telemetry_operation_timeout")
)
