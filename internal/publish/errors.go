package publish

import "codeberg.org/arlen/sensorctl/internal/errors"

const (
	ErrProducerInit  = errors.ErrorCode("publish_producer_init_failed")
	ErrProducerClose = errors.ErrorCode("publish_producer_close_failed")
	ErrEncodeSample  = errors.ErrorCode("publish_encode_sample_failed")
	ErrPublishFailed = errors.ErrorCode("publish_send_failed")
)
