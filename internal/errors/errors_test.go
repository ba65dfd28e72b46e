package errors_test

import (
	"fmt"
	"testing"

	"codeberg.org/arlen/sensorctl/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryNew(t *testing.T) {
	errFactory := errors.New()

	err := errFactory.New(errors.ErrInternal)
	require.Error(t, err)
	assert.Equal(t, errors.ErrInternal, err.Code())
	assert.NotEmpty(t, err.Error())
}

func TestFactoryWrapPreservesCause(t *testing.T) {
	errFactory := errors.New()
	cause := fmt.Errorf("disk full")

	err := errFactory.Wrap(errors.ErrOperationFailed, cause)
	assert.Equal(t, errors.ErrOperationFailed, err.Code())
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}

func TestWithMessageAndData(t *testing.T) {
	errFactory := errors.New()

	err := errFactory.WithMessage(errors.ErrInvalidArgument, "rate out of range")
	assert.Contains(t, err.Error(), "rate out of range")

	err = errFactory.WithData(errors.ErrInvalidArgument, 42)
	assert.Equal(t, 42, err.GetData())
}

func TestCodeOf(t *testing.T) {
	errFactory := errors.New()

	err := errFactory.New(errors.ErrTimeout)
	assert.Equal(t, errors.ErrTimeout, errors.CodeOf(err))

	wrapped := fmt.Errorf("context: %w", err)
	assert.Equal(t, errors.ErrTimeout, errors.CodeOf(wrapped))

	assert.Equal(t, errors.ErrorCode(""), errors.CodeOf(fmt.Errorf("plain")))
	assert.Equal(t, errors.ErrorCode(""), errors.CodeOf(nil))
}

func TestGetErrorMessageFallback(t *testing.T) {
	assert.NotEmpty(t, errors.GetErrorMessage(errors.ErrInternal))
	assert.NotEmpty(t, errors.GetErrorMessage(errors.ErrorCode("sensor_made_up_code")))
}
