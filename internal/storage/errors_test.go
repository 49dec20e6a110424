package storage

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	err := NewError(BackendFault, "get", "t1", "hello", io.ErrUnexpectedEOF)

	assert.True(t, errors.Is(err, ErrBackendFault))
	assert.False(t, errors.Is(err, ErrInvalidArgument))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	wrapped := fmt.Errorf("loading table: %w", err)
	assert.True(t, IsBackendFault(wrapped))
	assert.False(t, IsInvalidArgument(wrapped))

	var target *Error
	assert.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "t1", target.Table)
}

func TestError_Error(t *testing.T) {
	err := NewError(InvalidArgument, "set", "", "k", errors.New("table name is empty"))

	assert.EqualError(t, err, `INVALID_ARGUMENT set key="k": table name is empty`)
	assert.EqualError(t, ErrBackendFault, "BACKEND_FAULT")
}

func TestFaultf(t *testing.T) {
	err := Faultf("decode", "bad length %d", 3)

	assert.True(t, IsBackendFault(err))
	assert.EqualError(t, err, "BACKEND_FAULT decode: bad length 3")
}
