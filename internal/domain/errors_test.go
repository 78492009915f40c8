package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError(t *testing.T) {
	err := NewAPIError("/blocks/b1", 404, `{"code":"object_not_found"}`, nil)

	assert.Contains(t, err.Error(), "/blocks/b1")
	assert.Contains(t, err.Error(), "404")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsRetryable(err))
}

func TestAPIError_Wrapped(t *testing.T) {
	inner := NewAPIError("/pages/p1", 503, "", nil)
	wrapped := fmt.Errorf("mark page: %w", inner)

	assert.True(t, IsRetryable(wrapped))
	assert.False(t, IsNotFound(wrapped))
}

func TestProcessError_Unwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := NewProcessError("http://x/a.png", "download", inner)

	assert.Contains(t, err.Error(), "download")
	assert.Contains(t, err.Error(), "http://x/a.png")
	assert.True(t, errors.Is(err, inner))
}

func TestPageSyncError_Unwrap(t *testing.T) {
	inner := NewAPIError("/blocks/p1/children", 500, "boom", nil)
	err := NewPageSyncError("p1", "fetching", inner)

	assert.Contains(t, err.Error(), "p1")
	assert.Contains(t, err.Error(), "fetching")

	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestIsRetryable_StatusCodes(t *testing.T) {
	for _, code := range []int{429, 502, 503, 504} {
		assert.True(t, IsRetryable(NewAPIError("/x", code, "", nil)), "status %d", code)
	}
	for _, code := range []int{400, 401, 403, 404, 500} {
		assert.False(t, IsRetryable(NewAPIError("/x", code, "", nil)), "status %d", code)
	}
	assert.False(t, IsRetryable(errors.New("plain")))
}
