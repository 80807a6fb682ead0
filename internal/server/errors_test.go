package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrInvalidRequest(t *testing.T) {
	err := &ErrInvalidRequest{Message: "request body is empty"}
	assert.Equal(t, "invalid request: request body is empty", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestErrRateLimited(t *testing.T) {
	err := &ErrRateLimited{RetryAfter: 90 * time.Second}
	assert.Equal(t, "rate limit exceeded, retry after 1m30s", err.Error())
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatus(err))
}

func TestErrBusy(t *testing.T) {
	err := &ErrBusy{Cause: context.Canceled}
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(err))
}

func TestHTTPStatus_WrappedAndDefault(t *testing.T) {
	wrapped := fmt.Errorf("decode: %w", &ErrInvalidRequest{Message: "x"})
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(wrapped))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}
