// Package server provides the HTTP API for the idea prioritizer.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrInvalidRequest indicates a malformed request body
type ErrInvalidRequest struct {
	Message string
}

func (e *ErrInvalidRequest) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Message)
}

// ErrRateLimited indicates the client exhausted its allowance
type ErrRateLimited struct {
	RetryAfter time.Duration
}

func (e *ErrRateLimited) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter.Round(time.Second))
}

// ErrBusy indicates the request gave up waiting for the running pipeline
type ErrBusy struct {
	Cause error
}

func (e *ErrBusy) Error() string {
	return fmt.Sprintf("server busy: %v", e.Cause)
}

func (e *ErrBusy) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		invalid *ErrInvalidRequest
		limited *ErrRateLimited
		busy    *ErrBusy
	)
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &limited):
		return http.StatusTooManyRequests
	case errors.As(err, &busy):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
