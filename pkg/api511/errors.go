package api511

import (
	"context"
	"errors"
	"fmt"
)

// TransportError is a request that never produced an HTTP response.
type TransportError struct {
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("request timed out: %s", e.Err)
	}

	return fmt.Sprintf("connection failed: %s", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type RateLimitedError struct {
	Body string
}

func (e *RateLimitedError) Error() string {
	return "rate limited/HTTP error 429"
}

// UnauthorizedError is returned for HTTP 401. Retrying will not help until the API key is fixed.
type UnauthorizedError struct {
	Body string
}

func (e *UnauthorizedError) Error() string {
	return "unauthorized/HTTP error 401"
}

type UpstreamError struct {
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("HTTP error %d", e.StatusCode)
}

// MalformedResponseError is a payload that does not have the shape the feed guarantees.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response: %s: %s", e.Reason, e.Err)
	}

	return fmt.Sprintf("malformed response: %s", e.Reason)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// UpstreamReportedError carries the message of a legacy transitServiceError document.
type UpstreamReportedError struct {
	Message string
}

func (e *UpstreamReportedError) Error() string {
	return fmt.Sprintf("transit service error: %s", e.Message)
}

// Retryable reports whether the polling loop may try the request again later.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	var unauthorized *UnauthorizedError
	if errors.As(err, &unauthorized) {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	return true
}

func IsUnauthorized(err error) bool {
	var unauthorized *UnauthorizedError
	return errors.As(err, &unauthorized)
}
