package api

import (
	"errors"
	"fmt"
)

// ApiError is a request the server rejected. Message is the server-supplied
// error string when the response carried one, else a generic fallback.
type ApiError struct {
	Status  int
	Message string
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
}

// NetworkError is a request that got no response at all (DNS failure,
// refused connection, timeout). Retry policy belongs to the caller.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UserMessage converts any error from this package into text fit for a
// toast. Server-rejections surface their message; transport failures get
// the fixed retry prompt.
func UserMessage(err error, fallback string) string {
	var apiErr *ApiError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return "Network error. Please try again."
	}
	return fallback
}
