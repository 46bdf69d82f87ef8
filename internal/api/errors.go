package api

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrUnauthenticated means no usable local token was held for an
	// operation that requires one. The request was never sent.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrNotFound maps HTTP 404 responses.
	ErrNotFound = errors.New("not found")
)

// AuthError means the server rejected the request's credentials or
// authorization (HTTP 401/403).
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("authorization failed (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("authorization failed (%d)", e.Status)
}

// RequestError is any other non-2xx response. The server processed the
// request, so its state is known.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed (%d): %s", e.Status, e.Message)
}

// NetworkError is a transport-level failure or timeout. Unlike
// RequestError the server's state is unknown: a mutation may or may not
// have applied, which is why nothing in this package retries
// automatically.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
