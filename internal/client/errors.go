package client

import (
	"errors"
	"fmt"
)

// ErrBadCredentials is returned by Authenticate when the API answers
// without issuing a token.
var ErrBadCredentials = errors.New("bad credentials")

// TransportError is a request that never produced an HTTP response:
// DNS failure, refused or reset connection, timeout or cancellation.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError is a response body that could not be decoded as expected.
type DecodeError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding response (status %d): %v; body: %s", e.StatusCode, e.Err, e.Body)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// AuthStatusError is a non-200 answer from POST /auth.
type AuthStatusError struct {
	StatusCode int
}

func (e *AuthStatusError) Error() string {
	return fmt.Sprintf("authentication returned status %d", e.StatusCode)
}
