package backend

import (
	"errors"
	"fmt"
)

// RequestError is the single failure kind surfaced for a backend call that
// did not succeed: non-2xx responses and transport failures alike. Message
// is the backend's "detail" text when one was sent.
type RequestError struct {
	Status  int    // HTTP status, 0 when no response was received
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// DecodeError reports a 2xx response whose body did not match the schema
// expected for the endpoint.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s response: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is a 401 from the backend
func IsUnauthorized(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.Status == 401
}
