package client

import "fmt"

// RequestError is a non-success status or transport failure from an upstream
// call. Surfaced to the user as a blocking message; never retried.
type RequestError struct {
	Op      string // upstream operation, e.g. "predict"
	Status  int    // HTTP status, 0 on transport failure
	Message string // upstream error message when the body carried one
	Err     error  // transport error, nil on HTTP-level failures
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: upstream error (status %d): %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: upstream error (status %d)", e.Op, e.Status)
}

func (e *RequestError) Unwrap() error { return e.Err }
