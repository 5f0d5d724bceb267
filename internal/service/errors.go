package service

import (
	"errors"
	"fmt"
)

// Sentinel classifications for fetch failures. Concrete error types below
// match these via errors.Is so callers can branch on the class without
// caring about the specifics.
var (
	// ErrTransient marks failures that exhausted retries and may succeed
	// on a later run.
	ErrTransient = errors.New("transient failure")

	// ErrRejected marks non-retryable client errors; repeating the same
	// request will not succeed.
	ErrRejected = errors.New("request rejected")
)

// RequestRejectedError is returned for 4xx responses other than 429.
type RequestRejectedError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *RequestRejectedError) Error() string {
	return fmt.Sprintf("request rejected (HTTP %d): %s", e.StatusCode, e.URL)
}

func (e *RequestRejectedError) Is(target error) bool { return target == ErrRejected }

// TransientError is returned when the retry budget is exhausted on server
// errors, timeouts or connection failures.
type TransientError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %s: %v", e.Attempts, e.URL, e.Err)
}

func (e *TransientError) Unwrap() error        { return e.Err }
func (e *TransientError) Is(target error) bool { return target == ErrTransient }

// ParseError is returned when a response body cannot be decoded. It
// classifies as transient (the next run may see a well-formed body) but is
// not retried within the same request.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse response from %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error        { return e.Err }
func (e *ParseError) Is(target error) bool { return target == ErrTransient }
