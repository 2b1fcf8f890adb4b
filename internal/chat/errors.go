package chat

import "fmt"

// ErrorCode discriminates the failure classes the boundary layer maps to
// HTTP statuses. The service never decides transport-level codes itself.
type ErrorCode string

const (
	// ErrorBackendUnavailable means the inference server could not be
	// reached (connectivity or timeout).
	ErrorBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
	// ErrorBackendFailure covers every other backend failure: HTTP error
	// statuses and malformed response bodies.
	ErrorBackendFailure ErrorCode = "BACKEND_FAILURE"
)

// Error is the typed failure returned by Service.Process.
type Error struct {
	Code ErrorCode
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("chat: %s", e.Code)
	}
	return fmt.Sprintf("chat: %s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, err error) *Error {
	return &Error{Code: code, Err: err}
}
