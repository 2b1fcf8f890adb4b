package ollama

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed call against the Ollama API.
type ErrorKind int

const (
	// KindUnavailable covers connection failures and timeouts: the server
	// could not be reached at all.
	KindUnavailable ErrorKind = iota
	// KindHTTPStatus means the server answered with a non-2xx status.
	KindHTTPStatus
	// KindMalformed means the server answered 2xx but the body did not
	// match the documented shape.
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindHTTPStatus:
		return "http_status"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by the client. Callers branch on
// Kind rather than parsing messages.
type Error struct {
	Kind   ErrorKind
	Status int // HTTP status when Kind == KindHTTPStatus
	Op     string
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("ollama: %s: http status %d", e.Op, e.Status)
	case KindUnavailable:
		if e.Err != nil {
			return fmt.Sprintf("ollama: %s: server unreachable: %v", e.Op, e.Err)
		}
		return fmt.Sprintf("ollama: %s: server unreachable", e.Op)
	default:
		if e.Err != nil {
			return fmt.Sprintf("ollama: %s: unexpected response shape: %v", e.Op, e.Err)
		}
		return fmt.Sprintf("ollama: %s: unexpected response shape", e.Op)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err means the Ollama server could not be
// reached (as opposed to reached-but-failed).
func IsUnavailable(err error) bool {
	var oe *Error
	return errors.As(err, &oe) && oe.Kind == KindUnavailable
}
