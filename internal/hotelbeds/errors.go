package hotelbeds

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an upstream failure.
type ErrorKind int

const (
	// KindTransport covers network, DNS and timeout failures.
	KindTransport ErrorKind = iota + 1
	// KindStatus is a non-2xx response.
	KindStatus
	// KindParse is a malformed payload or a missing expected field.
	KindParse
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Error is returned by every Client operation that fails.
type Error struct {
	Op         string
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("hotelbeds %s: upstream returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("hotelbeds %s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// retryable reports whether another attempt could succeed.
func (e *Error) retryable() bool {
	switch e.Kind {
	case KindTransport:
		return true
	case KindStatus:
		return e.StatusCode == 429 || e.StatusCode >= 500
	default:
		return false
	}
}

// AsError extracts the *Error from err, or returns nil.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
