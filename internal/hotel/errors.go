package hotel

import "errors"

// Error kinds. Test with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrUpstream     = errors.New("upstream failure")

	ErrBookmarkExists = errors.New("bookmark already exists")
)

// Error is a classified failure. Message is safe to return to API clients;
// Err is the underlying cause and is only meant for logs.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func invalidInput(msg string) error { return &Error{Kind: ErrInvalidInput, Message: msg} }

func notFound(msg string) error { return &Error{Kind: ErrNotFound, Message: msg} }

func upstreamFailure(msg string, err error) error {
	return &Error{Kind: ErrUpstream, Message: msg, Err: err}
}
