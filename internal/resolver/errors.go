package resolver

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPointer       = errors.New("invalid component pointer")
	ErrComponentNotFound    = errors.New("component not found")
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrFetch                = errors.New("fetch failed")
	ErrParse                = errors.New("unparsable content")
	ErrReferenceCycle       = errors.New("reference cycle")
	ErrRemoteDisabled       = errors.New("remote references are disabled")
)

// Error describes a reference that could not be resolved. Err wraps one of the
// sentinel errors above, usually together with the underlying cause.
type Error struct {
	Token  string
	Kind   Kind
	Source string
	Err    error
}

func (e *Error) Error() string {
	if e.Source != "" && e.Source != e.Token {
		return fmt.Sprintf("resolving %s reference %q (%s): %v", e.Kind, e.Token, e.Source, e.Err)
	}
	return fmt.Sprintf("resolving %s reference %q: %v", e.Kind, e.Token, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(token string, kind Kind, source string, sentinel error, cause error) *Error {
	err := sentinel
	if cause != nil {
		err = fmt.Errorf("%w: %w", sentinel, cause)
	}
	return &Error{Token: token, Kind: kind, Source: source, Err: err}
}
