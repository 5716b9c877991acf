package mpvremote

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a failed call to the remote server.
//
// StatusCode is zero when no HTTP response was received (network
// failure, cancelled context) or when the failure happened while
// decoding a successful response.
type Error struct {
	Op         string // Endpoint that failed: status, command, upload, ...
	StatusCode int    // HTTP status code, 0 if none was received
	Err        error  // Underlying cause, if any
}

// Error returns the error message.
func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("mpvremote: %s: HTTP %d: %v", e.Op, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("mpvremote: %s: HTTP %d", e.Op, e.StatusCode)
	default:
		return fmt.Sprintf("mpvremote: %s: %v", e.Op, e.Err)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error.
//
// ErrUnauthorized matches any 401 response, so callers can write
// errors.Is(err, ErrUnauthorized) regardless of the endpoint.
func (e *Error) Is(target error) bool {
	if target == ErrUnauthorized {
		return e.Unauthorized()
	}
	return false
}

// Unauthorized returns true if the server rejected the session.
func (e *Error) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// Kind classifies the error by HTTP status class.
func (e *Error) Kind() Kind {
	if e.Unauthorized() {
		return KindUnauthorized
	}
	return KindOther
}

// Kind is the HTTP status class of a failed call.
type Kind int

const (
	KindOther Kind = iota
	KindUnauthorized
)

// String returns a human-readable representation of the Kind
func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "other"
	}
}

// KindOf returns the Kind of err, or KindOther if err is not an *Error.
func KindOf(err error) Kind {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Kind()
	}
	return KindOther
}

// Predefined errors for common cases.
var (
	// ErrUnauthorized matches any call the server answered with 401.
	ErrUnauthorized = errors.New("mpvremote: unauthorized")

	// ErrNoServer is returned when no base URL has been configured.
	ErrNoServer = errors.New("mpvremote: server URL required")

	// ErrUnsafeSource is returned by ValidateSource for sources that
	// would change the meaning of an open command.
	ErrUnsafeSource = errors.New("mpvremote: source contains quote or line break")

	// ErrBlankSource is returned by ValidateSource for empty sources.
	ErrBlankSource = errors.New("mpvremote: source is empty")

	// ErrMalformed is wrapped when a 200 response body cannot be decoded.
	ErrMalformed = errors.New("mpvremote: malformed response")
)
