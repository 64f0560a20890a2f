package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized is returned by protected calls and websocket handshakes
// that the backend rejected with 401. It ends the session and needs no
// user-facing report.
var ErrUnauthorized = errors.New("unauthorized")

// RequestError is a non-2xx response other than an authorization failure.
// Message carries the server-supplied text when there was one.
type RequestError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// NetworkError is a transport-level failure: the request never produced an
// HTTP response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsUnauthorized reports whether err is (or wraps) ErrUnauthorized.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsNetwork reports whether err is (or wraps) a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// Message returns the text to show a user for err.
func Message(err error) string {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Error()
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return fmt.Sprintf("Network error: %v", ne.Err)
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
