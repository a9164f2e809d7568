package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable       = errors.New("server unavailable")
	ErrTimeout           = errors.New("request timed out")
	ErrMalformedResponse = errors.New("unable to parse response from server")
	ErrUnauthorized      = errors.New("unauthorized")
)

// ServerError is a response the backend produced but marked as failed,
// either with a non-2xx status or with a failure envelope code.
type ServerError struct {
	Status  int
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return fmt.Sprintf("server error: code %s", e.Code)
	}
	return fmt.Sprintf("server error: %d %s", e.Status, http.StatusText(e.Status))
}

func (e *ServerError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// ServerMessage returns the message the backend attached to err, if err is
// (or wraps) a *ServerError carrying one.
func ServerMessage(err error) (string, bool) {
	var se *ServerError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message, true
	}
	return "", false
}
