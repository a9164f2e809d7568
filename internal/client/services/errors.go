package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/client/api"
)

var (
	ErrNotAuthenticated      = errors.New("not authenticated")
	ErrOperationInProgress   = errors.New("another operation is in progress")
	ErrNoSecondFactorPending = errors.New("no second factor verification pending")
	ErrInvalidSessionHandle  = errors.New("invalid session handle")
	ErrMissingSessionHandle  = errors.New("session handle is required")
	ErrSuperseded            = errors.New("session changed while the request was in flight")
	ErrNoToken               = errors.New("no bearer token")
)

// ValidationError is a client-side input check that failed before any
// request was sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// OpError is a failed backend operation reduced to a message fit for the
// user. The underlying error stays reachable through errors.Is/As.
type OpError struct {
	Op      string
	Message string
	Err     error
}

func (e *OpError) Error() string {
	return e.Message
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// describe picks the server's message when there is one, a fixed text for
// transport failures, and fallback otherwise.
func describe(op string, err error, fallback string) error {
	msg, ok := api.ServerMessage(err)
	if !ok {
		switch {
		case errors.Is(err, api.ErrTimeout):
			msg = "Request timed out, please try again"
		case errors.Is(err, api.ErrUnavailable):
			msg = "Cannot reach the server, please check your connection"
		case errors.Is(err, api.ErrMalformedResponse):
			msg = "Unable to parse response from server"
		case errors.Is(err, api.ErrUnauthorized):
			msg = "Session expired, please log in again"
		default:
			msg = fallback
		}
	}
	return &OpError{Op: op, Message: msg, Err: err}
}

func invalidHandle(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidSessionHandle, err)
}
