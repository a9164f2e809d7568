// Package api is the HTTP side of the GophAuth client.
//
// # Overview
//
//  1. Normalize turns a raw JSON body into a Payload by trying an ordered
//     list of envelope shapes (see shapes in normalize.go).
//  2. HTTPClient sends JSON requests to the backend. It attaches the bearer
//     token held by its CredentialStore, tags every request with an
//     X-Request-ID, bounds every round-trip with a timeout, and on a 401
//     clears the store and notifies the handlers registered with
//     OnUnauthorized before returning the error.
//  3. The Client interface lists the typed endpoint calls used by the
//     services package.
//
// # Error Handling
//
// Transport failures map to ErrUnavailable, expired deadlines to ErrTimeout,
// unparseable bodies to ErrMalformedResponse, and any response the server
// marks as failed to *ServerError. A *ServerError with status 401 matches
// ErrUnauthorized under errors.Is.
package api
