// Package services holds the client-side session state machine and the
// profile operations built on top of it.
//
// AuthService owns the single Session value for the process. It is the only
// writer of persisted credentials apart from the HTTP client's 401 handler,
// and both treat clearing as idempotent. ProfileService reads the session
// through AuthService and never keeps its own copy of the identity.
package services
