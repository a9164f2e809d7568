// Package storage opens the client's credential store.
//
// The default driver is a local SQLite file (modernc.org/sqlite, no cgo)
// whose schema is managed by goose migrations embedded in the binary.
// The redis driver keeps the same records in a Redis hash so that several
// processes can share one session.
package storage
