// Package metadata stores small key/value records on the client machine.
// It backs the persisted credential (token, user, sessionId).
package metadata

import (
	"context"
)

// Repository is a flat key/value store. Get returns (nil, nil) for a missing
// key. Replace swaps the whole content atomically: after it returns, exactly
// the given keys exist. Delete and Clear are idempotent.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Replace(ctx context.Context, values map[string][]byte) error
	Clear(ctx context.Context) error
}
