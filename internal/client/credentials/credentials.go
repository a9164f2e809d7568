// Package credentials persists the subset of the session that must survive
// a restart: the bearer token, the numeric session handle and a minimal user
// identity. All writes go through metadata.Repository.Replace, so the three
// keys always change together.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/gophauth/internal/client/repositories/metadata"
)

// Storage keys.
const (
	KeyToken     = "token"
	KeyUser      = "user"
	KeySessionID = "sessionId"
)

// ErrCorrupted is returned by Load when a stored value cannot be decoded.
var ErrCorrupted = errors.New("persisted credentials corrupted")

// User is the identity mirrored to storage.
type User struct {
	ID               int64  `json:"id,omitempty"`
	Username         string `json:"username,omitempty"`
	Email            string `json:"email,omitempty"`
	Name             string `json:"name,omitempty"`
	TwoFactorPending bool   `json:"twoFactorPending,omitempty"`
}

// Credential is the persisted form of a session. SessionID 0 means the
// backend did not issue a handle.
type Credential struct {
	Token     string
	SessionID int64
	User      *User
}

type Store struct {
	repo metadata.Repository
}

func NewStore(repo metadata.Repository) *Store {
	return &Store{repo: repo}
}

// Save atomically replaces whatever was stored with c.
func (s *Store) Save(ctx context.Context, c Credential) error {
	values := make(map[string][]byte, 3)
	if c.Token != "" {
		values[KeyToken] = []byte(c.Token)
	}
	if c.SessionID != 0 {
		values[KeySessionID] = []byte(strconv.FormatInt(c.SessionID, 10))
	}
	if c.User != nil {
		b, err := json.Marshal(c.User)
		if err != nil {
			return fmt.Errorf("encode user: %w", err)
		}
		values[KeyUser] = b
	}
	if err := s.repo.Replace(ctx, values); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// Load returns the stored credential, or nil when nothing is stored.
func (s *Store) Load(ctx context.Context) (*Credential, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	if len(all) == 0 {
		return nil, nil
	}

	c := &Credential{Token: string(all[KeyToken])}

	if raw, ok := all[KeySessionID]; ok && len(raw) > 0 {
		id, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: sessionId %q", ErrCorrupted, raw)
		}
		c.SessionID = id
	}

	if raw, ok := all[KeyUser]; ok && len(raw) > 0 {
		var u User
		if err := json.Unmarshal(raw, &u); err != nil {
			return nil, fmt.Errorf("%w: user: %v", ErrCorrupted, err)
		}
		c.User = &u
	}

	return c, nil
}

// Token returns the stored bearer token or "" when there is none.
func (s *Store) Token(ctx context.Context) (string, error) {
	b, err := s.repo.Get(ctx, KeyToken)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Clear removes every persisted key. Calling it on an empty store is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
