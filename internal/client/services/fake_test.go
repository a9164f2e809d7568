package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/client/api"
	"github.com/dmitrijs2005/gophauth/internal/client/credentials"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/metadata"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// fakeClient is an api.Client whose behaviour is set per test. Unset hooks
// return an empty payload.
type fakeClient struct {
	mu    sync.Mutex
	calls []string

	register       func(api.RegisterRequest) (api.Payload, error)
	login          func(api.LoginRequest) (api.Payload, error)
	activate       func(int64) (api.Payload, error)
	validate       func(userID int64, code string, backup bool) (api.Payload, error)
	me             func(sessionID int64) (api.Payload, error)
	updateUsername func(userID int64, v string) (api.Payload, error)
	updateEmail    func(userID int64, v string) (api.Payload, error)
	updatePassword func(current, next string) error
	disable2FA     func(int64) error
	logout         func(sessionID int64) error

	handlers []api.UnauthorizedFunc
}

func (f *fakeClient) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeClient) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeClient) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeClient) Register(_ context.Context, req api.RegisterRequest) (api.Payload, error) {
	f.record("register")
	if f.register == nil {
		return api.Payload{}, nil
	}
	return f.register(req)
}

func (f *fakeClient) Login(_ context.Context, req api.LoginRequest) (api.Payload, error) {
	f.record("login")
	if f.login == nil {
		return api.Payload{}, nil
	}
	return f.login(req)
}

func (f *fakeClient) Activate(_ context.Context, userID int64) (api.Payload, error) {
	f.record("activate")
	if f.activate == nil {
		return api.Payload{}, nil
	}
	return f.activate(userID)
}

func (f *fakeClient) ValidateTOTP(_ context.Context, userID int64, code string) (api.Payload, error) {
	f.record("totp")
	if f.validate == nil {
		return api.Payload{}, nil
	}
	return f.validate(userID, code, false)
}

func (f *fakeClient) ValidateBackup(_ context.Context, userID int64, code string) (api.Payload, error) {
	f.record("backup")
	if f.validate == nil {
		return api.Payload{}, nil
	}
	return f.validate(userID, code, true)
}

func (f *fakeClient) Me(_ context.Context, sessionID int64) (api.Payload, error) {
	f.record("me")
	if f.me == nil {
		return api.Payload{}, nil
	}
	return f.me(sessionID)
}

func (f *fakeClient) UpdateUsername(_ context.Context, userID int64, v string) (api.Payload, error) {
	f.record("updateUsername")
	if f.updateUsername == nil {
		return api.Payload{}, nil
	}
	return f.updateUsername(userID, v)
}

func (f *fakeClient) UpdateEmail(_ context.Context, userID int64, v string) (api.Payload, error) {
	f.record("updateEmail")
	if f.updateEmail == nil {
		return api.Payload{}, nil
	}
	return f.updateEmail(userID, v)
}

func (f *fakeClient) UpdatePassword(_ context.Context, current, next string) error {
	f.record("updatePassword")
	if f.updatePassword == nil {
		return nil
	}
	return f.updatePassword(current, next)
}

func (f *fakeClient) Disable2FA(_ context.Context, userID int64) error {
	f.record("disable2fa")
	if f.disable2FA == nil {
		return nil
	}
	return f.disable2FA(userID)
}

func (f *fakeClient) Logout(_ context.Context, sessionID int64) error {
	f.record("logout")
	if f.logout == nil {
		return nil
	}
	return f.logout(sessionID)
}

func (f *fakeClient) OnUnauthorized(fn api.UnauthorizedFunc) {
	f.handlers = append(f.handlers, fn)
}

// unauthorized simulates the HTTP client's 401 path.
func (f *fakeClient) unauthorized(ctx context.Context, store *credentials.Store) error {
	_ = store.Clear(ctx)
	for _, fn := range f.handlers {
		fn(ctx)
	}
	return &api.ServerError{Status: 401, Message: "Token expired"}
}

func newCredentialStore(t *testing.T) (*credentials.Store, metadata.Repository) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE metadata (key TEXT PRIMARY KEY, value BLOB NOT NULL);`)
	require.NoError(t, err)

	repo := metadata.NewSQLiteRepository(db)
	return credentials.NewStore(repo), repo
}

func loginPayload(sessionID any) api.Payload {
	return api.Payload{
		"jwtToken":  "jwt-token",
		"sessionId": sessionID,
		"id":        "7",
		"username":  "alice",
		"email":     "alice@example.com",
	}
}
