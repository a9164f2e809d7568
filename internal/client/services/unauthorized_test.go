package services_test

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/client/api"
	"github.com/dmitrijs2005/gophauth/internal/client/api/apitest"
	"github.com/dmitrijs2005/gophauth/internal/client/credentials"
	"github.com/dmitrijs2005/gophauth/internal/client/guard"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func TestFetchProfile_UnauthorizedClearsCredentials(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE metadata (key TEXT PRIMARY KEY, value BLOB NOT NULL);`)
	require.NoError(t, err)

	repo := metadata.NewSQLiteRepository(db)
	store := credentials.NewStore(repo)

	srv := apitest.New(t)
	srv.Handle(api.PathLogin, apitest.Reply{
		Body: apitest.Envelope("200", "ok", map[string]any{"jwtToken": "tok", "sessionId": "42", "id": 7, "username": "alice"}),
	})
	srv.Handle(api.PathMe, apitest.Reply{
		Status: http.StatusUnauthorized,
		Body:   apitest.Envelope("401", "Token expired", nil),
	})

	client := api.NewHTTPClient(srv.URL, store)
	auth := services.NewAuthService(client, store, nil)
	profile := services.NewProfileService(client, auth, nil)
	ctx := context.Background()

	_, err = auth.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, guard.Proceed, guard.Check(guard.RouteProfile, auth.State()))

	_, err = profile.FetchProfile(ctx)
	require.ErrorIs(t, err, api.ErrUnauthorized)
	assert.EqualError(t, err, "Token expired")

	me := srv.Calls(api.PathMe)
	require.Len(t, me, 1)
	assert.Equal(t, "Bearer tok", me[0].Authorization)
	assert.EqualValues(t, 42, me[0].Body["sessionId"])

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "all persisted keys are removed")

	assert.Equal(t, services.Anonymous, auth.State())
	assert.Equal(t, guard.RedirectToLogin, guard.Check(guard.RouteProfile, auth.State()))
}
