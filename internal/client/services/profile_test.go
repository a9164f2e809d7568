package services

import (
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/client/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loggedIn(t *testing.T, fc *fakeClient) (*AuthService, *ProfileService) {
	t.Helper()
	if fc.login == nil {
		fc.login = func(api.LoginRequest) (api.Payload, error) { return loginPayload(42), nil }
	}
	a, _ := newAuth(t, fc)
	_, err := a.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	return a, NewProfileService(fc, a, nil)
}

func TestUpdateUsername_ValidationSkipsNetwork(t *testing.T) {
	for _, name := range []string{"ab", "bad name!", "", strings.Repeat("a", 51)} {
		t.Run(name, func(t *testing.T) {
			fc := &fakeClient{}
			_, p := loggedIn(t, fc)
			before := fc.total()

			_, err := p.UpdateUsername(context.Background(), name)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, "username", ve.Field)
			assert.Equal(t, before, fc.total())
		})
	}
}

func TestUpdateUsername_ValidationMessages(t *testing.T) {
	assert.EqualError(t, ValidateUsername("  "), "Username cannot be empty")
	assert.EqualError(t, ValidateUsername("ab"), "Username must be between 3 and 50 characters")
	assert.EqualError(t, ValidateUsername("bad name!"), "Username can only contain letters, numbers, and underscores")
	assert.NoError(t, ValidateUsername("valid_99"))
}

func TestUpdateUsername_SingleCall(t *testing.T) {
	fc := &fakeClient{updateUsername: func(userID int64, v string) (api.Payload, error) {
		assert.Equal(t, int64(7), userID)
		return api.Payload{"id": 7, "username": v, "email": "alice@example.com", "status": "ACTIVE"}, nil
	}}
	a, p := loggedIn(t, fc)
	before := fc.total()

	pr, err := p.UpdateUsername(context.Background(), "valid_99")
	require.NoError(t, err)
	assert.Equal(t, before+1, fc.total())
	assert.Equal(t, "valid_99", pr.Username)
	assert.Equal(t, TwoFactorInactive, pr.TwoFactorStatus)
	assert.Equal(t, "valid_99", a.Session().Username)
}

func TestUpdateUsername_RefetchesWhenResponseHasNoProfile(t *testing.T) {
	fc := &fakeClient{
		updateUsername: func(int64, string) (api.Payload, error) { return api.Payload{"success": true}, nil },
		me: func(sessionID int64) (api.Payload, error) {
			assert.Equal(t, int64(42), sessionID)
			return api.Payload{"id": 7, "username": "server_name", "email": "alice@example.com", "twoFactorStatus": "ACTIVE"}, nil
		},
	}
	_, p := loggedIn(t, fc)

	pr, err := p.UpdateUsername(context.Background(), "valid_99")
	require.NoError(t, err)
	assert.Equal(t, "server_name", pr.Username, "server is the source of truth")
	assert.Equal(t, 1, fc.count("me"))

	got, ok := p.Profile()
	assert.True(t, ok)
	assert.Equal(t, pr, got)
}

func TestUpdateEmail(t *testing.T) {
	fc := &fakeClient{updateEmail: func(_ int64, v string) (api.Payload, error) {
		return api.Payload{"id": 7, "username": "alice", "email": v}, nil
	}}
	a, p := loggedIn(t, fc)

	_, err := p.UpdateEmail(context.Background(), "not-an-email")
	assert.EqualError(t, err, "Please enter a valid email address")
	assert.Zero(t, fc.count("updateEmail"))

	pr, err := p.UpdateEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", pr.Email)
	assert.Equal(t, "new@example.com", a.Session().Email)
}

func TestUpdatePassword_Validation(t *testing.T) {
	tests := []struct {
		current, next, want string
	}{
		{"", "newpassword", "Current password is required"},
		{"oldpassword", " ", "New password is required"},
		{"oldpassword", "short", "New password must be at least 8 characters long"},
		{"samepassword", "samepassword", "New password must be different from current password"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			fc := &fakeClient{}
			_, p := loggedIn(t, fc)

			err := p.UpdatePassword(context.Background(), tt.current, tt.next)
			assert.EqualError(t, err, tt.want)
			assert.Zero(t, fc.count("updatePassword"))
		})
	}
}

func TestUpdatePassword(t *testing.T) {
	fc := &fakeClient{updatePassword: func(current, next string) error {
		assert.Equal(t, "oldpassword", current)
		assert.Equal(t, "newpassword", next)
		return nil
	}}
	_, p := loggedIn(t, fc)

	require.NoError(t, p.UpdatePassword(context.Background(), "oldpassword", "newpassword"))
	assert.Equal(t, 1, fc.count("updatePassword"))
}

func TestProfile_RequiresAuthentication(t *testing.T) {
	fc := &fakeClient{}
	a, _ := newAuth(t, fc)
	p := NewProfileService(fc, a, nil)
	ctx := context.Background()

	_, err := p.FetchProfile(ctx)
	require.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = p.UpdateUsername(ctx, "valid_99")
	require.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Zero(t, fc.total())
}

func TestUpdateUser_PartialSuccess(t *testing.T) {
	fc := &fakeClient{
		updateUsername: func(_ int64, v string) (api.Payload, error) {
			return api.Payload{"id": 7, "username": v, "email": "alice@example.com"}, nil
		},
		updateEmail: func(int64, string) (api.Payload, error) {
			return nil, &api.ServerError{Status: 409, Message: "Email already in use"}
		},
	}
	_, p := loggedIn(t, fc)

	res, err := p.UpdateUser(context.Background(), "valid_99", "taken@example.com")
	require.NoError(t, err)
	assert.True(t, res.UsernameUpdated)
	assert.False(t, res.EmailUpdated)
	assert.NoError(t, res.UsernameErr)
	assert.EqualError(t, res.EmailErr, "Email already in use")
	assert.True(t, res.Partial())
	assert.Equal(t, "valid_99", res.Profile.Username)
	assert.Error(t, res.Err())
}

func TestUpdateUser_SkipsEmptyFields(t *testing.T) {
	fc := &fakeClient{updateEmail: func(_ int64, v string) (api.Payload, error) {
		return api.Payload{"id": 7, "username": "alice", "email": v}, nil
	}}
	_, p := loggedIn(t, fc)

	res, err := p.UpdateUser(context.Background(), "", "new@example.com")
	require.NoError(t, err)
	assert.False(t, res.UsernameUpdated)
	assert.True(t, res.EmailUpdated)
	assert.Zero(t, fc.count("updateUsername"))
	assert.NoError(t, res.Err())
	assert.False(t, res.Partial())
}

func TestUpdateUser_NothingToUpdate(t *testing.T) {
	fc := &fakeClient{}
	_, p := loggedIn(t, fc)

	_, err := p.UpdateUser(context.Background(), "", "")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestFetchProfile_DefaultsTwoFactorStatus(t *testing.T) {
	fc := &fakeClient{me: func(int64) (api.Payload, error) {
		return api.Payload{"id": "7", "username": "alice", "email": "alice@example.com", "status": "ACTIVE"}, nil
	}}
	a, p := loggedIn(t, fc)

	pr, err := p.FetchProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Profile{ID: 7, Username: "alice", Email: "alice@example.com", Status: "ACTIVE", TwoFactorStatus: TwoFactorInactive}, pr)
	assert.False(t, a.Session().Restored)
}

func TestFetchProfile_MissingFieldsKeepSessionIdentity(t *testing.T) {
	fc := &fakeClient{me: func(int64) (api.Payload, error) {
		return api.Payload{"id": 7, "email": "new@example.com"}, nil
	}}
	a, p := loggedIn(t, fc)

	pr, err := p.FetchProfile(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pr.Username)

	s := a.Session()
	assert.Equal(t, "alice", s.Username)
	assert.Equal(t, "new@example.com", s.Email)
}

func TestProfile_ForgottenAfterLogout(t *testing.T) {
	fc := &fakeClient{me: func(int64) (api.Payload, error) {
		return api.Payload{"id": 7, "username": "alice"}, nil
	}}
	a, p := loggedIn(t, fc)

	_, err := p.FetchProfile(context.Background())
	require.NoError(t, err)
	require.NoError(t, a.Logout(context.Background()))

	_, ok := p.Profile()
	assert.False(t, ok)
}
