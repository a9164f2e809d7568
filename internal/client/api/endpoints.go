package api

import "context"

const (
	PathRegister       = "/api/users/register"
	PathLogin          = "/api/users/login"
	PathActivate       = "/api/users/activate"
	PathValidateTOTP   = "/api/users/validate/totp"
	PathValidateBackup = "/api/users/validate/backup"
	PathMe             = "/api/users/me"
	PathUpdateUsername = "/api/users/updateUsername"
	PathUpdateEmail    = "/api/users/updateEmail"
	PathUpdatePassword = "/api/users/updatePassword"
	PathDisable2FA     = "/api/users/disable-2fa"
	PathLogout         = "/api/users/logout"
)

type RegisterRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userRequest struct {
	UserID int64 `json:"userId"`
}

type otpRequest struct {
	UserID  int64  `json:"userId"`
	OTPCode string `json:"otpCode"`
}

type sessionRequest struct {
	SessionID int64 `json:"sessionId"`
}

type updateUsernameRequest struct {
	UserID      int64  `json:"userId"`
	NewUsername string `json:"newUsername"`
}

type updateEmailRequest struct {
	UserID   int64  `json:"userId"`
	NewEmail string `json:"newEmail"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Client is the set of backend operations the services depend on.
type Client interface {
	Register(ctx context.Context, req RegisterRequest) (Payload, error)
	Login(ctx context.Context, req LoginRequest) (Payload, error)
	Activate(ctx context.Context, userID int64) (Payload, error)
	ValidateTOTP(ctx context.Context, userID int64, code string) (Payload, error)
	ValidateBackup(ctx context.Context, userID int64, code string) (Payload, error)
	Me(ctx context.Context, sessionID int64) (Payload, error)
	UpdateUsername(ctx context.Context, userID int64, username string) (Payload, error)
	UpdateEmail(ctx context.Context, userID int64, email string) (Payload, error)
	UpdatePassword(ctx context.Context, current, next string) error
	Disable2FA(ctx context.Context, userID int64) error
	Logout(ctx context.Context, sessionID int64) error
	OnUnauthorized(fn UnauthorizedFunc)
}

var _ Client = (*HTTPClient)(nil)

func (c *HTTPClient) Register(ctx context.Context, req RegisterRequest) (Payload, error) {
	return c.PostLenient(ctx, PathRegister, req)
}

func (c *HTTPClient) Login(ctx context.Context, req LoginRequest) (Payload, error) {
	return c.Post(ctx, PathLogin, req)
}

func (c *HTTPClient) Activate(ctx context.Context, userID int64) (Payload, error) {
	return c.Post(ctx, PathActivate, userRequest{UserID: userID})
}

func (c *HTTPClient) ValidateTOTP(ctx context.Context, userID int64, code string) (Payload, error) {
	return c.PostLenient(ctx, PathValidateTOTP, otpRequest{UserID: userID, OTPCode: code})
}

func (c *HTTPClient) ValidateBackup(ctx context.Context, userID int64, code string) (Payload, error) {
	return c.PostLenient(ctx, PathValidateBackup, otpRequest{UserID: userID, OTPCode: code})
}

// Me fetches the profile. A zero sessionID sends an empty body.
func (c *HTTPClient) Me(ctx context.Context, sessionID int64) (Payload, error) {
	var body any = struct{}{}
	if sessionID != 0 {
		body = sessionRequest{SessionID: sessionID}
	}
	return c.Post(ctx, PathMe, body)
}

func (c *HTTPClient) UpdateUsername(ctx context.Context, userID int64, username string) (Payload, error) {
	return c.PostLenient(ctx, PathUpdateUsername, updateUsernameRequest{UserID: userID, NewUsername: username})
}

func (c *HTTPClient) UpdateEmail(ctx context.Context, userID int64, email string) (Payload, error) {
	return c.PostLenient(ctx, PathUpdateEmail, updateEmailRequest{UserID: userID, NewEmail: email})
}

func (c *HTTPClient) UpdatePassword(ctx context.Context, current, next string) error {
	return c.Exec(ctx, PathUpdatePassword, updatePasswordRequest{CurrentPassword: current, NewPassword: next})
}

func (c *HTTPClient) Disable2FA(ctx context.Context, userID int64) error {
	return c.Exec(ctx, PathDisable2FA, userRequest{UserID: userID})
}

func (c *HTTPClient) Logout(ctx context.Context, sessionID int64) error {
	return c.Exec(ctx, PathLogout, sessionRequest{SessionID: sessionID})
}
