package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/api"
	"github.com/dmitrijs2005/gophauth/internal/client/credentials"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

// CredentialStore persists the durable subset of a Session.
type CredentialStore interface {
	Save(ctx context.Context, c credentials.Credential) error
	Load(ctx context.Context) (*credentials.Credential, error)
	Clear(ctx context.Context) error
}

// AuthService drives the session state machine:
//
//	Anonymous -> Authenticating -> (AwaitingSecondFactor | Authenticated) -> Anonymous
//
// Mutating flows are serialized by an in-flight flag; a second flow started
// while one is running fails with ErrOperationInProgress. Logout and 401
// handling bypass the flag and bump a generation counter so that a response
// arriving afterwards is discarded instead of resurrecting the session.
type AuthService struct {
	client api.Client
	store  CredentialStore
	logger logging.Logger
	now    func() time.Time

	mu         sync.Mutex
	session    Session
	activation *ActivationData
	inFlight   bool
	generation uint64
	expired    []func(context.Context)
}

// NewAuthService subscribes the service to the client's unauthorized
// notifications.
func NewAuthService(client api.Client, store CredentialStore, logger logging.Logger) *AuthService {
	if logger == nil {
		logger = logging.Discard()
	}
	a := &AuthService{client: client, store: store, logger: logger, now: time.Now}
	client.OnUnauthorized(func(ctx context.Context) { a.HandleUnauthorized(ctx) })
	return a
}

// OnExpired registers fn to run when a 401 drops an existing session.
func (a *AuthService) OnExpired(fn func(context.Context)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.expired = append(a.expired, fn)
}

// Session returns a copy of the current session.
func (a *AuthService) Session() Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

func (a *AuthService) State() State {
	return a.Session().State
}

func (a *AuthService) IsAuthenticated() bool {
	return a.Session().Authenticated()
}

// Activation returns the data from the last successful Activate call.
func (a *AuthService) Activation() (ActivationData, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.activation == nil {
		return ActivationData{}, false
	}
	return *a.activation, true
}

// begin marks a flow as running and returns the generation it started in.
func (a *AuthService) begin() (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inFlight {
		return 0, ErrOperationInProgress
	}
	a.inFlight = true
	return a.generation, nil
}

func (a *AuthService) end() {
	a.mu.Lock()
	a.inFlight = false
	a.mu.Unlock()
}

// commit persists and installs s unless the session was reset while the
// flow was running.
func (a *AuthService) commit(ctx context.Context, gen uint64, s Session) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.generation != gen {
		return ErrSuperseded
	}
	if err := a.store.Save(ctx, s.credential()); err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}
	a.session = s
	return nil
}

// Restore rebuilds the session from persisted credentials without contacting
// the backend. The result is provisional until a request succeeds or a 401
// clears it.
func (a *AuthService) Restore(ctx context.Context) (Session, error) {
	c, err := a.store.Load(ctx)
	if err != nil {
		if errors.Is(err, credentials.ErrCorrupted) {
			a.logger.Warn(ctx, "discarding corrupted credentials", "error", err)
			if cerr := a.store.Clear(ctx); cerr != nil {
				return Session{}, fmt.Errorf("clear corrupted credentials: %w", cerr)
			}
			return Session{}, nil
		}
		return Session{}, fmt.Errorf("load credentials: %w", err)
	}
	if c == nil {
		return Session{}, nil
	}

	s := sessionFromCredential(c)

	a.mu.Lock()
	a.session = s
	a.generation++
	a.mu.Unlock()

	a.logger.Debug(ctx, "session restored", "state", s.State.String(), "user_id", s.UserID)
	return s, nil
}

// Register creates an account. It never changes the session; the payload is
// returned as-is because the backend may either require confirmation or
// return a ready session.
func (a *AuthService) Register(ctx context.Context, req api.RegisterRequest) (api.Payload, error) {
	if req.Username == "" && req.Email == "" {
		return nil, invalid("username", "Username or email is required")
	}
	if req.Username != "" {
		if err := ValidateUsername(req.Username); err != nil {
			return nil, err
		}
	}
	if req.Email != "" {
		if err := ValidateEmail(req.Email); err != nil {
			return nil, err
		}
	}
	if req.Password == "" {
		return nil, invalid("password", "Password is required")
	}

	if _, err := a.begin(); err != nil {
		return nil, err
	}
	defer a.end()

	p, err := a.client.Register(ctx, req)
	if err != nil {
		return nil, describe("register", err, "Registration failed")
	}
	a.logger.Info(ctx, "user registered", "username", req.Username)
	return p, nil
}

// Login checks primary credentials. When the backend asks for a second
// factor the session moves to AwaitingSecondFactor and only the identity is
// persisted; otherwise identity, token and session handle are persisted
// together.
func (a *AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	if err := validateCredentials(username, password); err != nil {
		return LoginResult{}, err
	}

	gen, err := a.begin()
	if err != nil {
		return LoginResult{}, err
	}
	defer a.end()

	a.mu.Lock()
	a.session = Session{State: Authenticating}
	a.activation = nil
	a.mu.Unlock()

	s, err := a.login(ctx, username, password)
	if err != nil {
		a.reset(ctx)
		return LoginResult{}, err
	}

	if err := a.commit(ctx, gen, s); err != nil {
		a.reset(ctx)
		return LoginResult{}, err
	}

	a.logger.Info(ctx, "login succeeded", "user_id", s.UserID, "second_factor", s.TwoFactorPending)
	return LoginResult{Session: s, RequiresSecondFactor: s.TwoFactorPending}, nil
}

func (a *AuthService) login(ctx context.Context, username, password string) (Session, error) {
	p, err := a.client.Login(ctx, api.LoginRequest{Username: username, Password: password})
	if err != nil {
		a.logger.Warn(ctx, "login failed", "username", username, "error", err)
		return Session{}, describe("login", err, "Login failed")
	}

	sid, _, err := p.Int64("sessionId")
	if err != nil {
		return Session{}, invalidHandle(err)
	}
	if sid == 0 {
		a.logger.Warn(ctx, "login response has no session handle")
	}
	userID, _, err := userIDOf(p)
	if err != nil {
		return Session{}, fmt.Errorf("login response: %w", err)
	}

	s := Session{
		State:     Authenticated,
		UserID:    userID,
		Username:  firstNonEmpty(p.String("username"), username),
		Email:     p.String("email"),
		Name:      firstNonEmpty(p.String("name", "username"), username),
		Token:     p.String("jwtToken", "token", "accessToken"),
		SessionID: sid,
	}
	if p.Bool("requiresTwoFactor", "requires2FA") {
		s.State = AwaitingSecondFactor
		s.TwoFactorPending = true
		s.Token = ""
	}
	return s, nil
}

// ValidateSecondFactor completes a login that is waiting for a TOTP or
// backup code. On failure the session stays in AwaitingSecondFactor.
func (a *AuthService) ValidateSecondFactor(ctx context.Context, code string, backup bool) (Session, error) {
	if err := validateCode(code); err != nil {
		return Session{}, err
	}

	gen, err := a.begin()
	if err != nil {
		return Session{}, err
	}
	defer a.end()

	cur := a.Session()
	if cur.State != AwaitingSecondFactor {
		return Session{}, ErrNoSecondFactorPending
	}

	var p api.Payload
	if backup {
		p, err = a.client.ValidateBackup(ctx, cur.UserID, code)
	} else {
		p, err = a.client.ValidateTOTP(ctx, cur.UserID, code)
	}
	if err != nil {
		fallback := "TOTP validation failed"
		if backup {
			fallback = "Backup code validation failed"
		}
		return Session{}, describe("validate", err, fallback)
	}

	next := cur
	next.State = Authenticated
	next.TwoFactorPending = false
	next.Restored = false
	if tok := p.String("token", "jwtToken", "accessToken"); tok != "" {
		next.Token = tok
	}
	sid, _, err := p.Int64("sessionId")
	if err != nil {
		return Session{}, invalidHandle(err)
	}
	if sid != 0 {
		next.SessionID = sid
	}

	if err := a.commit(ctx, gen, next); err != nil {
		return Session{}, err
	}

	a.logger.Info(ctx, "second factor accepted", "user_id", next.UserID, "backup", backup)
	return next, nil
}

// Activate enables two-factor authentication for userID, or for the
// session's user when userID is 0.
func (a *AuthService) Activate(ctx context.Context, userID int64) (ActivationData, error) {
	if userID == 0 {
		userID = a.Session().UserID
	}
	if userID <= 0 {
		return ActivationData{}, invalid("userId", "User ID is required")
	}

	if _, err := a.begin(); err != nil {
		return ActivationData{}, err
	}
	defer a.end()

	p, err := a.client.Activate(ctx, userID)
	if err != nil {
		return ActivationData{}, describe("activate", err, "Activation failed")
	}

	d := ActivationData{
		QRCodeURI:   p.String("qrCodeUri"),
		BackupCodes: p.Strings("backupCodes"),
	}

	a.mu.Lock()
	a.activation = &d
	a.mu.Unlock()
	return d, nil
}

// Disable2FA turns two-factor authentication off for the current user.
func (a *AuthService) Disable2FA(ctx context.Context) error {
	if _, err := a.begin(); err != nil {
		return err
	}
	defer a.end()

	cur := a.Session()
	if !cur.Authenticated() {
		return ErrNotAuthenticated
	}
	if err := a.client.Disable2FA(ctx, cur.UserID); err != nil {
		return describe("disable-2fa", err, "Failed to disable 2FA")
	}

	a.mu.Lock()
	a.activation = nil
	a.mu.Unlock()
	return nil
}

// Logout notifies the backend on a best-effort basis and always clears the
// local session. Remote failures are logged, never returned. Only a failure
// to erase local storage is reported.
func (a *AuthService) Logout(ctx context.Context) error {
	a.mu.Lock()
	cur := a.session
	a.session = Session{}
	a.activation = nil
	a.generation++
	a.mu.Unlock()

	switch {
	case cur.SessionID != 0:
		if err := a.client.Logout(ctx, cur.SessionID); err != nil {
			a.logger.Warn(ctx, "remote logout failed", "error", err)
		}
	case cur.hasIdentity():
		a.logger.Warn(ctx, "logout without session handle, skipping remote call", "error", ErrMissingSessionHandle)
	}

	if err := a.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	if cur.hasIdentity() {
		a.logger.Info(ctx, "logged out", "user_id", cur.UserID)
	}
	return nil
}

// HandleUnauthorized drops the session after the backend rejected the
// token. It reports whether there was a session to drop.
func (a *AuthService) HandleUnauthorized(ctx context.Context) bool {
	a.mu.Lock()
	had := a.session.hasIdentity()
	a.session = Session{}
	a.activation = nil
	a.generation++
	listeners := slices.Clone(a.expired)
	a.mu.Unlock()

	if err := a.store.Clear(ctx); err != nil {
		a.logger.Error(ctx, "cannot clear credentials", "error", err)
	}
	if !had {
		return false
	}

	a.logger.Info(ctx, "session expired")
	for _, fn := range listeners {
		fn(ctx)
	}
	return true
}

// updateIdentity copies the server's profile into the session and storage.
func (a *AuthService) updateIdentity(ctx context.Context, p Profile) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.session.Authenticated() {
		return ErrNotAuthenticated
	}

	s := a.session
	if p.ID != 0 {
		s.UserID = p.ID
	}
	if p.Username != "" {
		s.Username = p.Username
	}
	if p.Email != "" {
		s.Email = p.Email
	}
	s.Restored = false

	if err := a.store.Save(ctx, s.credential()); err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}
	a.session = s
	return nil
}

// TokenInfo reads the claims of the current bearer token without verifying
// its signature. Tokens that are not JWTs have no known expiry.
func (a *AuthService) TokenInfo() (TokenInfo, error) {
	tok := a.Session().Token
	if tok == "" {
		return TokenInfo{}, ErrNoToken
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return TokenInfo{}, fmt.Errorf("parse token: %w", err)
	}

	info := TokenInfo{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
		info.Expired = !a.now().Before(info.ExpiresAt)
	}
	return info, nil
}

// reset returns a failed login to Anonymous.
func (a *AuthService) reset(ctx context.Context) {
	a.mu.Lock()
	if a.session.State == Authenticating {
		a.session = Session{}
	}
	a.mu.Unlock()

	if err := a.store.Clear(ctx); err != nil {
		a.logger.Error(ctx, "cannot clear credentials", "error", err)
	}
}

func userIDOf(p api.Payload) (int64, bool, error) {
	id, ok, err := p.Int64("id")
	if ok || err != nil {
		return id, ok, err
	}
	return p.Int64("userId")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
