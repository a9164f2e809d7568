package services

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/client/api"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

const TwoFactorInactive = "INACTIVE"

// Profile is the server's view of the user. It is always replaced as a
// whole, never patched field by field.
type Profile struct {
	ID              int64
	Username        string
	Email           string
	Status          string
	TwoFactorStatus string
}

// profileFrom reports ok=false when p carries no user representation.
func profileFrom(p api.Payload) (Profile, bool, error) {
	id, hasID, err := userIDOf(p)
	if err != nil {
		return Profile{}, false, err
	}
	pr := Profile{
		ID:              id,
		Username:        p.String("username"),
		Email:           p.String("email"),
		Status:          p.String("status"),
		TwoFactorStatus: p.String("twoFactorStatus"),
	}
	if !hasID && pr.Username == "" && pr.Email == "" {
		return Profile{}, false, nil
	}
	if pr.TwoFactorStatus == "" {
		pr.TwoFactorStatus = TwoFactorInactive
	}
	return pr, true, nil
}

// UpdateResult reports each half of UpdateUser separately.
type UpdateResult struct {
	UsernameUpdated bool
	EmailUpdated    bool
	UsernameErr     error
	EmailErr        error
	Profile         Profile
}

// Err joins the per-field errors.
func (r UpdateResult) Err() error {
	return errors.Join(r.UsernameErr, r.EmailErr)
}

// Partial is true when one field was updated and the other failed.
func (r UpdateResult) Partial() bool {
	return (r.UsernameUpdated && r.EmailErr != nil) || (r.EmailUpdated && r.UsernameErr != nil)
}

type ProfileService struct {
	client api.Client
	auth   *AuthService
	logger logging.Logger

	mu       sync.Mutex
	profile  *Profile
	inFlight bool
}

func NewProfileService(client api.Client, auth *AuthService, logger logging.Logger) *ProfileService {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &ProfileService{client: client, auth: auth, logger: logger}
	auth.OnExpired(func(context.Context) { s.Reset() })
	return s
}

// Profile returns the last profile received from the server while the
// session is authenticated.
func (s *ProfileService) Profile() (Profile, bool) {
	if !s.auth.IsAuthenticated() {
		return Profile{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return Profile{}, false
	}
	return *s.profile, true
}

// Reset forgets the cached profile.
func (s *ProfileService) Reset() {
	s.mu.Lock()
	s.profile = nil
	s.mu.Unlock()
}

func (s *ProfileService) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return ErrOperationInProgress
	}
	s.inFlight = true
	return nil
}

func (s *ProfileService) end() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

func (s *ProfileService) session() (Session, error) {
	cur := s.auth.Session()
	if !cur.Authenticated() {
		return Session{}, ErrNotAuthenticated
	}
	return cur, nil
}

// FetchProfile loads the profile of the current user.
func (s *ProfileService) FetchProfile(ctx context.Context) (Profile, error) {
	cur, err := s.session()
	if err != nil {
		return Profile{}, err
	}
	if err := s.begin(); err != nil {
		return Profile{}, err
	}
	defer s.end()

	return s.fetch(ctx, cur)
}

func (s *ProfileService) fetch(ctx context.Context, cur Session) (Profile, error) {
	p, err := s.client.Me(ctx, cur.SessionID)
	if err != nil {
		return Profile{}, describe("profile", err, "Failed to load profile")
	}
	pr, ok, err := profileFrom(p)
	if err != nil {
		return Profile{}, describe("profile", err, "Failed to load profile")
	}
	if !ok {
		return Profile{}, describe("profile", api.ErrMalformedResponse, "Failed to load profile")
	}
	if err := s.replace(ctx, pr); err != nil {
		return Profile{}, err
	}
	return pr, nil
}

// replace installs pr and mirrors its identity into the session.
func (s *ProfileService) replace(ctx context.Context, pr Profile) error {
	if err := s.auth.updateIdentity(ctx, pr); err != nil {
		return err
	}
	s.mu.Lock()
	s.profile = &pr
	s.mu.Unlock()
	return nil
}

func (s *ProfileService) userID(cur Session) int64 {
	if pr, ok := s.Profile(); ok && pr.ID != 0 {
		return pr.ID
	}
	return cur.UserID
}

func (s *ProfileService) UpdateUsername(ctx context.Context, username string) (Profile, error) {
	if err := ValidateUsername(username); err != nil {
		return Profile{}, err
	}
	cur, err := s.session()
	if err != nil {
		return Profile{}, err
	}
	if err := s.begin(); err != nil {
		return Profile{}, err
	}
	defer s.end()

	pr, _, err := s.updateUsername(ctx, cur, username)
	return pr, err
}

func (s *ProfileService) UpdateEmail(ctx context.Context, email string) (Profile, error) {
	if err := ValidateEmail(email); err != nil {
		return Profile{}, err
	}
	cur, err := s.session()
	if err != nil {
		return Profile{}, err
	}
	if err := s.begin(); err != nil {
		return Profile{}, err
	}
	defer s.end()

	pr, _, err := s.updateEmail(ctx, cur, email)
	return pr, err
}

// updateUsername reports updated=true once the backend accepted the change,
// even if reloading the profile afterwards failed.
func (s *ProfileService) updateUsername(ctx context.Context, cur Session, username string) (Profile, bool, error) {
	p, err := s.client.UpdateUsername(ctx, s.userID(cur), username)
	if err != nil {
		return Profile{}, false, describe("update-username", err, "Failed to update username")
	}
	s.logger.Info(ctx, "username updated", "user_id", cur.UserID)
	pr, err := s.afterUpdate(ctx, cur, p)
	return pr, true, err
}

func (s *ProfileService) updateEmail(ctx context.Context, cur Session, email string) (Profile, bool, error) {
	p, err := s.client.UpdateEmail(ctx, s.userID(cur), email)
	if err != nil {
		return Profile{}, false, describe("update-email", err, "Failed to update email")
	}
	s.logger.Info(ctx, "email updated", "user_id", cur.UserID)
	pr, err := s.afterUpdate(ctx, cur, p)
	return pr, true, err
}

// afterUpdate installs the profile from an update response, or refetches it
// when the response carries none.
func (s *ProfileService) afterUpdate(ctx context.Context, cur Session, p api.Payload) (Profile, error) {
	pr, ok, err := profileFrom(p)
	if err == nil && ok {
		if err := s.replace(ctx, pr); err != nil {
			return Profile{}, err
		}
		return pr, nil
	}
	s.logger.Debug(ctx, "update response has no profile, refetching")
	return s.fetch(ctx, cur)
}

func (s *ProfileService) UpdatePassword(ctx context.Context, current, next string) error {
	if err := ValidatePasswordChange(current, next); err != nil {
		return err
	}
	if _, err := s.session(); err != nil {
		return err
	}
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	if err := s.client.UpdatePassword(ctx, current, next); err != nil {
		return describe("update-password", err, "Failed to update password")
	}
	s.logger.Info(ctx, "password changed")
	return nil
}

// UpdateUser updates username and email independently; an empty value
// skips that field. The returned error covers preconditions only, per-field
// failures are in the result.
func (s *ProfileService) UpdateUser(ctx context.Context, username, email string) (UpdateResult, error) {
	if username == "" && email == "" {
		return UpdateResult{}, invalid("", "Nothing to update")
	}
	cur, err := s.session()
	if err != nil {
		return UpdateResult{}, err
	}
	if err := s.begin(); err != nil {
		return UpdateResult{}, err
	}
	defer s.end()

	var res UpdateResult
	if username != "" {
		if res.UsernameErr = ValidateUsername(username); res.UsernameErr == nil {
			res.Profile, res.UsernameUpdated, res.UsernameErr = s.updateUsername(ctx, cur, username)
		}
	}
	if email != "" {
		if res.EmailErr = ValidateEmail(email); res.EmailErr == nil {
			// The username update may have expired the session.
			if cur, err = s.session(); err != nil {
				res.EmailErr = err
			} else {
				var pr Profile
				pr, res.EmailUpdated, res.EmailErr = s.updateEmail(ctx, cur, email)
				if res.EmailUpdated && res.EmailErr == nil {
					res.Profile = pr
				}
			}
		}
	}
	if res.Profile == (Profile{}) {
		res.Profile, _ = s.Profile()
	}
	return res, nil
}
