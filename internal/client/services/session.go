package services

import (
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/credentials"
)

// State is the position of the session in the login flow.
type State int

const (
	Anonymous State = iota
	Authenticating
	AwaitingSecondFactor
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case AwaitingSecondFactor:
		return "awaiting-second-factor"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Session is a snapshot of the current identity. SessionID 0 means no
// handle was issued.
type Session struct {
	State            State
	UserID           int64
	Username         string
	Email            string
	Name             string
	Token            string
	SessionID        int64
	TwoFactorPending bool
	// Restored is set when the session was rebuilt from storage and has not
	// yet been confirmed by a server round-trip.
	Restored bool
}

// Authenticated reports whether protected operations are allowed.
func (s Session) Authenticated() bool {
	return s.State == Authenticated
}

func (s Session) hasIdentity() bool {
	return s.UserID != 0 || s.Username != "" || s.Email != "" || s.Token != ""
}

// credential is the persisted form of s. A session waiting for its second
// factor stores no token.
func (s Session) credential() credentials.Credential {
	c := credentials.Credential{SessionID: s.SessionID}
	if !s.TwoFactorPending {
		c.Token = s.Token
	}
	c.User = &credentials.User{
		ID:               s.UserID,
		Username:         s.Username,
		Email:            s.Email,
		Name:             s.Name,
		TwoFactorPending: s.TwoFactorPending,
	}
	return c
}

func sessionFromCredential(c *credentials.Credential) Session {
	s := Session{Token: c.Token, SessionID: c.SessionID, Restored: true}
	if c.User != nil {
		s.UserID = c.User.ID
		s.Username = c.User.Username
		s.Email = c.User.Email
		s.Name = c.User.Name
		s.TwoFactorPending = c.User.TwoFactorPending
	}
	switch {
	case !s.hasIdentity():
		return Session{}
	case s.TwoFactorPending:
		s.Token = ""
		s.State = AwaitingSecondFactor
	default:
		s.State = Authenticated
	}
	return s
}

// ActivationData is returned when two-factor authentication is enabled.
type ActivationData struct {
	QRCodeURI   string
	BackupCodes []string
}

// LoginResult tells the caller which step comes next.
type LoginResult struct {
	Session              Session
	RequiresSecondFactor bool
}

// TokenInfo describes the bearer token without verifying it.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
	Expired   bool
}
