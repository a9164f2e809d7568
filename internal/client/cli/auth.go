package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/buildinfo"
	"github.com/dmitrijs2005/gophauth/internal/client/api"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
)

// getSimpleText and getSecret are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getSecret = GetSecret

// Register prompts for a username, an email and a password and creates the
// account. It does not log in: the backend decides whether the account needs
// confirmation, so the user is pointed to login (and activate) instead.
func (a *App) Register(ctx context.Context, _ []string) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getSecret(a.out, "Enter password")
	if err != nil {
		return err
	}

	p, err := a.auth.Register(ctx, api.RegisterRequest{Username: username, Email: email, Password: password})
	if err != nil {
		return a.fail(ctx, "register", err)
	}

	printlnFn("Registration successful.")
	if msg := p.String("message", "responseMessage"); msg != "" {
		printlnFn(msg)
	}
	if id, ok, _ := p.Int64("id"); ok && id > 0 {
		a.registeredID = id
		printlnFn("Run 'activate' to enable two-factor authentication, or 'login' to sign in.")
	}
	return nil
}

// Login prompts for credentials. When the backend asks for a second factor
// the user is told to continue with totp or backup; otherwise home is shown.
func (a *App) Login(ctx context.Context, args []string) error {
	username, err := argOrPrompt(args, a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getSecret(a.out, "Enter password")
	if err != nil {
		return err
	}

	res, err := a.auth.Login(ctx, username, password)
	if err != nil {
		return a.fail(ctx, "login", err)
	}

	if res.RequiresSecondFactor {
		printlnFn("Two-factor authentication required. Enter a code with 'totp' or a backup code with 'backup'.")
		return nil
	}

	printlnFn(fmt.Sprintf("Welcome, %s!", displayName(res.Session)))
	return a.Home(ctx, nil)
}

// Activate enables two-factor authentication and prints the provisioning
// URI and backup codes. The user id comes from the argument, the account
// just registered, or a prompt.
func (a *App) Activate(ctx context.Context, args []string) error {
	userID := a.registeredID
	if len(args) > 0 || userID == 0 {
		raw, err := argOrPrompt(args, a.reader, "Enter user ID", a.out)
		if err != nil {
			return err
		}
		userID, err = strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			printlnFn("User ID must be a number")
			return err
		}
	}

	d, err := a.auth.Activate(ctx, userID)
	if err != nil {
		return a.fail(ctx, "activate", err)
	}

	printlnFn("Two-factor authentication activated.")
	printlnFn("Add this URI to your authenticator app:")
	printlnFn("  " + d.QRCodeURI)
	if len(d.BackupCodes) > 0 {
		printlnFn("Backup codes (store them somewhere safe):")
		for _, c := range d.BackupCodes {
			printlnFn("  " + c)
		}
	}
	return nil
}

func (a *App) ValidateTOTP(ctx context.Context, args []string) error {
	return a.validate(ctx, args, false)
}

func (a *App) ValidateBackup(ctx context.Context, args []string) error {
	return a.validate(ctx, args, true)
}

func (a *App) validate(ctx context.Context, args []string, backup bool) error {
	if a.auth.State() != services.AwaitingSecondFactor {
		printlnFn("No two-factor verification is pending. Use 'login' first.")
		return services.ErrNoSecondFactorPending
	}

	prompt := "Enter the 6-digit code from your authenticator app"
	if backup {
		prompt = "Enter a backup code"
	}
	code, err := argOrPrompt(args, a.reader, prompt, a.out)
	if err != nil {
		return err
	}

	s, err := a.auth.ValidateSecondFactor(ctx, code, backup)
	if err != nil {
		return a.fail(ctx, "validate", err)
	}

	printlnFn(fmt.Sprintf("Verification successful. Welcome, %s!", displayName(s)))
	return a.Home(ctx, nil)
}

// Logout always succeeds locally; a failed remote call only shows up in
// the log.
func (a *App) Logout(ctx context.Context, _ []string) error {
	if err := a.auth.Logout(ctx); err != nil {
		return a.fail(ctx, "logout", err)
	}
	printlnFn("Logged out.")
	return nil
}

func (a *App) Status(ctx context.Context, _ []string) error {
	s := a.auth.Session()
	printlnFn("State:", s.State.String())
	printlnFn("Server:", a.config.APIBaseURL)
	if s.State == services.Anonymous {
		return nil
	}

	printlnFn("User:", displayName(s))
	if s.SessionID != 0 {
		printlnFn("Session:", s.SessionID)
	}
	if s.Restored {
		printlnFn("Session restored from disk, not yet confirmed by the server")
	}

	info, err := a.auth.TokenInfo()
	switch {
	case err != nil:
		a.logger.Debug(ctx, "token has no readable claims", "error", err)
	case info.ExpiresAt.IsZero():
		printlnFn("Token: no expiry")
	case info.Expired:
		printlnFn("Token: expired at", info.ExpiresAt.Format(time.RFC3339))
	default:
		printlnFn("Token: expires at", info.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

func (a *App) Help(_ context.Context, _ []string) error {
	switch a.auth.State() {
	case services.Authenticated:
		printlnFn("Available commands: profile, username, email, update, password, disable2fa, status, about, logout, exit")
	case services.AwaitingSecondFactor:
		printlnFn("Available commands: totp, backup, status, logout, exit")
	default:
		printlnFn("Available commands: register, login, activate, status, exit")
	}
	return nil
}

func (a *App) About(_ context.Context, _ []string) error {
	printlnFn("GophAuth CLI: account and two-factor management")
	buildinfo.PrintBuildData(a.out)
	return nil
}
