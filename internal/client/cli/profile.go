package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/client/services"
)

// Home greets the user and shows a one-line profile summary.
func (a *App) Home(ctx context.Context, _ []string) error {
	p, err := a.profile.FetchProfile(ctx)
	if err != nil {
		return a.fail(ctx, "home", err)
	}
	printlnFn(fmt.Sprintf("Signed in as %s <%s>, 2FA %s", p.Username, p.Email, p.TwoFactorStatus))
	return nil
}

func (a *App) Profile(ctx context.Context, _ []string) error {
	p, err := a.profile.FetchProfile(ctx)
	if err != nil {
		return a.fail(ctx, "profile", err)
	}
	printProfile(p)
	return nil
}

func printProfile(p services.Profile) {
	printlnFn("ID:      ", p.ID)
	printlnFn("Username:", p.Username)
	printlnFn("Email:   ", p.Email)
	if p.Status != "" {
		printlnFn("Status:  ", p.Status)
	}
	printlnFn("2FA:     ", p.TwoFactorStatus)
}

func (a *App) UpdateUsername(ctx context.Context, args []string) error {
	v, err := argOrPrompt(args, a.reader, "Enter new username", a.out)
	if err != nil {
		return err
	}
	p, err := a.profile.UpdateUsername(ctx, v)
	if err != nil {
		return a.fail(ctx, "username", err)
	}
	printlnFn("Username updated successfully:", p.Username)
	return nil
}

func (a *App) UpdateEmail(ctx context.Context, args []string) error {
	v, err := argOrPrompt(args, a.reader, "Enter new email", a.out)
	if err != nil {
		return err
	}
	p, err := a.profile.UpdateEmail(ctx, v)
	if err != nil {
		return a.fail(ctx, "email", err)
	}
	printlnFn("Email updated successfully:", p.Email)
	return nil
}

func (a *App) UpdatePassword(ctx context.Context, _ []string) error {
	current, err := getSecret(a.out, "Current password")
	if err != nil {
		return err
	}
	next, err := getSecret(a.out, "New password")
	if err != nil {
		return err
	}
	confirm, err := getSecret(a.out, "Confirm new password")
	if err != nil {
		return err
	}
	if next != confirm {
		printlnFn("Error: Passwords do not match")
		return fmt.Errorf("passwords do not match")
	}

	if err := a.profile.UpdatePassword(ctx, current, next); err != nil {
		return a.fail(ctx, "password", err)
	}
	printlnFn("Password changed successfully")
	return nil
}

// UpdateUser asks for both fields; leaving one empty skips it. Each field's
// outcome is printed on its own line.
func (a *App) UpdateUser(ctx context.Context, _ []string) error {
	username, err := getSimpleText(a.reader, "New username (empty to keep)", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "New email (empty to keep)", a.out)
	if err != nil {
		return err
	}

	res, err := a.profile.UpdateUser(ctx, username, email)
	if err != nil {
		return a.fail(ctx, "update", err)
	}

	report := func(field string, requested, updated bool, ferr error) {
		switch {
		case !requested:
		case updated && ferr == nil:
			printlnFn(field, "updated")
		case updated:
			printlnFn(field, "updated, but:", ferr.Error())
		default:
			printlnFn(field, "not updated:", ferr.Error())
		}
	}
	report("Username", username != "", res.UsernameUpdated, res.UsernameErr)
	report("Email", email != "", res.EmailUpdated, res.EmailErr)
	return res.Err()
}

func (a *App) Disable2FA(ctx context.Context, _ []string) error {
	answer, err := getSimpleText(a.reader, "Disable two-factor authentication? Type 'yes' to confirm", a.out)
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "yes") {
		printlnFn("Cancelled")
		return nil
	}

	if err := a.auth.Disable2FA(ctx); err != nil {
		return a.fail(ctx, "disable2fa", err)
	}
	printlnFn("Two-factor authentication disabled")
	return nil
}
