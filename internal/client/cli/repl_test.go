package cli

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/client/services"
	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	st      services.State
	expired bool

	calls []string
	args  [][]string
}

func (f *fakeExec) state() services.State { return f.st }

func (f *fakeExec) consumeExpired() bool {
	e := f.expired
	f.expired = false
	return e
}

func (f *fakeExec) rec(name string, args []string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return nil
}

func (f *fakeExec) Help(_ context.Context, a []string) error     { return f.rec("help", a) }
func (f *fakeExec) Register(_ context.Context, a []string) error { return f.rec("register", a) }
func (f *fakeExec) Login(_ context.Context, a []string) error {
	f.st = services.Authenticated
	return f.rec("login", a)
}
func (f *fakeExec) Activate(_ context.Context, a []string) error { return f.rec("activate", a) }
func (f *fakeExec) ValidateTOTP(_ context.Context, a []string) error {
	return f.rec("totp", a)
}
func (f *fakeExec) ValidateBackup(_ context.Context, a []string) error {
	return f.rec("backup", a)
}
func (f *fakeExec) Home(_ context.Context, a []string) error    { return f.rec("home", a) }
func (f *fakeExec) Profile(_ context.Context, a []string) error { return f.rec("profile", a) }
func (f *fakeExec) UpdateUsername(_ context.Context, a []string) error {
	return f.rec("username", a)
}
func (f *fakeExec) UpdateEmail(_ context.Context, a []string) error { return f.rec("email", a) }
func (f *fakeExec) UpdatePassword(_ context.Context, a []string) error {
	return f.rec("password", a)
}
func (f *fakeExec) UpdateUser(_ context.Context, a []string) error { return f.rec("update", a) }
func (f *fakeExec) Disable2FA(_ context.Context, a []string) error { return f.rec("disable2fa", a) }
func (f *fakeExec) Status(_ context.Context, a []string) error     { return f.rec("status", a) }
func (f *fakeExec) About(_ context.Context, a []string) error      { return f.rec("about", a) }
func (f *fakeExec) Logout(_ context.Context, a []string) error {
	f.st = services.Anonymous
	return f.rec("logout", a)
}

func capturePrint(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		s := ""
		for i, v := range a {
			if i > 0 {
				s += " "
			}
			s += toString(v)
		}
		lines = append(lines, s)
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	capturePrint(t)

	exec := &fakeExec{}
	input := rdr("help\nlogin\nprofile\nusername new_name\nstatus\nlogout\nexit\nprofile\n")

	runREPL(context.Background(), exec, func() string { return "status" }, input)

	assert.Equal(t, []string{"help", "login", "profile", "username", "status", "logout"}, exec.calls)
	assert.Equal(t, []string{"new_name"}, exec.args[3])
}

func TestRunREPL_AuthRouteRedirectsToLogin(t *testing.T) {
	lines := capturePrint(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, rdr("profile\nquit\n"))

	assert.Equal(t, []string{"login"}, exec.calls)
	assert.Contains(t, *lines, "Please log in first.")
}

func TestRunREPL_PendingSecondFactorIsNotAuthenticated(t *testing.T) {
	capturePrint(t)

	exec := &fakeExec{st: services.AwaitingSecondFactor}
	runREPL(context.Background(), exec, func() string { return "" }, rdr("totp 123456\nhome\n"))

	assert.Equal(t, []string{"totp", "login"}, exec.calls)
}

func TestRunREPL_GuestRouteRedirectsHome(t *testing.T) {
	lines := capturePrint(t)

	exec := &fakeExec{st: services.Authenticated}
	runREPL(context.Background(), exec, func() string { return "" }, rdr("register\nlogin\n"))

	assert.Equal(t, []string{"home", "home"}, exec.calls)
	assert.Contains(t, *lines, "You are already logged in.")
}

func TestRunREPL_ExpiredSessionRedirectsToLogin(t *testing.T) {
	lines := capturePrint(t)

	// A 401 has already reset the session by the time the REPL checks.
	exec := &fakeExec{st: services.Anonymous, expired: true}
	runREPL(context.Background(), exec, func() string { return "" }, rdr("status\n"))

	assert.Equal(t, []string{"status", "login"}, exec.calls)
	assert.Contains(t, *lines, "Your session has expired, please log in again.")
}

func TestRunREPL_UnknownAndQuit(t *testing.T) {
	lines := capturePrint(t)

	exec := &fakeExec{st: services.Authenticated}
	runREPL(context.Background(), exec, func() string { return "s" }, rdr("get\n\nquit\nprofile\n"))

	assert.Empty(t, exec.calls)
	assert.Contains(t, *lines, "Unknown command: get")
	assert.Contains(t, *lines, "Bye!")
}
