package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/client/guard"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	state() services.State
	consumeExpired() bool
	Help(ctx context.Context, args []string) error
	Register(ctx context.Context, args []string) error
	Login(ctx context.Context, args []string) error
	Activate(ctx context.Context, args []string) error
	ValidateTOTP(ctx context.Context, args []string) error
	ValidateBackup(ctx context.Context, args []string) error
	Home(ctx context.Context, args []string) error
	Profile(ctx context.Context, args []string) error
	UpdateUsername(ctx context.Context, args []string) error
	UpdateEmail(ctx context.Context, args []string) error
	UpdatePassword(ctx context.Context, args []string) error
	UpdateUser(ctx context.Context, args []string) error
	Disable2FA(ctx context.Context, args []string) error
	Status(ctx context.Context, args []string) error
	About(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
}

type command struct {
	route string
	run   func(execIface, context.Context, []string) error
}

var commands = map[string]command{
	"help":       {guard.RouteHelp, execIface.Help},
	"register":   {guard.RouteRegister, execIface.Register},
	"login":      {guard.RouteLogin, execIface.Login},
	"activate":   {guard.RouteActivate, execIface.Activate},
	"totp":       {guard.RouteValidateTOTP, execIface.ValidateTOTP},
	"backup":     {guard.RouteValidateBackup, execIface.ValidateBackup},
	"home":       {guard.RouteHome, execIface.Home},
	"profile":    {guard.RouteProfile, execIface.Profile},
	"username":   {guard.RouteUserManagement, execIface.UpdateUsername},
	"email":      {guard.RouteUserManagement, execIface.UpdateEmail},
	"password":   {guard.RouteUserManagement, execIface.UpdatePassword},
	"update":     {guard.RouteUserManagement, execIface.UpdateUser},
	"disable2fa": {guard.RouteUserManagement, execIface.Disable2FA},
	"status":     {guard.RouteStatus, execIface.Status},
	"about":      {guard.RouteAbout, execIface.About},
	"logout":     {guard.RouteLogout, execIface.Logout},
}

// routeCommands maps redirect targets back to the command that renders them.
var routeCommands = map[string]string{
	guard.RouteLogin: "login",
	guard.RouteHome:  "home",
}

// runREPL starts a simple read–eval–print loop for the GophAuth CLI.
//
// Each line is split into a command and its arguments. Before the command
// runs, the navigation guard is evaluated for the command's route; a
// redirect prints a notice and runs the target's command instead. After
// every command, a session dropped by a 401 is announced and the user is
// sent to login. The loop exits on EOF or on "exit" / "quit".
//
// Any errors returned by command handlers are ignored here; handlers print
// their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("gophauth %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		name, args := parts[0], parts[1:]

		if name == "exit" || name == "quit" {
			printlnFn("Bye!")
			return
		}

		cmd, ok := commands[name]
		if !ok {
			printlnFn("Unknown command:", name)
			continue
		}

		navigate(ctx, a, cmd, args)

		if a.consumeExpired() {
			printlnFn("Your session has expired, please log in again.")
			navigate(ctx, a, commands[routeCommands[guard.RouteLogin]], nil)
		}
	}
}

// navigate runs cmd if the guard allows it, otherwise the redirect target.
func navigate(ctx context.Context, a execIface, cmd command, args []string) {
	switch d := guard.Check(cmd.route, a.state()); d {
	case guard.Proceed:
		_ = cmd.run(a, ctx, args)
	case guard.RedirectToLogin:
		printlnFn("Please log in first.")
		_ = commands[routeCommands[d.Target()]].run(a, ctx, nil)
	case guard.RedirectToHome:
		printlnFn("You are already logged in.")
		_ = commands[routeCommands[d.Target()]].run(a, ctx, nil)
	}
}
