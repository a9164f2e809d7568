// Package cli provides the interactive GophAuth command-line client.
//
// It wires configuration, the credential store, the HTTP client and the
// session services into a REPL. Every command is a route: before it runs,
// the navigation guard decides whether it may proceed or must redirect to
// login or home.
//
// Commands:
//   - register, login, activate, totp, backup
//   - profile, username, email, password, update, disable2fa
//   - status, logout, help, exit
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
