package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/dmitrijs2005/gophauth/internal/client/api"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/credentials"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
	"github.com/dmitrijs2005/gophauth/internal/client/storage"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

type authManager interface {
	Session() services.Session
	State() services.State
	Restore(ctx context.Context) (services.Session, error)
	Register(ctx context.Context, req api.RegisterRequest) (api.Payload, error)
	Login(ctx context.Context, username, password string) (services.LoginResult, error)
	ValidateSecondFactor(ctx context.Context, code string, backup bool) (services.Session, error)
	Activate(ctx context.Context, userID int64) (services.ActivationData, error)
	Disable2FA(ctx context.Context) error
	Logout(ctx context.Context) error
	TokenInfo() (services.TokenInfo, error)
	OnExpired(fn func(context.Context))
}

type profileManager interface {
	Profile() (services.Profile, bool)
	FetchProfile(ctx context.Context) (services.Profile, error)
	UpdateUsername(ctx context.Context, username string) (services.Profile, error)
	UpdateEmail(ctx context.Context, email string) (services.Profile, error)
	UpdatePassword(ctx context.Context, current, next string) error
	UpdateUser(ctx context.Context, username, email string) (services.UpdateResult, error)
}

type App struct {
	config  *config.Config
	auth    authManager
	profile profileManager
	logger  logging.Logger
	reader  *bufio.Reader
	out     io.Writer
	closeFn func() error

	// registeredID remembers the account created by the last register so
	// that activate can be run right after it.
	registeredID int64
	expired      atomic.Bool
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	st, err := storage.Open(ctx, c)
	if err != nil {
		logger.Error(ctx, "error opening credential store", "driver", c.StoreDriver, "error", err)
		return nil, err
	}

	creds := credentials.NewStore(st.Repo)
	client := api.NewHTTPClient(c.APIBaseURL, creds,
		api.WithTimeout(c.RequestTimeout),
		api.WithGatewayKeys(c.APIKey, c.SecretKey),
		api.WithLogger(logger),
	)

	as := services.NewAuthService(client, creds, logger)
	ps := services.NewProfileService(client, as, logger)

	return newApp(c, as, ps, logger, st.Close), nil
}

func newApp(c *config.Config, as authManager, ps profileManager, logger logging.Logger, closeFn func() error) *App {
	a := &App{
		config:  c,
		auth:    as,
		profile: ps,
		logger:  logger,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		closeFn: closeFn,
	}
	as.OnExpired(func(context.Context) { a.expired.Store(true) })
	return a
}

// Run restores the persisted session and blocks in the REPL until the user
// exits or stdin is closed.
func (a *App) Run(ctx context.Context) {
	defer func() {
		if a.closeFn != nil {
			if err := a.closeFn(); err != nil {
				a.logger.Warn(ctx, "error closing credential store", "error", err)
			}
		}
	}()

	printlnFn("Welcome to GophAuth CLI (type 'help' for commands)")

	s, err := a.auth.Restore(ctx)
	switch {
	case err != nil:
		a.logger.Error(ctx, "cannot restore session", "error", err)
	case s.State == services.Authenticated:
		printlnFn(fmt.Sprintf("Restored session for %s", displayName(s)))
	case s.State == services.AwaitingSecondFactor:
		printlnFn("Two-factor verification pending: use 'totp' or 'backup'")
	}

	runREPL(ctx, a, a.prompt, a.reader)
}

func (a *App) state() services.State {
	return a.auth.State()
}

// consumeExpired reports, once, that a 401 dropped the session.
func (a *App) consumeExpired() bool {
	return a.expired.Swap(false)
}

func (a *App) prompt() string {
	s := a.auth.Session()
	switch s.State {
	case services.Authenticated:
		return displayName(s)
	case services.AwaitingSecondFactor:
		return displayName(s) + " (2fa)"
	default:
		return "guest"
	}
}

func displayName(s services.Session) string {
	switch {
	case s.Username != "":
		return s.Username
	case s.Name != "":
		return s.Name
	case s.Email != "":
		return s.Email
	default:
		return fmt.Sprintf("user %d", s.UserID)
	}
}

// fail prints the user-facing message of err and returns it.
func (a *App) fail(ctx context.Context, op string, err error) error {
	printlnFn("Error:", err.Error())
	a.logger.Debug(ctx, "command failed", "command", op, "error", err)
	return err
}
