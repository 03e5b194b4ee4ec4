// Package cli implements the accountctl commands on top of the API client
// and the local session.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/geocoder89/accounthub/internal/client/api"
	"github.com/geocoder89/accounthub/internal/client/session"
	"github.com/geocoder89/accounthub/internal/domain/user"
)

// ErrInvalidInput is returned after field errors have been printed.
var ErrInvalidInput = errors.New("invalid input")

// ErrUsage is returned for an unknown command or bad flags.
var ErrUsage = errors.New("usage")

// API is the subset of the HTTP client the commands need.
type API interface {
	Register(ctx context.Context, form user.RegistrationForm) (string, error)
	Login(ctx context.Context, form user.LoginForm) (string, error)
	Profile(ctx context.Context, token string) (user.User, error)
	UpdateProfile(ctx context.Context, token string, form user.ProfileForm) (user.User, error)
	DeleteProfile(ctx context.Context, token string) error
}

type App struct {
	api  API
	sess *session.Session
	in   *bufio.Reader
	out  io.Writer
	fd   int
}

type Option func(*App)

// WithIO replaces stdin/stdout. fd is what the password prompt checks for a
// terminal.
func WithIO(in io.Reader, out io.Writer, fd int) Option {
	return func(a *App) {
		a.in = bufio.NewReader(in)
		a.out = out
		a.fd = fd
	}
}

func NewApp(client API, sess *session.Session, opts ...Option) *App {
	a := &App{
		api:  client,
		sess: sess,
		in:   bufio.NewReader(os.Stdin),
		out:  os.Stdout,
		fd:   int(os.Stdin.Fd()),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run dispatches args[0]. No command shows the account screen.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.account(ctx)
	}

	cmd, rest := args[0], args[1:]

	switch cmd {
	case "register":
		return a.register(ctx, rest)
	case "login":
		return a.login(ctx, rest)
	case "logout":
		return a.logout(ctx)
	case "profile", "account":
		return a.account(ctx)
	case "update":
		return a.update(ctx)
	case "delete":
		return a.delete(ctx, rest)
	case "help", "-h", "--help":
		a.usage()
		return nil
	default:
		a.usage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func (a *App) usage() {
	fmt.Fprint(a.out, `usage: accountctl <command>

commands:
  register            create an account and log in
  login [-email E]    log in
  logout              forget the stored token
  profile             show your account (default)
  update              edit your profile
  delete [-yes]       delete your account
`)
}

func (a *App) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func (a *App) printFieldErrors(fields []user.FieldError) {
	for _, f := range fields {
		fmt.Fprintf(a.out, "  %s: %s\n", f.Field, f.Message)
	}
}

// checkForm prints the field errors of a failed local validation.
func (a *App) checkForm(err error) error {
	if err == nil {
		return nil
	}

	var verr *user.ValidationError
	if errors.As(err, &verr) {
		a.printFieldErrors(verr.Fields)
		return ErrInvalidInput
	}
	return err
}

// serverErr turns an API failure into what the user sees. A 401 on a
// protected call means the stored token is no longer usable, so it is
// dropped.
func (a *App) serverErr(ctx context.Context, err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		if cerr := a.sess.Clear(ctx); cerr != nil {
			return cerr
		}
		return errors.New("session expired, run `accountctl login`")
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
		fmt.Fprintln(a.out, apiErr.Message)
		a.printFieldErrors(apiErr.Fields)
		return ErrInvalidInput
	}
	return err
}
