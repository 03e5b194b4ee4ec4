package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/geocoder89/accounthub/internal/client/api"
	"github.com/geocoder89/accounthub/internal/client/session"
	"github.com/geocoder89/accounthub/internal/domain/user"
)

// goneErr reports whether the account behind the token no longer exists.
func goneErr(err error) bool {
	var apiErr *api.Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func (a *App) register(ctx context.Context, args []string) error {
	if err := a.flags("register").Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	route, err := a.sess.Resolve(ctx, session.RouteRegister)
	if err != nil {
		return err
	}
	if route == session.RouteAccount {
		fmt.Fprintln(a.out, "You are already logged in.")
		return a.account(ctx)
	}

	var form user.RegistrationForm
	fields := []struct {
		label string
		dst   *string
	}{
		{"First name", &form.FirstName},
		{"Last name", &form.LastName},
		{"Phone (10 digits)", &form.Phone},
		{"Email", &form.Email},
	}
	for _, f := range fields {
		if *f.dst, err = promptLine(a.in, a.out, f.label, ""); err != nil {
			return err
		}
	}
	if form.Password, err = promptPassword(a.in, a.out, a.fd, "Password"); err != nil {
		return err
	}

	if err := a.checkForm(form.Validate()); err != nil {
		return err
	}

	token, err := a.api.Register(ctx, form)
	if err != nil {
		return a.serverErr(ctx, err)
	}
	if err := a.sess.Save(ctx, token); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Registration successful.")
	return a.account(ctx)
}

func (a *App) login(ctx context.Context, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	route, err := a.sess.Resolve(ctx, session.RouteLogin)
	if err != nil {
		return err
	}
	if route == session.RouteAccount {
		fmt.Fprintln(a.out, "You are already logged in.")
		return a.account(ctx)
	}

	form := user.LoginForm{Email: *email}
	if form.Email == "" {
		if form.Email, err = promptLine(a.in, a.out, "Email", ""); err != nil {
			return err
		}
	}
	if form.Password, err = promptPassword(a.in, a.out, a.fd, "Password"); err != nil {
		return err
	}

	if err := a.checkForm(form.Validate()); err != nil {
		return err
	}

	token, err := a.api.Login(ctx, form)
	if err != nil {
		return a.serverErr(ctx, err)
	}
	if err := a.sess.Save(ctx, token); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Login successful.")
	return a.account(ctx)
}

func (a *App) logout(ctx context.Context) error {
	if err := a.sess.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

// account is the home screen. Without a token it points at login.
func (a *App) account(ctx context.Context) error {
	route, err := a.sess.Resolve(ctx, session.RouteAccount)
	if err != nil {
		return err
	}
	if route != session.RouteAccount {
		fmt.Fprintln(a.out, "Not logged in. Run `accountctl login` or `accountctl register`.")
		return session.ErrNotLoggedIn
	}

	u, err := a.currentUser(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Name:   %s %s\nPhone:  %s\nEmail:  %s\n", u.FirstName, u.LastName, u.Phone, u.Email)
	return nil
}

func (a *App) currentUser(ctx context.Context) (user.User, error) {
	token, err := a.sess.RequireToken(ctx)
	if err != nil {
		return user.User{}, err
	}

	u, err := a.api.Profile(ctx, token)
	if err != nil {
		if goneErr(err) {
			if cerr := a.sess.Clear(ctx); cerr != nil {
				return user.User{}, cerr
			}
			return user.User{}, errors.New("account no longer exists, logged out")
		}
		return user.User{}, a.serverErr(ctx, err)
	}
	return u, nil
}

// update prefills every prompt with the current value. Leaving the password
// blank keeps it.
func (a *App) update(ctx context.Context) error {
	token, err := a.sess.RequireToken(ctx)
	if err != nil {
		return err
	}

	current, err := a.currentUser(ctx)
	if err != nil {
		return err
	}

	form := user.ProfileForm{
		FirstName: current.FirstName,
		LastName:  current.LastName,
		Phone:     current.Phone,
		Email:     current.Email,
	}
	fields := []struct {
		label string
		dst   *string
	}{
		{"First name", &form.FirstName},
		{"Last name", &form.LastName},
		{"Phone (10 digits)", &form.Phone},
		{"Email", &form.Email},
	}
	for _, f := range fields {
		if *f.dst, err = promptLine(a.in, a.out, f.label, *f.dst); err != nil {
			return err
		}
	}
	if form.Password, err = promptPassword(a.in, a.out, a.fd, "New password (blank to keep)"); err != nil {
		return err
	}

	if err := a.checkForm(form.Validate()); err != nil {
		return err
	}

	updated, err := a.api.UpdateProfile(ctx, token, form)
	if err != nil {
		return a.serverErr(ctx, err)
	}

	fmt.Fprintf(a.out, "Profile updated successfully.\nName:   %s %s\nPhone:  %s\nEmail:  %s\n",
		updated.FirstName, updated.LastName, updated.Phone, updated.Email)
	return nil
}

func (a *App) delete(ctx context.Context, args []string) error {
	fs := a.flags("delete")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	token, err := a.sess.RequireToken(ctx)
	if err != nil {
		return err
	}

	if !*yes {
		ok, err := confirm(a.in, a.out, "Are you sure you want to delete your account? This cannot be undone.")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "Cancelled.")
			return nil
		}
	}

	if err := a.api.DeleteProfile(ctx, token); err != nil {
		if !goneErr(err) {
			return a.serverErr(ctx, err)
		}
	}

	if err := a.sess.Clear(ctx); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "User account deleted successfully.")
	return nil
}
