// Package session keeps the bearer token on the client and decides which
// screen a command may reach with or without it.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/geocoder89/accounthub/internal/client/storage"
)

// TokenKey is the single well-known key the token lives under.
const TokenKey = "token"

var (
	ErrNotLoggedIn     = errors.New("not logged in")
	ErrAlreadyLoggedIn = errors.New("already logged in")
)

type Route string

const (
	RouteLogin    Route = "login"
	RouteRegister Route = "register"
	RouteAccount  Route = "account" // home; needs a token
)

// Session is passed explicitly to every command; there is no global.
type Session struct {
	kv storage.KV
}

func New(kv storage.KV) *Session {
	return &Session{kv: kv}
}

// Token returns the stored token. The value is kept JSON-encoded, so an
// unreadable entry counts as no token.
func (s *Session) Token(ctx context.Context) (string, bool, error) {
	raw, err := s.kv.Get(ctx, TokenKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read token: %w", err)
	}

	var token string
	if err := json.Unmarshal(raw, &token); err != nil || token == "" {
		return "", false, nil
	}
	return token, true, nil
}

func (s *Session) Save(ctx context.Context, token string) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, TokenKey, raw); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *Session) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// Resolve maps a requested route to the one actually shown: the account
// screen without a token goes to login, login and register with a token go
// to the account screen.
func (s *Session) Resolve(ctx context.Context, want Route) (Route, error) {
	_, ok, err := s.Token(ctx)
	if err != nil {
		return "", err
	}

	switch want {
	case RouteAccount:
		if !ok {
			return RouteLogin, nil
		}
	case RouteLogin, RouteRegister:
		if ok {
			return RouteAccount, nil
		}
	}
	return want, nil
}

// RequireToken gates commands that call protected endpoints.
func (s *Session) RequireToken(ctx context.Context) (string, error) {
	token, ok, err := s.Token(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotLoggedIn
	}
	return token, nil
}

// RequireNoToken gates register and login.
func (s *Session) RequireNoToken(ctx context.Context) error {
	_, ok, err := s.Token(ctx)
	if err != nil {
		return err
	}
	if ok {
		return ErrAlreadyLoggedIn
	}
	return nil
}
