// Package api is a typed HTTP client for the accounthub REST endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/accounthub/internal/domain/user"
)

var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx answer from the server.
type Error struct {
	Status  int
	Message string
	Code    string
	Fields  []user.FieldError
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return e.Message
}

// Is lets errors.Is(err, ErrUnauthorized) match any 401.
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL. A nil hc gets a client with a 10s timeout.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

type tokenResponse struct {
	Token string `json:"token"`
}

type errorBody struct {
	Message    string            `json:"msg"`
	AltMessage string            `json:"message"` // delete uses "message"
	Code       string            `json:"code"`
	Errors     []user.FieldError `json:"errors"`
}

func (c *Client) Register(ctx context.Context, form user.RegistrationForm) (string, error) {
	var out tokenResponse
	if err := c.do(ctx, http.MethodPost, "/users/register", "", form, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func (c *Client) Login(ctx context.Context, form user.LoginForm) (string, error) {
	var out tokenResponse
	if err := c.do(ctx, http.MethodPost, "/users/login", "", form, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func (c *Client) Profile(ctx context.Context, token string) (user.User, error) {
	var out user.User
	if err := c.do(ctx, http.MethodGet, "/users/profile", token, nil, &out); err != nil {
		return user.User{}, err
	}
	return out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token string, form user.ProfileForm) (user.User, error) {
	var out struct {
		Message string    `json:"msg"`
		User    user.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/users/profile", token, form, &out); err != nil {
		return user.User{}, err
	}
	return out.User, nil
}

func (c *Client) DeleteProfile(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/users/profile", token, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode}

		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil {
			apiErr.Message = eb.Message
			if apiErr.Message == "" {
				apiErr.Message = eb.AltMessage
			}
			apiErr.Code = eb.Code
			apiErr.Fields = eb.Errors
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
