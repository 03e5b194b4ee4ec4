// Package account orchestrates registration, login and profile self-service
// over a credential store, a password hasher and a token issuer.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/accounthub/internal/domain/user"
	"github.com/geocoder89/accounthub/internal/notifications"
)

// ErrInvalidCredentials covers both an unknown email and a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Store persists user records. Implementations return user.ErrNotFound for
// missing ids and user.ErrEmailTaken on a uniqueness clash.
type Store interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Update(ctx context.Context, u user.User) (user.User, error)
	Delete(ctx context.Context, id string) error
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// ProfileCache is a read-through cache for GetProfile. Get and Fill failures
// are misses. After Invalidate, Fill is ignored for at least one TTL.
type ProfileCache interface {
	Get(ctx context.Context, id string) (user.User, bool)
	Fill(ctx context.Context, u user.User)
	Invalidate(ctx context.Context, id string) error
}

type Service struct {
	store    Store
	hasher   PasswordHasher
	tokens   TokenIssuer
	cache    ProfileCache
	notifier notifications.Notifier
	log      *slog.Logger

	// compared against when the email is unknown so both login failures cost one bcrypt check
	dummyHash string
}

type Option func(*Service)

func WithCache(c ProfileCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithNotifier(n notifications.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func NewService(store Store, hasher PasswordHasher, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		log:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if h, err := hasher.Hash("accounthub-timing-equalizer"); err == nil {
		s.dummyHash = h
	}

	return s
}

// Register validates the form, rejects a taken email, stores the record and
// returns a token for immediate use.
func (s *Service) Register(ctx context.Context, form user.RegistrationForm) (string, error) {
	if err := form.Validate(); err != nil {
		return "", err
	}

	_, err := s.store.GetByEmail(ctx, form.Email)
	if err == nil {
		return "", user.ErrEmailTaken
	}
	if !errors.Is(err, user.ErrNotFound) {
		return "", fmt.Errorf("lookup email: %w", err)
	}

	hash, err := s.hasher.Hash(form.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	created, err := s.store.Create(ctx, user.NewFromRegistration(form, hash))
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return "", user.ErrEmailTaken
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(created.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	s.publish(ctx, notifications.UserRegistered, created)

	return token, nil
}

func (s *Service) Login(ctx context.Context, form user.LoginForm) (string, error) {
	if err := form.Validate(); err != nil {
		return "", err
	}

	found, err := s.store.GetByEmail(ctx, form.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.hasher.Verify(form.Password, s.dummyHash)
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup email: %w", err)
	}

	if !s.hasher.Verify(form.Password, found.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(found.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	return token, nil
}

// GetProfile returns the record for userID; it may have been deleted since
// the token was issued, which surfaces as user.ErrNotFound.
func (s *Service) GetProfile(ctx context.Context, userID string) (user.User, error) {
	if s.cache != nil {
		if u, ok := s.cache.Get(ctx, userID); ok {
			return u, nil
		}
	}

	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("get user: %w", err)
	}

	// an abandoned request must not fill after its deadline
	if s.cache != nil && ctx.Err() == nil {
		s.cache.Fill(ctx, u)
	}

	return u, nil
}

// UpdateProfile overwrites names, phone and email from form. The password
// hash is replaced only when form carries a new password.
func (s *Service) UpdateProfile(ctx context.Context, userID string, form user.ProfileForm) (user.User, error) {
	if err := form.Validate(); err != nil {
		return user.User{}, err
	}

	current, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("get user: %w", err)
	}

	newHash := ""
	if form.Password != "" {
		newHash, err = s.hasher.Hash(form.Password)
		if err != nil {
			return user.User{}, fmt.Errorf("hash password: %w", err)
		}
	}

	if err := s.invalidate(ctx, userID); err != nil {
		return user.User{}, err
	}

	updated, err := s.store.Update(ctx, current.ApplyProfile(form, newHash))
	s.forget(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			return user.User{}, user.ErrNotFound
		case errors.Is(err, user.ErrEmailTaken):
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, fmt.Errorf("update user: %w", err)
	}

	s.publish(ctx, notifications.UserUpdated, updated)

	return updated, nil
}

// DeleteProfile removes the record for good. Tokens already issued for it
// stay valid until they expire.
func (s *Service) DeleteProfile(ctx context.Context, userID string) error {
	if err := s.invalidate(ctx, userID); err != nil {
		return err
	}

	err := s.store.Delete(ctx, userID)
	s.forget(ctx, userID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.ErrNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}

	s.publish(ctx, notifications.UserDeleted, user.User{ID: userID})

	return nil
}

// invalidate runs before every write; the write is refused when it fails.
func (s *Service) invalidate(ctx context.Context, userID string) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		return fmt.Errorf("invalidate profile cache: %w", err)
	}
	return nil
}

// forget renews the tombstone after the write; the one set by invalidate
// already covers it, so a failure is only logged.
func (s *Service) forget(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.log.WarnContext(ctx, "profile cache invalidate after write failed", "user_id", userID, "err", err)
	}
}

// publish is best effort: the account change has already happened.
func (s *Service) publish(ctx context.Context, t notifications.EventType, u user.User) {
	if s.notifier == nil {
		return
	}

	ev := notifications.AccountEvent{
		Type:       t,
		UserID:     u.ID,
		Email:      u.Email,
		OccurredAt: time.Now().UTC(),
	}

	if err := s.notifier.Publish(ctx, ev); err != nil {
		s.log.WarnContext(ctx, "account event not published", "type", t, "user_id", u.ID, "err", err)
	}
}
