package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstname"`
	LastName     string    `json:"lastname"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewFromRegistration builds a record ready for insertion; the store assigns the id.
func NewFromRegistration(form RegistrationForm, passwordHash string) User {
	now := time.Now().UTC()

	return User{
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		Phone:        form.Phone,
		Email:        form.Email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ApplyProfile overwrites every mutable field from form. The hash only
// changes when newHash is non-empty.
func (u User) ApplyProfile(form ProfileForm, newHash string) User {
	u.FirstName = form.FirstName
	u.LastName = form.LastName
	u.Phone = form.Phone
	u.Email = form.Email

	if newHash != "" {
		u.PasswordHash = newHash
	}

	u.UpdatedAt = time.Now().UTC()
	return u
}
