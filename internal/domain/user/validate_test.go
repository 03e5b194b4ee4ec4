package user

import (
	"errors"
	"testing"
)

func validRegistration() RegistrationForm {
	return RegistrationForm{
		FirstName: "A",
		LastName:  "B",
		Phone:     "1234567890",
		Email:     "a@b.com",
		Password:  "secret1",
	}
}

func fieldRules(t *testing.T, err error) map[string]string {
	t.Helper()

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
	}

	out := map[string]string{}
	for _, f := range verr.Fields {
		if f.Message == "" {
			t.Fatalf("field %q has empty message", f.Field)
		}
		out[f.Field] = f.Rule
	}
	return out
}

func TestRegistrationForm_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*RegistrationForm)
		wantRules map[string]string
	}{
		{name: "valid", mutate: func(*RegistrationForm) {}},
		{
			name:      "phone too short",
			mutate:    func(f *RegistrationForm) { f.Phone = "12345" },
			wantRules: map[string]string{"phone": "phone10"},
		},
		{
			name:      "phone with letters",
			mutate:    func(f *RegistrationForm) { f.Phone = "12345abcde" },
			wantRules: map[string]string{"phone": "phone10"},
		},
		{
			name:      "phone eleven digits",
			mutate:    func(f *RegistrationForm) { f.Phone = "12345678901" },
			wantRules: map[string]string{"phone": "phone10"},
		},
		{
			name:      "short password",
			mutate:    func(f *RegistrationForm) { f.Password = "12345" },
			wantRules: map[string]string{"password": "min"},
		},
		{
			name:      "missing password",
			mutate:    func(f *RegistrationForm) { f.Password = "" },
			wantRules: map[string]string{"password": "required"},
		},
		{
			name:      "bad email and missing names",
			mutate:    func(f *RegistrationForm) { f.Email = "nope"; f.FirstName = ""; f.LastName = "" },
			wantRules: map[string]string{"email": "email", "firstname": "required", "lastname": "required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validRegistration()
			tt.mutate(&f)

			err := f.Validate()
			if tt.wantRules == nil {
				if err != nil {
					t.Fatalf("expected valid form, got %v", err)
				}
				return
			}

			got := fieldRules(t, err)
			for field, rule := range tt.wantRules {
				if got[field] != rule {
					t.Fatalf("field %q: got rule %q want %q (all=%v)", field, got[field], rule, got)
				}
			}
		})
	}
}

func TestProfileForm_PasswordOptional(t *testing.T) {
	f := ProfileForm{FirstName: "A", LastName: "B", Phone: "1234567890", Email: "a@b.com"}

	if err := f.Validate(); err != nil {
		t.Fatalf("profile without password should be valid: %v", err)
	}

	f.Password = "abc"
	got := fieldRules(t, f.Validate())
	if got["password"] != "min" {
		t.Fatalf("expected min rule on short password, got %v", got)
	}
}

func TestProfileForm_PhoneAlwaysChecked(t *testing.T) {
	f := ProfileForm{Email: "a@b.com"}

	got := fieldRules(t, f.Validate())
	if got["phone"] != "phone10" {
		t.Fatalf("expected phone10 on empty phone, got %v", got)
	}
}

func TestMessage_MatchesFormCopy(t *testing.T) {
	if got := Message("phone", "phone10", ""); got != "Phone number must be 10 digits" {
		t.Fatalf("unexpected phone message %q", got)
	}
	if got := Message("password", "min", "6"); got != "Password must be at least 6 characters long" {
		t.Fatalf("unexpected password message %q", got)
	}
}

func TestApplyProfile_KeepsHashWithoutNewPassword(t *testing.T) {
	u := User{ID: "1", Email: "old@b.com", PasswordHash: "stored-hash"}

	updated := u.ApplyProfile(ProfileForm{Email: "new@b.com", Phone: "1234567890"}, "")
	if updated.PasswordHash != "stored-hash" {
		t.Fatalf("hash should be untouched, got %q", updated.PasswordHash)
	}
	if updated.Email != "new@b.com" || updated.ID != "1" {
		t.Fatalf("unexpected record %+v", updated)
	}

	rehashed := u.ApplyProfile(ProfileForm{Email: "new@b.com"}, "new-hash")
	if rehashed.PasswordHash != "new-hash" {
		t.Fatalf("expected new hash, got %q", rehashed.PasswordHash)
	}
}
