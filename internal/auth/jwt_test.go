package auth

import (
	"encoding/base64"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	m := NewManager("super-secret", time.Hour)

	tok, err := m.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	got, err := m.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if got != "user-123" {
		t.Fatalf("userID mismatch: got %q want %q", got, "user-123")
	}
}

func TestIssue_ClaimsWindowIsOneHour(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m := NewManager("super-secret", time.Hour).WithClock(func() time.Time { return fixed })

	tok, err := m.Issue("u1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok, claims)
	if err != nil {
		t.Fatalf("ParseUnverified error: %v", err)
	}

	if claims.UserID != "u1" || claims.Subject != "u1" {
		t.Fatalf("unexpected identity claims: id=%q sub=%q", claims.UserID, claims.Subject)
	}
	if !claims.IssuedAt.Time.Equal(fixed) {
		t.Fatalf("iat mismatch: %s", claims.IssuedAt.Time)
	}
	if !claims.ExpiresAt.Time.Equal(fixed.Add(time.Hour)) {
		t.Fatalf("exp mismatch: %s", claims.ExpiresAt.Time)
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	issuer := NewManager("secret", time.Hour).WithClock(func() time.Time { return issuedAt })

	tok, err := issuer.Issue("u1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	verifier := issuer.WithClock(func() time.Time { return issuedAt.Add(time.Hour + time.Second) })

	_, err = verifier.Verify(tok)
	if err != ErrTokenExpired {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	// still inside the window
	inside := issuer.WithClock(func() time.Time { return issuedAt.Add(59 * time.Minute) })
	if _, err := inside.Verify(tok); err != nil {
		t.Fatalf("token should still be valid before exp: %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewManager("right-secret", time.Hour).Issue("u2")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = NewManager("wrong-secret", time.Hour).Verify(tok)
	if err != ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	t.Parallel()

	m := NewManager("secret", time.Hour)

	tok, err := m.Issue("victim")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 token segments, got %d", len(parts))
	}

	exp := time.Now().Add(time.Hour).Unix()
	forged := `{"id":"attacker","sub":"attacker","exp":` + strconv.FormatInt(exp, 10) + `}`
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(forged))

	_, err = m.Verify(strings.Join(parts, "."))
	if err != ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid for tampered payload, got %v", err)
	}
}

func TestVerify_RejectsNoneAlgAndGarbage(t *testing.T) {
	t.Parallel()

	m := NewManager("secret", time.Hour)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	for _, raw := range []string{unsigned, "", "not.a.token", "abc"} {
		if _, err := m.Verify(raw); err != ErrTokenInvalid {
			t.Fatalf("Verify(%q) expected ErrTokenInvalid, got %v", raw, err)
		}
	}
}

func TestVerify_MissingIdentity(t *testing.T) {
	t.Parallel()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := NewManager("secret", time.Hour).Verify(tok); err != ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerify_MissingExpiry(t *testing.T) {
	t.Parallel()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "u1"}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := NewManager("secret", time.Hour).Verify(tok); err != ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid without exp, got %v", err)
	}
}

func TestIssue_EmptyUserID(t *testing.T) {
	t.Parallel()

	if _, err := NewManager("secret", time.Hour).Issue(""); err == nil {
		t.Fatalf("expected error for empty user id")
	}
}
