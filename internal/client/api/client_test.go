package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geocoder89/accounthub/internal/domain/user"
)

func TestClient_RegisterSendsForm(t *testing.T) {
	var got user.RegistrationForm

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/users/register", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok"})
	}))
	defer srv.Close()

	form := user.RegistrationForm{FirstName: "A", LastName: "B", Phone: "1234567890", Email: "a@b.com", Password: "secret1"}

	token, err := New(srv.URL+"/", nil).Register(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	if diff := cmp.Diff(form, got); diff != "" {
		t.Fatalf("form mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_ProfileSendsBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"msg":"No token, authorization denied","code":"unauthorized"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"u1","firstname":"A","email":"a@b.com"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, nil)

	u, err := c.Profile(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "a@b.com", u.Email)

	_, err = c.Profile(context.Background(), "other")
	assert.True(t, errors.Is(err, ErrUnauthorized), "expected ErrUnauthorized, got %v", err)
	assert.EqualError(t, err, "No token, authorization denied")
}

func TestClient_DecodesErrorBodies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"msg":"Invalid input","code":"invalid_request","errors":[{"field":"phone","rule":"phone10","msg":"Phone number must be 10 digits"}]}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).Register(context.Background(), user.RegistrationForm{})

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid_request", apiErr.Code)
	require.Len(t, apiErr.Fields, 1)
	assert.Equal(t, "phone", apiErr.Fields[0].Field)
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestClient_DeleteReadsMessageKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		_, _ = w.Write([]byte(`{"message":"User account deleted successfully"}`))
	}))
	defer srv.Close()

	assert.NoError(t, New(srv.URL, nil).DeleteProfile(context.Background(), "tok"))
}
