package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geocoder89/accounthub/internal/client/storage"
)

func TestSession_TokenIsStoredAsJSONString(t *testing.T) {
	kv := storage.NewMemory()
	s := New(kv)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "abc.def.ghi"))

	raw, err := kv.Get(ctx, TokenKey)
	require.NoError(t, err)
	assert.Equal(t, `"abc.def.ghi"`, string(raw))

	token, ok, err := s.Token(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", token)
}

func TestSession_Resolve(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemory())

	tests := []struct {
		name      string
		loggedIn  bool
		want      Route
		wantShown Route
	}{
		{"account without token", false, RouteAccount, RouteLogin},
		{"login without token", false, RouteLogin, RouteLogin},
		{"register without token", false, RouteRegister, RouteRegister},
		{"account with token", true, RouteAccount, RouteAccount},
		{"login with token", true, RouteLogin, RouteAccount},
		{"register with token", true, RouteRegister, RouteAccount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, s.Clear(ctx))
			if tt.loggedIn {
				require.NoError(t, s.Save(ctx, "tok"))
			}

			got, err := s.Resolve(ctx, tt.want)
			require.NoError(t, err)
			assert.Equal(t, tt.wantShown, got)
		})
	}
}

func TestSession_Gates(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewMemory())

	_, err := s.RequireToken(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.NoError(t, s.RequireNoToken(ctx))

	require.NoError(t, s.Save(ctx, "tok"))

	token, err := s.RequireToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.ErrorIs(t, s.RequireNoToken(ctx), ErrAlreadyLoggedIn)

	require.NoError(t, s.Clear(ctx))
	_, err = s.RequireToken(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestSession_CorruptEntryCountsAsLoggedOut(t *testing.T) {
	kv := storage.NewMemory()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, TokenKey, []byte("not json")))

	_, ok, err := New(kv).Token(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
