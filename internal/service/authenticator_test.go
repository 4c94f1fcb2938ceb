package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/user-accounts/internal/apperror"
	"github.com/iliyamo/user-accounts/internal/utils"
)

func TestCredentialsToken(t *testing.T) {
	cases := []struct {
		name string
		in   Credentials
		want string
	}{
		{"cookie", Credentials{Cookie: "c"}, "c"},
		{"cookie wins", Credentials{Cookie: "c", Authorization: "Bearer h"}, "c"},
		{"bearer", Credentials{Authorization: "Bearer h"}, "h"},
		{"bearer any case", Credentials{Authorization: "bearer  h "}, "h"},
		{"other scheme", Credentials{Authorization: "Basic abc"}, ""},
		{"bare prefix", Credentials{Authorization: "Bearer "}, ""},
		{"none", Credentials{}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.in.Token())
		})
	}
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	id := f.register(t)
	ctx := context.Background()
	a := NewAuthenticator(f.store, f.tokens)

	login, err := f.svc.Login(ctx, LoginInput{Username: "alice", Password: "wonderland"})
	require.NoError(t, err)

	t.Run("no credentials", func(t *testing.T) {
		_, err := a.Authenticate(ctx, Credentials{})
		requireAppError(t, err, apperror.KindAuth, MsgUnauthorized)
	})

	t.Run("cookie", func(t *testing.T) {
		u, err := a.Authenticate(ctx, Credentials{Cookie: login.AccessToken})
		require.NoError(t, err)
		assert.Equal(t, id, u.ID)
	})

	t.Run("bearer header", func(t *testing.T) {
		u, err := a.Authenticate(ctx, Credentials{Authorization: "Bearer " + login.AccessToken})
		require.NoError(t, err)
		assert.Equal(t, id, u.ID)
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		_, err := a.Authenticate(ctx, Credentials{Cookie: login.RefreshToken})
		requireAppError(t, err, apperror.KindAuth, MsgInvalidAccess)
		assert.ErrorIs(t, err, utils.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past, err := utils.NewTokenServiceWithClock(testTokenConfig(), func() time.Time {
			return time.Now().Add(-time.Hour)
		})
		require.NoError(t, err)
		stale, err := past.SignAccess(utils.AccessSubject{ID: id, Username: "alice"})
		require.NoError(t, err)

		_, err = a.Authenticate(ctx, Credentials{Cookie: stale})
		requireAppError(t, err, apperror.KindAuth, MsgAccessExpired)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("deleted user", func(t *testing.T) {
		require.NoError(t, f.svc.DeleteAccount(ctx, id))

		_, err := a.Authenticate(ctx, Credentials{Cookie: login.AccessToken})
		requireAppError(t, err, apperror.KindAuth, MsgInvalidAccess)
	})
}
