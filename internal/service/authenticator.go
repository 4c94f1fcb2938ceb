package service

import (
	"context"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/user-accounts/internal/apperror"
	"github.com/iliyamo/user-accounts/internal/model"
	"github.com/iliyamo/user-accounts/internal/repository"
	"github.com/iliyamo/user-accounts/internal/utils"
)

// Credentials are the raw access-token sources of a request.
type Credentials struct {
	Cookie        string // value of the accessToken cookie
	Authorization string // Authorization header
}

// Token picks the access token: the cookie wins, then a Bearer header.
func (c Credentials) Token() string {
	if t := strings.TrimSpace(c.Cookie); t != "" {
		return t
	}
	h := strings.TrimSpace(c.Authorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Authenticator resolves the identity behind an access token.
type Authenticator struct {
	users  repository.UserStore
	tokens *utils.TokenService
}

// NewAuthenticator resolves identities against users, verifying access
// tokens with tokens.
func NewAuthenticator(users repository.UserStore, tokens *utils.TokenService) *Authenticator {
	return &Authenticator{users: users, tokens: tokens}
}

// Authenticate verifies the access token in cred and loads its user.
func (a *Authenticator) Authenticate(ctx context.Context, cred Credentials) (*model.PublicUser, error) {
	token := cred.Token()
	if token == "" {
		return nil, apperror.Auth(MsgUnauthorized)
	}

	claims, err := a.tokens.Verify(token, utils.AccessToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.AuthWrap(MsgAccessExpired, err)
		}
		return nil, apperror.AuthWrap(MsgInvalidAccess, err)
	}

	u, err := a.users.FindPublicByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Auth(MsgInvalidAccess)
		}
		return nil, apperror.Internal(MsgLookupFailure, err)
	}
	return u, nil
}
