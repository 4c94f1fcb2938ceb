package utils // package utils provides password hashing and token signing helpers

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for any token that fails verification:
// malformed, wrong signature, wrong algorithm or expired. The parser's
// reason is wrapped so callers can log it.
var ErrInvalidToken = errors.New("invalid token")

// TokenKind selects which secret and lifetime a token uses.
type TokenKind uint8

const (
	AccessToken  TokenKind = iota + 1 // short-lived, authenticates requests
	RefreshToken                      // long-lived, only exchanged for a new pair
)

// String names the kind for logs.
func (k TokenKind) String() string {
	switch k {
	case AccessToken:
		return "access"
	case RefreshToken:
		return "refresh"
	}
	return "unknown"
}

// TokenConfig carries the signing secrets and lifetimes. Access and refresh
// tokens must use distinct secrets.
type TokenConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

// Claims is the JWT payload. Access tokens carry every identity field;
// refresh tokens carry only the user id. RegisteredClaims supplies exp, iat
// and a random jti so two tokens minted in the same second still differ.
type Claims struct {
	UserID   string `json:"id"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	FullName string `json:"fullName,omitempty"`
	jwt.RegisteredClaims
}

// AccessSubject is the identity embedded in an access token.
type AccessSubject struct {
	ID       string
	Email    string
	Username string
	FullName string
}

// TokenService mints and verifies HS256 access and refresh tokens.
type TokenService struct {
	cfg TokenConfig
	now func() time.Time
}

// NewTokenService validates cfg and returns a service using the wall clock.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	return NewTokenServiceWithClock(cfg, time.Now)
}

// NewTokenServiceWithClock is NewTokenService with an injectable clock.
func NewTokenServiceWithClock(cfg TokenConfig, now func() time.Time) (*TokenService, error) {
	switch {
	case cfg.AccessSecret == "" || cfg.RefreshSecret == "":
		return nil, errors.New("token secrets must not be empty")
	case cfg.AccessSecret == cfg.RefreshSecret:
		return nil, errors.New("access and refresh secrets must differ")
	case cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0:
		return nil, errors.New("token lifetimes must be positive")
	}
	if now == nil {
		now = time.Now
	}
	return &TokenService{cfg: cfg, now: now}, nil
}

// SignAccess returns a signed access token for s.
func (ts *TokenService) SignAccess(s AccessSubject) (string, error) {
	return ts.sign(AccessToken, Claims{
		UserID:   s.ID,
		Email:    s.Email,
		Username: s.Username,
		FullName: s.FullName,
	})
}

// SignRefresh returns a signed refresh token carrying only userID.
func (ts *TokenService) SignRefresh(userID string) (string, error) {
	return ts.sign(RefreshToken, Claims{UserID: userID})
}

// Verify parses token under the secret of kind and returns its claims.
// Only HS256 is accepted and exp is mandatory, so a token signed with the
// other kind's secret, an unsigned token or one without expiry all fail with
// ErrInvalidToken.
func (ts *TokenService) Verify(token string, kind TokenKind) (*Claims, error) {
	secret, _, err := ts.params(kind)
	if err != nil {
		return nil, err
	}
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tok.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// TTL returns the configured lifetime for kind.
func (ts *TokenService) TTL(kind TokenKind) time.Duration {
	_, ttl, _ := ts.params(kind)
	return ttl
}

// sign stamps iat, exp and a fresh jti on claims and signs them with the
// secret of kind.
func (ts *TokenService) sign(kind TokenKind, claims Claims) (string, error) {
	secret, ttl, err := ts.params(kind)
	if err != nil {
		return "", err
	}
	now := ts.now().UTC()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// params returns the secret and lifetime configured for kind.
func (ts *TokenService) params(kind TokenKind) (string, time.Duration, error) {
	switch kind {
	case AccessToken:
		return ts.cfg.AccessSecret, ts.cfg.AccessTTL, nil
	case RefreshToken:
		return ts.cfg.RefreshSecret, ts.cfg.RefreshTTL, nil
	}
	return "", 0, fmt.Errorf("unknown token kind %d", kind)
}
