// Package service holds the session logic: registration, login, token
// issuance and rotation, and request authentication. It depends on the user
// store, the password hasher and the token service through narrow types so
// the HTTP layer never touches persistence or crypto directly.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/iliyamo/user-accounts/internal/apperror"
	"github.com/iliyamo/user-accounts/internal/model"
	"github.com/iliyamo/user-accounts/internal/queue"
	"github.com/iliyamo/user-accounts/internal/repository"
	"github.com/iliyamo/user-accounts/internal/utils"
)

// Client-facing messages.
const (
	MsgAllFieldsRequired  = "All fields are required"
	MsgAvatarRequired     = "Avatar is required"
	MsgIdentifierRequired = "Username or email is required"
	MsgUserExists         = "User with email or username already exists"
	MsgUserNotFound       = "User does not exist"
	MsgInvalidCredentials = "Invalid user credentials"
	MsgUnauthorized       = "Unauthorized request"
	MsgInvalidRefresh     = "Invalid refresh token"
	MsgRefreshReused      = "Refresh token is expired or used"
	MsgInvalidAccess      = "Invalid access token"
	MsgAccessExpired      = "Access token expired"
	MsgTokenFailure       = "Something went wrong while generating tokens"
	MsgRegisterFailure    = "Something went wrong while registering the user"
	MsgLogoutFailure      = "Something went wrong while logging out"
	MsgLookupFailure      = "Something went wrong while loading the user"
	MsgDeleteFailure      = "Something went wrong while deleting the user"
	MsgFieldTooLong       = "One or more fields are too long"
)

// Field limits, in characters, matching the users table columns. Passwords
// are limited in bytes because bcrypt only reads the first 72.
const (
	MaxUsernameLen = 64
	MaxEmailLen    = 255
	MaxFullNameLen = 255
	MaxImageURLLen = 1024
	MaxPasswordLen = 72
)

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// EventPublisher delivers auth events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.AuthEvent) error
}

// RegisterInput is the registration payload. Avatar and CoverImage are
// references to already-hosted assets.
type RegisterInput struct {
	FullName   string
	Email      string
	Username   string
	Password   string
	Avatar     string
	CoverImage string
}

// LoginInput identifies the account by username or email.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// LoginResult is what a successful login hands back.
type LoginResult struct {
	User *model.PublicUser `json:"user"`
	model.TokenPair
}

// AuthService implements the session operations.
type AuthService struct {
	users  repository.UserStore
	hasher Hasher
	tokens *utils.TokenService
	events EventPublisher
	log    *slog.Logger
	now    func() time.Time
}

// NewAuthService wires the session operations. A nil publisher disables
// events and a nil logger falls back to slog.Default.
func NewAuthService(users repository.UserStore, hasher Hasher, tokens *utils.TokenService, events EventPublisher, log *slog.Logger) *AuthService {
	if events == nil {
		events = NopPublisher{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		events: events,
		log:    log,
		now:    time.Now,
	}
}

// Register creates an account. Checks run in a fixed order and the first
// failing one is reported.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.PublicUser, error) {
	for _, f := range []string{in.FullName, in.Email, in.Username, in.Password} {
		if strings.TrimSpace(f) == "" {
			return nil, apperror.Validation(MsgAllFieldsRequired)
		}
	}
	if err := checkLengths(in); err != nil {
		return nil, err
	}

	username := model.NormalizeIdentifier(in.Username)
	email := model.NormalizeIdentifier(in.Email)

	_, err := s.users.FindByUsernameOrEmail(ctx, username, email)
	switch {
	case err == nil:
		return nil, apperror.Conflict(MsgUserExists)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperror.Internal(MsgRegisterFailure, err)
	}

	if strings.TrimSpace(in.Avatar) == "" {
		return nil, apperror.Validation(MsgAvatarRequired)
	}

	u := &model.User{
		ID:         uuid.NewString(),
		Username:   username,
		Email:      email,
		FullName:   strings.TrimSpace(in.FullName),
		Avatar:     strings.TrimSpace(in.Avatar),
		CoverImage: strings.TrimSpace(in.CoverImage),
	}
	u.SetPassword(in.Password)
	if err := u.HashPendingPassword(s.hasher); err != nil {
		return nil, apperror.Internal(MsgRegisterFailure, err)
	}

	if err := s.users.Create(ctx, u); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperror.Conflict(MsgUserExists)
		case errors.Is(err, repository.ErrTooLong):
			return nil, apperror.ValidationWrap(MsgFieldTooLong, err)
		}
		return nil, apperror.Internal(MsgRegisterFailure, err)
	}

	created, err := s.users.FindPublicByID(ctx, u.ID)
	if err != nil {
		return nil, apperror.Internal(MsgRegisterFailure, err)
	}

	s.publish(ctx, queue.EventUserRegistered, created.ID, created.Username)
	return created, nil
}

// Login checks the credentials and issues a fresh token pair, replacing any
// refresh token previously stored for the account.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	username := model.NormalizeIdentifier(in.Username)
	email := model.NormalizeIdentifier(in.Email)
	if username == "" && email == "" {
		return nil, apperror.Validation(MsgIdentifierRequired)
	}

	u, err := s.users.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound(MsgUserNotFound)
		}
		return nil, apperror.Internal(MsgLookupFailure, err)
	}

	if !s.hasher.Verify(in.Password, u.PasswordHash) {
		return nil, apperror.Auth(MsgInvalidCredentials)
	}

	pair, err := s.IssueTokenPair(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	pub, err := s.users.FindPublicByID(ctx, u.ID)
	if err != nil {
		return nil, apperror.Internal(MsgLookupFailure, err)
	}

	s.publish(ctx, queue.EventUserLoggedIn, pub.ID, pub.Username)
	return &LoginResult{User: pub, TokenPair: *pair}, nil
}

// IssueTokenPair mints an access/refresh pair for userID and stores the
// refresh token as the single live one.
func (s *AuthService) IssueTokenPair(ctx context.Context, userID string) (*model.TokenPair, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(MsgTokenFailure, err)
	}
	pair, err := s.signPair(u)
	if err != nil {
		return nil, apperror.Internal(MsgTokenFailure, err)
	}
	if err := s.users.SetRefreshToken(ctx, u.ID, pair.RefreshToken); err != nil {
		return nil, apperror.Internal(MsgTokenFailure, err)
	}
	return pair, nil
}

// Logout drops the stored refresh token. Logging out twice is fine.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.users.UnsetRefreshToken(ctx, userID); err != nil {
		return apperror.Internal(MsgLogoutFailure, err)
	}
	s.publish(ctx, queue.EventUserLoggedOut, userID, "")
	return nil
}

// Refresh exchanges a live refresh token for a new pair. The incoming token
// must be the one currently stored; anything else is treated as reuse.
func (s *AuthService) Refresh(ctx context.Context, incoming string) (*model.TokenPair, error) {
	incoming = strings.TrimSpace(incoming)
	if incoming == "" {
		return nil, apperror.Auth(MsgUnauthorized)
	}

	claims, err := s.tokens.Verify(incoming, utils.RefreshToken)
	if err != nil {
		return nil, apperror.AuthWrap(MsgInvalidRefresh, err)
	}

	u, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Auth(MsgInvalidRefresh)
		}
		return nil, apperror.Internal(MsgTokenFailure, err)
	}

	if incoming != u.StoredRefreshToken() {
		s.reuseDetected(ctx, u)
		return nil, apperror.Auth(MsgRefreshReused)
	}

	pair, err := s.signPair(u)
	if err != nil {
		return nil, apperror.Internal(MsgTokenFailure, err)
	}

	swapped, err := s.users.SwapRefreshToken(ctx, u.ID, incoming, pair.RefreshToken)
	if err != nil {
		return nil, apperror.Internal(MsgTokenFailure, err)
	}
	if !swapped {
		// a concurrent refresh rotated the token first
		s.reuseDetected(ctx, u)
		return nil, apperror.Auth(MsgRefreshReused)
	}

	s.publish(ctx, queue.EventTokenRefreshed, u.ID, u.Username)
	return pair, nil
}

// CurrentUser returns the public projection of userID.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*model.PublicUser, error) {
	u, err := s.users.FindPublicByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound(MsgUserNotFound)
		}
		return nil, apperror.Internal(MsgLookupFailure, err)
	}
	return u, nil
}

// DeleteAccount removes userID. Tokens already handed out stop
// authenticating because the user lookup behind them fails.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound(MsgUserNotFound)
		}
		return apperror.Internal(MsgDeleteFailure, err)
	}
	s.publish(ctx, queue.EventUserDeleted, userID, "")
	return nil
}

// checkLengths rejects values the store would not fit.
func checkLengths(in RegisterInput) error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"Full name", strings.TrimSpace(in.FullName), MaxFullNameLen},
		{"Email", model.NormalizeIdentifier(in.Email), MaxEmailLen},
		{"Username", model.NormalizeIdentifier(in.Username), MaxUsernameLen},
		{"Avatar", strings.TrimSpace(in.Avatar), MaxImageURLLen},
		{"Cover image", strings.TrimSpace(in.CoverImage), MaxImageURLLen},
	}
	for _, f := range fields {
		if utf8.RuneCountInString(f.value) > f.max {
			return apperror.Validation(fmt.Sprintf("%s must be at most %d characters", f.name, f.max))
		}
	}
	if len(in.Password) > MaxPasswordLen {
		return apperror.Validation(fmt.Sprintf("Password must be at most %d bytes", MaxPasswordLen))
	}
	return nil
}

func (s *AuthService) signPair(u *model.User) (*model.TokenPair, error) {
	access, err := s.tokens.SignAccess(utils.AccessSubject{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		FullName: u.FullName,
	})
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.SignRefresh(u.ID)
	if err != nil {
		return nil, err
	}
	return &model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) reuseDetected(ctx context.Context, u *model.User) {
	s.log.WarnContext(ctx, "refresh token reuse detected", "user_id", u.ID)
	s.publish(ctx, queue.EventRefreshReuseDetected, u.ID, u.Username)
}

// publish never fails the caller; broker trouble is only logged.
func (s *AuthService) publish(ctx context.Context, typ, userID, username string) {
	ev := queue.AuthEvent{
		Type:       typ,
		UserID:     userID,
		Username:   username,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.WarnContext(ctx, "publish auth event failed", "type", typ, "user_id", userID, "err", err)
	}
}
