package model

import (
	"strings"
	"time"
)

// User represents an account record as stored in the `users` table.
// PasswordHash never holds plaintext once the record has been persisted:
// a new password is staged with SetPassword and turned into a hash by
// HashPendingPassword before the write.
//
// Fields:
//
//	ID           – UUID primary key.
//	Username     – unique, trimmed and lowercased.
//	Email        – unique, trimmed and lowercased.
//	FullName     – display name.
//	PasswordHash – bcrypt hash of the password.
//	Avatar       – required avatar reference (URL).
//	CoverImage   – optional cover-image reference, empty when absent.
//	RefreshToken – the single live refresh token, nil when logged out.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	Avatar       string
	CoverImage   string
	RefreshToken *string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	pendingPassword  string
	passwordModified bool
}

// PublicUser is the projection of a User without the password hash and the
// refresh token. It is the only user shape handed to clients.
type PublicUser struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TokenPair holds the credentials handed to a client after login or refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// PasswordHasher is the hashing capability HashPendingPassword needs.
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// SetPassword stages a new plaintext password and marks the field modified.
func (u *User) SetPassword(plain string) {
	u.pendingPassword = plain
	u.passwordModified = true
}

// PasswordModified reports whether a staged password still has to be hashed.
func (u *User) PasswordModified() bool { return u.passwordModified }

// HashPendingPassword hashes the staged password, if any. Calling it again
// without a new SetPassword is a no-op, so a password is hashed exactly once.
func (u *User) HashPendingPassword(h PasswordHasher) error {
	if !u.passwordModified {
		return nil
	}
	hash, err := h.Hash(u.pendingPassword)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.pendingPassword = ""
	u.passwordModified = false
	return nil
}

// Public returns the response projection of u.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// StoredRefreshToken returns the live refresh token or "" when none is set.
func (u *User) StoredRefreshToken() string {
	if u.RefreshToken == nil {
		return ""
	}
	return *u.RefreshToken
}

// NormalizeIdentifier trims and lowercases a username or email.
func NormalizeIdentifier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
