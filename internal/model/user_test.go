package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingHasher struct{ calls int }

func (h *countingHasher) Hash(plain string) (string, error) {
	h.calls++
	return "hashed:" + plain, nil
}

type failingHasher struct{}

func (failingHasher) Hash(string) (string, error) { return "", errors.New("boom") }

func TestHashPendingPassword_HashesOnce(t *testing.T) {
	h := &countingHasher{}
	u := &User{}
	u.SetPassword("s3cret")
	require.True(t, u.PasswordModified())

	require.NoError(t, u.HashPendingPassword(h))
	assert.Equal(t, "hashed:s3cret", u.PasswordHash)
	assert.False(t, u.PasswordModified())

	// second save without a password change
	require.NoError(t, u.HashPendingPassword(h))
	assert.Equal(t, 1, h.calls)
	assert.Equal(t, "hashed:s3cret", u.PasswordHash)
}

func TestHashPendingPassword_ErrorKeepsStagedValue(t *testing.T) {
	u := &User{}
	u.SetPassword("s3cret")

	require.Error(t, u.HashPendingPassword(failingHasher{}))
	assert.True(t, u.PasswordModified())
	assert.Empty(t, u.PasswordHash)
}

func TestPublicDropsSecrets(t *testing.T) {
	tok := "refresh"
	u := &User{ID: "u-1", Username: "alice", Email: "a@x.io", PasswordHash: "h", RefreshToken: &tok}

	p := u.Public()
	assert.Equal(t, "u-1", p.ID)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, "refresh", u.StoredRefreshToken())
}

func TestNormalizeIdentifier(t *testing.T) {
	assert.Equal(t, "alice@example.com", NormalizeIdentifier("  Alice@Example.COM "))
}
