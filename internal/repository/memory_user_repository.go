package repository

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/user-accounts/internal/model"
)

// MemoryUserRepo keeps users in process memory. It mirrors UserRepo's
// semantics, including the unique constraints and the conditional refresh
// token swap, and is selected with STORE_DRIVER=memory.
type MemoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]model.User
}

// NewMemoryUserRepo returns an empty store.
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: make(map[string]model.User)}
}

// Create stores a copy of u. A clash on id, username or email yields
// ErrDuplicate.
func (r *MemoryUserRepo) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.ID == u.ID || existing.Username == u.Username || existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID] = copyUser(*u)
	return nil
}

// FindByID returns a copy of the full record.
func (r *MemoryUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := copyUser(u)
	return &c, nil
}

// FindPublicByID returns the record without credentials.
func (r *MemoryUserRepo) FindPublicByID(ctx context.Context, id string) (*model.PublicUser, error) {
	u, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Public(), nil
}

// FindByUsernameOrEmail matches either normalized identifier; empty ones are
// ignored.
func (r *MemoryUserRepo) FindByUsernameOrEmail(_ context.Context, username, email string) (*model.User, error) {
	username = model.NormalizeIdentifier(username)
	email = model.NormalizeIdentifier(email)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			c := copyUser(u)
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

// SetRefreshToken replaces the stored refresh token. Unknown ids yield
// ErrNotFound.
func (r *MemoryUserRepo) SetRefreshToken(_ context.Context, id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.RefreshToken = &token
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u
	return nil
}

// SwapRefreshToken sets next only while current is the stored token.
func (r *MemoryUserRepo) SwapRefreshToken(_ context.Context, id, current, next string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.RefreshToken == nil || *u.RefreshToken != current {
		return false, nil
	}
	u.RefreshToken = &next
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u
	return true, nil
}

// UnsetRefreshToken clears the refresh token; unknown ids are a no-op.
func (r *MemoryUserRepo) UnsetRefreshToken(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil
	}
	u.RefreshToken = nil
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u
	return nil
}

// Delete removes the user or returns ErrNotFound.
func (r *MemoryUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// copyUser detaches the refresh token pointer so callers never alias
// the stored record.
func copyUser(u model.User) model.User {
	if u.RefreshToken != nil {
		tok := *u.RefreshToken
		u.RefreshToken = &tok
	}
	return u
}
