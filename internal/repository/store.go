package repository

import (
	"context"

	"github.com/iliyamo/user-accounts/internal/model"
)

// UserStore is the persistence contract the session service depends on.
// Refresh-token writes are partial updates: they never touch the password.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindPublicByID(ctx context.Context, id string) (*model.PublicUser, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error)
	SetRefreshToken(ctx context.Context, id, token string) error
	SwapRefreshToken(ctx context.Context, id, current, next string) (bool, error)
	UnsetRefreshToken(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

var (
	_ UserStore = (*UserRepo)(nil)
	_ UserStore = (*MemoryUserRepo)(nil)
	_ UserStore = (*CachedUserRepo)(nil)
)
