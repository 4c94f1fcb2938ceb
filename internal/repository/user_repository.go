package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/user-accounts/internal/model"
)

// MySQL server error numbers mapped to repository sentinels.
const (
	mysqlDuplicateEntry = 1062 // unique key violation
	mysqlDataTooLong    = 1406 // value wider than its column
)

const userColumns = "id,username,email,full_name,password_hash,avatar,cover_image,refresh_token,created_at,updated_at"

const publicUserColumns = "id,username,email,full_name,avatar,cover_image,created_at,updated_at"

// UserRepo persists users in MySQL.
type UserRepo struct{ DB *sql.DB }

// NewUserRepo returns a UserRepo on db. The schema is expected to be
// migrated already (see database.Migrate).
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts u. The password must already be hashed and ID assigned.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = u.CreatedAt
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?,?,?,?,?,?,?,?,?,?)",
		u.ID, u.Username, u.Email, u.FullName, u.PasswordHash, u.Avatar, u.CoverImage,
		nullString(u.RefreshToken), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) {
			switch myErr.Number {
			case mysqlDuplicateEntry:
				return ErrDuplicate
			case mysqlDataTooLong:
				return fmt.Errorf("%w: %s", ErrTooLong, myErr.Message)
			}
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// FindByID fetches the full record by id.
func (r *UserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// FindPublicByID fetches the record without password_hash and refresh_token.
func (r *UserRepo) FindPublicByID(ctx context.Context, id string) (*model.PublicUser, error) {
	var p model.PublicUser
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+publicUserColumns+" FROM users WHERE id=? LIMIT 1", id).
		Scan(&p.ID, &p.Username, &p.Email, &p.FullName, &p.Avatar, &p.CoverImage, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &p, nil
}

// FindByUsernameOrEmail returns the first user matching either identifier.
// Empty identifiers are ignored; both empty yields ErrNotFound.
func (r *UserRepo) FindByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	var (
		conds []string
		args  []any
	)
	if username = model.NormalizeIdentifier(username); username != "" {
		conds = append(conds, "username=?")
		args = append(args, username)
	}
	if email = model.NormalizeIdentifier(email); email != "" {
		conds = append(conds, "email=?")
		args = append(args, email)
	}
	if len(conds) == 0 {
		return nil, ErrNotFound
	}
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+strings.Join(conds, " OR ")+" LIMIT 1", args...)
	return scanUser(row)
}

// SetRefreshToken stores token as the user's only live refresh token.
// It returns ErrNotFound when no row matches id.
func (r *UserRepo) SetRefreshToken(ctx context.Context, id, token string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token=?, updated_at=? WHERE id=?",
		token, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SwapRefreshToken replaces current with next only if current is still the
// stored value. It reports false when another writer got there first.
func (r *UserRepo) SwapRefreshToken(ctx context.Context, id, current, next string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token=?, updated_at=? WHERE id=? AND refresh_token=?",
		next, time.Now().UTC(), id, current)
	if err != nil {
		return false, fmt.Errorf("swap refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("swap refresh token: %w", err)
	}
	return n == 1, nil
}

// UnsetRefreshToken clears the stored refresh token. Clearing an already
// empty field is not an error.
func (r *UserRepo) UnsetRefreshToken(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token=NULL, updated_at=? WHERE id=?",
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("unset refresh token: %w", err)
	}
	return nil
}

// Delete removes the user row.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u       model.User
		refresh sql.NullString
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash,
		&u.Avatar, &u.CoverImage, &refresh, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	if refresh.Valid {
		u.RefreshToken = &refresh.String
	}
	return &u, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
