package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/user-accounts/internal/model"
)

func newRepoWithMock(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepo(db), mock
}

var userRowColumns = []string{"id", "username", "email", "full_name", "password_hash", "avatar", "cover_image", "refresh_token", "created_at", "updated_at"}

func TestUserRepo_Create(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (" + userColumns + ") VALUES (?,?,?,?,?,?,?,?,?,?)")).
		WithArgs("u-1", "alice", "a@x.io", "Alice", "hash", "http://img/a.png", "", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &model.User{ID: "u-1", Username: "alice", Email: "a@x.io", FullName: "Alice", PasswordHash: "hash", Avatar: "http://img/a.png"}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.False(t, u.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Create_Duplicate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: mysqlDuplicateEntry, Message: "Duplicate entry 'alice' for key 'uq_users_username'"})

	err := repo.Create(context.Background(), &model.User{ID: "u-1", Username: "alice"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserRepo_Create_DataTooLong(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: mysqlDataTooLong, Message: "Data too long for column 'username' at row 1"})

	err := repo.Create(context.Background(), &model.User{ID: "u-1", Username: "alice"})
	assert.ErrorIs(t, err, ErrTooLong)
	assert.Contains(t, err.Error(), "username")
}

func TestUserRepo_Create_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec("INSERT INTO users").WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &model.User{ID: "u-1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), "db down")
}

func TestUserRepo_FindByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE id=? LIMIT 1")).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u-1", "alice", "a@x.io", "Alice", "hash", "av", "", "tok", now, now))

	u, err := repo.FindByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "tok", u.StoredRefreshToken())
}

func TestUserRepo_FindByID_NullRefreshToken(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .* FROM users WHERE id=").
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u-1", "alice", "a@x.io", "Alice", "hash", "av", "", nil, now, now))

	u, err := repo.FindByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Nil(t, u.RefreshToken)
}

func TestUserRepo_FindByID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery("SELECT .* FROM users WHERE id=").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_FindPublicByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + publicUserColumns + " FROM users WHERE id=? LIMIT 1")).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "full_name", "avatar", "cover_image", "created_at", "updated_at"}).
			AddRow("u-1", "alice", "a@x.io", "Alice", "av", "cv", now, now))

	p, err := repo.FindPublicByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "cv", p.CoverImage)
}

func TestUserRepo_FindByUsernameOrEmail(t *testing.T) {
	now := time.Now().UTC()
	tests := []struct {
		name     string
		username string
		email    string
		where    string
		args     []any
	}{
		{"both", " Alice ", "A@X.io", "username=? OR email=?", []any{"alice", "a@x.io"}},
		{"username only", "alice", "", "username=?", []any{"alice"}},
		{"email only", "", "a@x.io", "email=?", []any{"a@x.io"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			args := make([]driver.Value, 0, len(tt.args))
			for _, a := range tt.args {
				args = append(args, a)
			}
			mock.ExpectQuery(regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE " + tt.where + " LIMIT 1")).
				WithArgs(args...).
				WillReturnRows(sqlmock.NewRows(userRowColumns).
					AddRow("u-1", "alice", "a@x.io", "Alice", "hash", "av", "", nil, now, now))

			u, err := repo.FindByUsernameOrEmail(context.Background(), tt.username, tt.email)
			require.NoError(t, err)
			assert.Equal(t, "u-1", u.ID)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepo_FindByUsernameOrEmail_BothEmpty(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	_, err := repo.FindByUsernameOrEmail(context.Background(), " ", "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_SetAndUnsetRefreshToken(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET refresh_token=?, updated_at=? WHERE id=?")).
		WithArgs("tok", sqlmock.AnyArg(), "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET refresh_token=NULL, updated_at=? WHERE id=?")).
		WithArgs(sqlmock.AnyArg(), "u-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.SetRefreshToken(context.Background(), "u-1", "tok"))
	require.NoError(t, repo.UnsetRefreshToken(context.Background(), "u-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_SetRefreshToken_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET refresh_token=?, updated_at=? WHERE id=?")).
		WithArgs("tok", sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetRefreshToken(context.Background(), "missing", "tok")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_SwapRefreshToken(t *testing.T) {
	q := regexp.QuoteMeta("UPDATE users SET refresh_token=?, updated_at=? WHERE id=? AND refresh_token=?")

	t.Run("swapped", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).
			WithArgs("new", sqlmock.AnyArg(), "u-1", "old").
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.SwapRefreshToken(context.Background(), "u-1", "old", "new")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("stale", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).
			WithArgs("new", sqlmock.AnyArg(), "u-1", "old").
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.SwapRefreshToken(context.Background(), "u-1", "old", "new")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestUserRepo_Delete(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := regexp.QuoteMeta("DELETE FROM users WHERE id=?")

	mock.ExpectExec(q).WithArgs("u-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("u-1").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "u-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "u-1"), ErrNotFound)
}
