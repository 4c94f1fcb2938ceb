package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/user-accounts/internal/logging"
	"github.com/iliyamo/user-accounts/internal/model"
	"github.com/iliyamo/user-accounts/internal/repository"
	"github.com/iliyamo/user-accounts/internal/service"
	"github.com/iliyamo/user-accounts/internal/utils"
)

// deadlineStore records the context deadline of every lookup by identifier.
type deadlineStore struct {
	*repository.MemoryUserRepo
	mu        sync.Mutex
	deadlines []time.Time
	missing   int
}

func (s *deadlineStore) FindByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	s.mu.Lock()
	if d, ok := ctx.Deadline(); ok {
		s.deadlines = append(s.deadlines, d)
	} else {
		s.missing++
	}
	s.mu.Unlock()
	return s.MemoryUserRepo.FindByUsernameOrEmail(ctx, username, email)
}

func newTestHandler(t *testing.T, store repository.UserStore) *AuthHandler {
	t.Helper()
	tokens, err := utils.NewTokenService(utils.TokenConfig{
		AccessSecret:  "access-secret",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    24 * time.Hour,
	})
	require.NoError(t, err)
	auth := service.NewAuthService(store, utils.NewBcryptHasher(bcrypt.MinCost), tokens, nil, logging.Discard())
	return NewAuthHandler(auth, tokens, false)
}

func postJSON(h echo.HandlerFunc, body string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, h(echo.New().NewContext(req, rec))
}

func TestAuthHandler_StoreCallsCarryRequestTimeout(t *testing.T) {
	store := &deadlineStore{MemoryUserRepo: repository.NewMemoryUserRepo()}
	h := newTestHandler(t, store)

	rec, err := postJSON(h.Register, `{"fullName":"Alice","email":"alice@example.com","username":"alice","password":"wonderland","avatar":"https://cdn/a.png"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, err = postJSON(h.Login, `{"username":"alice","password":"wonderland"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Zero(t, store.missing)
	require.Len(t, store.deadlines, 2)
	for _, d := range store.deadlines {
		assert.WithinDuration(t, time.Now().Add(requestTimeout), d, time.Second)
	}
}
