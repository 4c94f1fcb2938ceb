package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-accounts/internal/apperror"
	"github.com/iliyamo/user-accounts/internal/middleware"
	"github.com/iliyamo/user-accounts/internal/response"
	"github.com/iliyamo/user-accounts/internal/service"
	"github.com/iliyamo/user-accounts/internal/utils"
)

const refreshTokenCookie = "refreshToken"

// requestTimeout bounds the store and broker work of one request.
const requestTimeout = 5 * time.Second

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth         *service.AuthService
	Tokens       *utils.TokenService
	CookieSecure bool
}

// NewAuthHandler builds the auth endpoints. cookieSecure sets the Secure
// flag on the token cookies.
func NewAuthHandler(auth *service.AuthService, tokens *utils.TokenService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{Auth: auth, Tokens: tokens, CookieSecure: cookieSecure}
}

// ----- DTOs -----

type registerReq struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Avatar     string `json:"avatar"`
	CoverImage string `json:"coverImage"`
}

type loginReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

// Register: create the account; no tokens are issued.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	u, err := h.Auth.Register(ctx, service.RegisterInput{
		FullName:   req.FullName,
		Email:      req.Email,
		Username:   req.Username,
		Password:   req.Password,
		Avatar:     req.Avatar,
		CoverImage: req.CoverImage,
	})
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusCreated, u, "User registered successfully")
}

// Login: verify credentials, set both cookies and return the pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	res, err := h.Auth.Login(ctx, service.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	h.setTokenCookies(c, res.AccessToken, res.RefreshToken)
	return response.OK(c, http.StatusOK, res, "User logged in successfully")
}

// Logout: drop the stored refresh token and clear both cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return apperror.Auth(service.MsgUnauthorized)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	if err := h.Auth.Logout(ctx, u.ID); err != nil {
		return err
	}

	h.clearTokenCookies(c)
	return response.OK(c, http.StatusOK, nil, "User logged out")
}

// Refresh: rotate the refresh token taken from the cookie or the body.
func (h *AuthHandler) Refresh(c echo.Context) error {
	incoming := ""
	if ck, err := c.Cookie(refreshTokenCookie); err == nil {
		incoming = ck.Value
	}
	if incoming == "" {
		var req refreshReq
		// a missing or malformed body just means no token
		_ = c.Bind(&req)
		incoming = req.RefreshToken
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	pair, err := h.Auth.Refresh(ctx, incoming)
	if err != nil {
		return err
	}

	h.setTokenCookies(c, pair.AccessToken, pair.RefreshToken)
	return response.OK(c, http.StatusOK, pair, "Access token refreshed")
}

// Me: return the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return apperror.Auth(service.MsgUnauthorized)
	}
	return response.OK(c, http.StatusOK, u, "Current user fetched successfully")
}

// DeleteMe: delete the authenticated account and clear its cookies.
func (h *AuthHandler) DeleteMe(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return apperror.Auth(service.MsgUnauthorized)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()
	if err := h.Auth.DeleteAccount(ctx, u.ID); err != nil {
		return err
	}

	h.clearTokenCookies(c)
	return response.OK(c, http.StatusOK, nil, "User deleted")
}

func (h *AuthHandler) setTokenCookies(c echo.Context, access, refresh string) {
	now := time.Now()
	c.SetCookie(h.cookie(middleware.AccessTokenCookie, access, now.Add(h.Tokens.TTL(utils.AccessToken))))
	c.SetCookie(h.cookie(refreshTokenCookie, refresh, now.Add(h.Tokens.TTL(utils.RefreshToken))))
}

func (h *AuthHandler) clearTokenCookies(c echo.Context) {
	for _, name := range []string{middleware.AccessTokenCookie, refreshTokenCookie} {
		ck := h.cookie(name, "", time.Unix(0, 0))
		ck.MaxAge = -1
		c.SetCookie(ck)
	}
}

func (h *AuthHandler) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
