package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-accounts/internal/service"
)

// AccessTokenCookie is the cookie carrying the access token.
const AccessTokenCookie = "accessToken"

// authLookupTimeout bounds the user lookup behind each authenticated request.
const authLookupTimeout = 5 * time.Second

// Authenticate returns an Echo middleware that validates the access token
// from the accessToken cookie or a Bearer header and stores the resolved
// user in the request context. Failures are returned as errors so the
// central error handler renders them.
func Authenticate(a *service.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cred := service.Credentials{
				Authorization: c.Request().Header.Get(echo.HeaderAuthorization),
			}
			if ck, err := c.Cookie(AccessTokenCookie); err == nil {
				cred.Cookie = ck.Value
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), authLookupTimeout)
			u, err := a.Authenticate(ctx, cred)
			cancel()
			if err != nil {
				return err
			}
			setCurrentUser(c, u)
			return next(c)
		}
	}
}
