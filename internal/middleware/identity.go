package middleware

// identity.go holds the helpers that move the authenticated user in and out
// of the Echo context.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-accounts/internal/model"
)

const currentUserKey = "currentUser"

func setCurrentUser(c echo.Context, u *model.PublicUser) {
	c.Set(currentUserKey, u)
}

// CurrentUser returns the user attached by Authenticate, or nil when the
// route is not authenticated.
func CurrentUser(c echo.Context) *model.PublicUser {
	u, _ := c.Get(currentUserKey).(*model.PublicUser)
	return u
}

// userID returns the authenticated user's id, or "guest".
func userID(c echo.Context) string {
	if u := CurrentUser(c); u != nil {
		return u.ID
	}
	return "guest"
}
