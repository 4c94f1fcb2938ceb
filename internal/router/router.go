package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-accounts/internal/handler"
	"github.com/iliyamo/user-accounts/internal/middleware"
	"github.com/iliyamo/user-accounts/internal/service"
)

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the account routes under /v1/users. Register, login
// and refresh are public; everything else runs behind Authenticate.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, authn *service.Authenticator) {
	g := e.Group("/v1/users")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh-token", a.Refresh)

	requireUser := middleware.Authenticate(authn)
	g.POST("/logout", a.Logout, requireUser)
	g.GET("/me", a.Me, requireUser)
	g.DELETE("/me", a.DeleteMe, requireUser)
}
