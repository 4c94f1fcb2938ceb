package router

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/user-accounts/internal/handler"
	"github.com/iliyamo/user-accounts/internal/middleware"
	"github.com/iliyamo/user-accounts/internal/service"
)

// NewServer builds the Echo instance with the error handler, the common
// middleware and every route registered.
func NewServer(log *slog.Logger, a *handler.AuthHandler, authn *service.Authenticator) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(log)

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))

	RegisterRoutes(e)
	RegisterAuth(e, a, authn)
	return e
}
