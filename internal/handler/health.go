package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-accounts/internal/response"
)

// Health is used by load balancers and monitoring to check the process is up.
func Health(c echo.Context) error {
	return response.OK(c, http.StatusOK, echo.Map{"status": "ok"}, "ok")
}
