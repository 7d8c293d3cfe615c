package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health answers load balancer health checks.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
