// Package router mounts handlers on echo with their middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-rental/internal/handler"
	"github.com/iliyamo/movie-rental/internal/metrics"
	"github.com/iliyamo/movie-rental/internal/middleware"
)

// RegisterRoutes exposes the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// RegisterAuth mounts account endpoints.  Register and login run behind
// viewer so an anonymous token in the request can be claimed.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, viewer echo.MiddlewareFunc, jwtSecret string) {
	g := e.Group("/v1/auth", viewer)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterAnonymous mounts anonymous identity issuance.
func RegisterAnonymous(e *echo.Echo, h *handler.AnonymousHandler, limit echo.MiddlewareFunc) {
	e.POST("/v1/anonymous", h.Issue, limit)
	e.GET("/v1/anonymous/validate", h.Validate)
}
