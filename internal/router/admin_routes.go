package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-rental/internal/handler"
	"github.com/iliyamo/movie-rental/internal/middleware"
	"github.com/iliyamo/movie-rental/internal/model"
)

// RegisterAdmin mounts ADMIN-only pricing and promo management.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/tiers", h.ListTiers)
	g.POST("/tiers", h.CreateTier)
	g.PATCH("/tiers/:id", h.SetTierActive)
	g.GET("/promos", h.ListPromos)
	g.POST("/promos", h.CreatePromo)
	g.PUT("/movies/:id/tier", h.SetMovieTier)
}
