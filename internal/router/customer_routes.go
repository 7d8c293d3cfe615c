package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-rental/internal/handler"
	"github.com/iliyamo/movie-rental/internal/middleware"
)

// Viewer bundles the middleware shared by the viewer-facing routes.
type Viewer struct {
	Resolve echo.MiddlewareFunc // middleware.Viewer
	Limit   echo.MiddlewareFunc // middleware.RateLimit
	Cache   echo.MiddlewareFunc // middleware.ResponseCache
}

// RegisterCatalogue mounts the public catalogue.  Only the listing is
// cached: details and prices may depend on the caller or a promo code.
func RegisterCatalogue(e *echo.Echo, h *handler.CatalogueHandler, v Viewer) {
	g := e.Group("/v1", v.Resolve, v.Limit)
	g.GET("/movies", h.List, v.Cache)
	g.GET("/movies/:id", h.Detail)
	g.GET("/movies/:id/price", h.Price)
	g.POST("/promo/validate", h.ValidatePromo)
}

// RegisterViewer mounts routes that need a user or anonymous identity.
func RegisterViewer(e *echo.Echo, r *handler.RentalHandler, p *handler.PlaybackHandler, v Viewer) {
	g := e.Group("/v1", v.Resolve, middleware.RequireViewer(), v.Limit)

	g.GET("/movies/:id/access", r.MovieAccess)
	g.POST("/movies/:id/rent", r.RentMovie)
	g.GET("/packs/:id/access", r.PackAccess)
	g.POST("/packs/:id/rent", r.RentPack)
	g.PUT("/packs/:id/position", r.PackPosition)
	g.GET("/rentals", r.List)

	g.POST("/movies/:id/play", p.Play)
	g.POST("/trailers/:id/token", p.Trailer)
}

// RegisterPlayback mounts the token check used by the video server.
func RegisterPlayback(e *echo.Echo, p *handler.PlaybackHandler) {
	e.GET("/v1/playback/verify", p.Verify)
}
