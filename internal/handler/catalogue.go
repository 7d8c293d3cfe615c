package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/movie-rental/internal/middleware"
	"github.com/iliyamo/movie-rental/internal/model"
	"github.com/iliyamo/movie-rental/internal/service"
)

// MovieReader is the catalogue read side.  *repository.MovieRepo
// satisfies it.
type MovieReader interface {
	GetByID(ctx context.Context, id string) (model.Movie, error)
	ListPublished(ctx context.Context, limit, offset int) ([]model.Movie, error)
	GetTrailer(ctx context.Context, id string) (model.Trailer, error)
}

// CatalogueHandler serves movie listings, details and prices.
type CatalogueHandler struct {
	Movies  MovieReader
	Pricing *service.PricingService
	Access  *service.EntitlementResolver
}

func NewCatalogueHandler(m MovieReader, p *service.PricingService, a *service.EntitlementResolver) *CatalogueHandler {
	return &CatalogueHandler{Movies: m, Pricing: p, Access: a}
}

func queryInt(c echo.Context, name string, def, max int) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || n < 0 {
		return def
	}
	if max > 0 && n > max {
		return max
	}
	return n
}

// List returns published movies, paged by limit/offset.
func (h *CatalogueHandler) List(c echo.Context) error {
	limit := queryInt(c, "limit", 20, 100)
	offset := queryInt(c, "offset", 0, 0)
	if limit == 0 {
		limit = 20
	}
	movies, err := h.Movies.ListPublished(c.Request().Context(), limit, offset)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": movies, "limit": limit, "offset": offset})
}

type movieDetail struct {
	Movie  model.Movie           `json:"movie"`
	Price  service.PriceResult   `json:"price"`
	Access *service.AccessResult `json:"access,omitempty"`
}

// Detail returns a movie with its price and, when the caller is
// identified, their entitlement.  Price and access are resolved
// concurrently.
func (h *CatalogueHandler) Detail(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()
	movie, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if !movie.IsPublished {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
	}

	out := movieDetail{Movie: movie}
	who := middleware.ViewerFrom(c)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := h.Pricing.ResolvePrice(gctx, id, "")
		out.Price = p
		return err
	})
	if !who.IsZero() {
		g.Go(func() error {
			a, err := h.Access.ResolveAccess(gctx, id, who)
			out.Access = &a
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Price resolves the price of a movie with an optional ?promo= code.  An
// invalid code yields the undiscounted price plus promoRejected.
func (h *CatalogueHandler) Price(c echo.Context) error {
	res, err := h.Pricing.ResolvePrice(c.Request().Context(), c.Param("id"), c.QueryParam("promo"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type promoValidateReq struct {
	Code    string `json:"code"`
	MovieID string `json:"movieId"`
}

// ValidatePromo checks a code against a movie's current price.  It never
// consumes a use.
func (h *CatalogueHandler) ValidatePromo(c echo.Context) error {
	var req promoValidateReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.Code == "" || req.MovieID == "" {
		return badRequest(c, "code and movieId required")
	}
	ctx := c.Request().Context()
	price, err := h.Pricing.ResolvePrice(ctx, req.MovieID, "")
	if err != nil {
		return fail(c, err)
	}
	if !price.Available {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "unavailable", "reason": price.UnavailableReason})
	}
	v, err := h.Pricing.ValidatePromoCode(ctx, req.Code, req.MovieID, price.OriginalAmount)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}
