package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-rental/internal/model"
)

// TierAdmin is the pricing tier store.  *repository.TierRepo satisfies it.
type TierAdmin interface {
	GetByID(ctx context.Context, id string) (model.PricingTier, error)
	List(ctx context.Context) ([]model.PricingTier, error)
	Create(ctx context.Context, t *model.PricingTier) error
	SetActive(ctx context.Context, id string, active bool) error
}

// PromoAdmin is the promo code store.  *repository.PromoRepo satisfies it.
type PromoAdmin interface {
	List(ctx context.Context) ([]model.PromoCode, error)
	Create(ctx context.Context, p *model.PromoCode) error
}

// MovieAdmin assigns tiers to movies.  *repository.MovieRepo satisfies it.
type MovieAdmin interface {
	GetByID(ctx context.Context, id string) (model.Movie, error)
	SetPricingTier(ctx context.Context, movieID string, tierID *string) error
}

// AdminHandler manages pricing tiers, promo codes and tier assignment.
// Routes are mounted behind JWTAuth and RequireRole(ADMIN).
type AdminHandler struct {
	Tiers  TierAdmin
	Promos PromoAdmin
	Movies MovieAdmin
}

func NewAdminHandler(t TierAdmin, p PromoAdmin, m MovieAdmin) *AdminHandler {
	return &AdminHandler{Tiers: t, Promos: p, Movies: m}
}

// ListTiers returns every tier ordered by sort order.
func (h *AdminHandler) ListTiers(c echo.Context) error {
	tiers, err := h.Tiers.List(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": tiers})
}

type tierReq struct {
	Name      string `json:"name"`
	PriceLak  int64  `json:"priceLak"`
	IsActive  *bool  `json:"isActive"`
	SortOrder int    `json:"sortOrder"`
}

// CreateTier adds a pricing tier.  New tiers are active unless isActive is
// false.
func (h *AdminHandler) CreateTier(c echo.Context) error {
	var req tierReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fail(c, &model.ValidationError{Field: "name", Message: "name is required"})
	}
	if req.PriceLak <= 0 {
		return fail(c, &model.ValidationError{Field: "priceLak", Message: "price must be a positive LAK amount"})
	}
	t := model.PricingTier{Name: req.Name, PriceLak: req.PriceLak, IsActive: true, SortOrder: req.SortOrder}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	if err := h.Tiers.Create(c.Request().Context(), &t); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

type activeReq struct {
	IsActive *bool `json:"isActive"`
}

// SetTierActive toggles a tier on or off.
func (h *AdminHandler) SetTierActive(c echo.Context) error {
	var req activeReq
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return badRequest(c, "isActive required")
	}
	if err := h.Tiers.SetActive(c.Request().Context(), c.Param("id"), *req.IsActive); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListPromos returns every promo code.
func (h *AdminHandler) ListPromos(c echo.Context) error {
	promos, err := h.Promos.List(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": promos})
}

type promoReq struct {
	Code          string             `json:"code"`
	DiscountType  model.DiscountType `json:"discountType"`
	DiscountValue *int64             `json:"discountValue"`
	MaxUses       *int64             `json:"maxUses"`
	ValidFrom     *time.Time         `json:"validFrom"`
	ValidTo       *time.Time         `json:"validTo"`
	MovieID       *string            `json:"movieId"`
	IsActive      *bool              `json:"isActive"`
}

// CreatePromo stores a new promo code after checking its shape.
func (h *AdminHandler) CreatePromo(c echo.Context) error {
	var req promoReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	p := model.PromoCode{
		Code:          model.NormalizePromoCode(req.Code),
		DiscountType:  model.DiscountType(strings.ToLower(string(req.DiscountType))),
		DiscountValue: req.DiscountValue,
		MaxUses:       req.MaxUses,
		ValidFrom:     req.ValidFrom,
		ValidTo:       req.ValidTo,
		MovieID:       req.MovieID,
		IsActive:      true,
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if p.DiscountType == model.DiscountFree {
		p.DiscountValue = nil
	}
	if err := p.Check(); err != nil {
		return fail(c, err)
	}
	ctx := c.Request().Context()
	if p.MovieID != nil {
		if _, err := h.Movies.GetByID(ctx, *p.MovieID); err != nil {
			return fail(c, err)
		}
	}
	if err := h.Promos.Create(ctx, &p); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

type movieTierReq struct {
	PricingTierID *string `json:"pricingTierId"`
}

// SetMovieTier assigns a tier to a movie, or clears it with null.
func (h *AdminHandler) SetMovieTier(c echo.Context) error {
	var req movieTierReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx := c.Request().Context()
	if req.PricingTierID != nil {
		if _, err := h.Tiers.GetByID(ctx, *req.PricingTierID); err != nil {
			return fail(c, err)
		}
	}
	if err := h.Movies.SetPricingTier(ctx, c.Param("id"), req.PricingTierID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
