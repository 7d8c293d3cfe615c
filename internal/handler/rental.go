package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-rental/internal/middleware"
	"github.com/iliyamo/movie-rental/internal/model"
	"github.com/iliyamo/movie-rental/internal/service"
)

// RentalHandler serves entitlement checks and checkout.  Every route runs
// behind middleware.RequireViewer.
type RentalHandler struct {
	Rentals *service.RentalService
	Access  *service.EntitlementResolver
}

func NewRentalHandler(r *service.RentalService, a *service.EntitlementResolver) *RentalHandler {
	return &RentalHandler{Rentals: r, Access: a}
}

type checkoutReq struct {
	PromoCode     string `json:"promoCode"`
	PaymentMethod string `json:"paymentMethod"`
	TransactionID string `json:"transactionId"`
}

func (r checkoutReq) validate() error {
	if strings.TrimSpace(r.TransactionID) == "" {
		return &model.ValidationError{Field: "transactionId", Message: "transactionId is required"}
	}
	if strings.TrimSpace(r.PaymentMethod) == "" {
		return &model.ValidationError{Field: "paymentMethod", Message: "paymentMethod is required"}
	}
	return nil
}

type rentalResp struct {
	Rental *model.RentalSummary `json:"rental"`
	Amount int64                `json:"amountLak"`
	Price  *service.PriceResult `json:"price,omitempty"`
}

// MovieAccess reports whether the caller may watch a movie.
func (h *RentalHandler) MovieAccess(c echo.Context) error {
	res, err := h.Access.ResolveAccess(c.Request().Context(), c.Param("id"), middleware.ViewerFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// PackAccess reports the caller's rental of a pack, or that it expired.
func (h *RentalHandler) PackAccess(c echo.Context) error {
	res, err := h.Access.CheckPackAccess(c.Request().Context(), c.Param("id"), middleware.ViewerFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// RentMovie finalises a movie rental for a settled payment.
func (h *RentalHandler) RentMovie(c echo.Context) error {
	var req checkoutReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := req.validate(); err != nil {
		return fail(c, err)
	}
	rt, price, err := h.Rentals.RentMovie(c.Request().Context(), service.RentMovieInput{
		MovieID:       c.Param("id"),
		Viewer:        middleware.ViewerFrom(c),
		PromoCode:     req.PromoCode,
		PaymentMethod: req.PaymentMethod,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, rentalResp{Rental: rt.Summary(), Amount: rt.Amount, Price: &price})
}

// RentPack finalises a pack rental.
func (h *RentalHandler) RentPack(c echo.Context) error {
	var req checkoutReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := req.validate(); err != nil {
		return fail(c, err)
	}
	if req.PromoCode != "" {
		return fail(c, &model.ValidationError{Field: "promoCode", Message: "promo codes do not apply to packs"})
	}
	rt, err := h.Rentals.RentPack(c.Request().Context(), service.RentPackInput{
		PackID:        c.Param("id"),
		Viewer:        middleware.ViewerFrom(c),
		PaymentMethod: req.PaymentMethod,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, rentalResp{Rental: rt.Summary(), Amount: rt.Amount})
}

type positionReq struct {
	ShortID string `json:"shortId"`
}

// PackPosition records which short the caller is on.
func (h *RentalHandler) PackPosition(c echo.Context) error {
	var req positionReq
	if err := c.Bind(&req); err != nil || req.ShortID == "" {
		return badRequest(c, "shortId required")
	}
	if err := h.Rentals.UpdatePackPosition(c.Request().Context(), c.Param("id"), middleware.ViewerFrom(c), req.ShortID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// List returns the caller's rentals, newest first.
func (h *RentalHandler) List(c echo.Context) error {
	rentals, err := h.Rentals.ListRentals(c.Request().Context(), middleware.ViewerFrom(c))
	if err != nil {
		return fail(c, err)
	}
	items := make([]*model.RentalSummary, 0, len(rentals))
	for _, rt := range rentals {
		items = append(items, rt.Summary())
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
