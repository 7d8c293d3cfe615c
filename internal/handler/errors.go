// Package handler holds the echo HTTP handlers.  Handlers decode input,
// call a service or repository and map results and errors to responses;
// the business rules live in the service package.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-rental/internal/model"
	"github.com/iliyamo/movie-rental/internal/repository"
	"github.com/iliyamo/movie-rental/internal/service"
	"github.com/iliyamo/movie-rental/internal/token"
)

// statusFor maps a domain error to an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	var verr *model.ValidationError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, service.ErrAlreadyRented):
		return http.StatusConflict, "already_rented"
	case errors.Is(err, repository.ErrPromoExhausted):
		return http.StatusConflict, "promo_exhausted"
	case errors.Is(err, repository.ErrPromoInactive):
		return http.StatusConflict, "promo_inactive"
	case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrEmailExists):
		return http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusUnprocessableEntity, "unavailable"
	case errors.As(err, &verr):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, token.ErrInvalidFormat), errors.Is(err, token.ErrInvalidSignature), errors.Is(err, token.ErrExpired):
		return http.StatusUnauthorized, token.Reason(err)
	}
	return http.StatusInternalServerError, "internal"
}

// fail writes err as a JSON error body.  Internal errors are logged and
// their text is not exposed.
func fail(c echo.Context, err error) error {
	status, code := statusFor(err)
	body := echo.Map{"error": code}
	if status == http.StatusInternalServerError {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("request failed")
	} else {
		body["message"] = err.Error()
	}
	var verr *model.ValidationError
	if errors.As(err, &verr) && verr.Field != "" {
		body["field"] = verr.Field
	}
	return c.JSON(status, body)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": msg})
}
