package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-rental/internal/metrics"
	"github.com/iliyamo/movie-rental/internal/middleware"
	"github.com/iliyamo/movie-rental/internal/token"
)

// AnonymousHandler issues and checks anonymous identity tokens.
type AnonymousHandler struct {
	Anon         *token.AnonymousManager
	SecureCookie bool
}

func NewAnonymousHandler(anon *token.AnonymousManager, secureCookie bool) *AnonymousHandler {
	return &AnonymousHandler{Anon: anon, SecureCookie: secureCookie}
}

// Issue mints a new anonymous identity.  The token is returned in the body
// and set as an HttpOnly cookie.  The raw id is never returned.
func (h *AnonymousHandler) Issue(c echo.Context) error {
	tok, p, err := h.Anon.Issue()
	if err != nil {
		return fail(c, err)
	}
	metrics.TokensIssued.WithLabelValues("anonymous").Inc()
	expires := time.Unix(p.ExpiresAt, 0).UTC()
	c.SetCookie(&http.Cookie{
		Name:     middleware.AnonymousCookie,
		Value:    tok,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusCreated, echo.Map{
		"token":     tok,
		"expiresAt": expires,
	})
}

// Validate reports whether the presented anonymous token verifies.
func (h *AnonymousHandler) Validate(c echo.Context) error {
	raw := middleware.AnonymousToken(c)
	valid := raw != "" && h.Anon.Validate(raw)
	if !valid && raw != "" {
		metrics.TokenRejections.WithLabelValues("anonymous", "invalid").Inc()
	}
	return c.JSON(http.StatusOK, echo.Map{"valid": valid})
}
