package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-rental/internal/model"
	"github.com/iliyamo/movie-rental/internal/utils"
)

const ctxViewer = "viewer"

// Where clients present their anonymous identity token.
const (
	AnonymousHeader = "X-Anonymous-Token"
	AnonymousCookie = "anon_token"
)

// AnonymousIDExtractor verifies an anonymous token and returns its id.
// *token.AnonymousManager satisfies it.
type AnonymousIDExtractor interface {
	ExtractID(tok string) (string, error)
}

// Viewer resolves who is calling without rejecting anyone.  A valid
// session JWT yields a user identity and takes precedence; otherwise a
// valid anonymous token yields an anonymous identity.  Invalid credentials
// are treated as absent.  The result is read with ViewerFrom.
func Viewer(jwtSecret string, anon AnonymousIDExtractor) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			who := model.Identity{}
			if raw, ok := bearer(c); ok {
				if claims, err := utils.ParseAccessToken(jwtSecret, raw); err == nil {
					who = model.UserIdentity(claims.Subject)
					c.Set(ctxUserID, claims.Subject)
					c.Set(ctxRole, claims.Role)
				}
			}
			if who.IsZero() {
				if raw := AnonymousToken(c); raw != "" {
					if id, err := anon.ExtractID(raw); err == nil {
						who = model.AnonymousIdentity(id)
					}
				}
			}
			c.Set(ctxViewer, who)
			return next(c)
		}
	}
}

// RequireViewer rejects requests for which Viewer found no identity.
func RequireViewer() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if ViewerFrom(c).IsZero() {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "identification required"})
			}
			return next(c)
		}
	}
}

// ViewerFrom returns the identity stored by Viewer; the zero Identity when
// there is none.
func ViewerFrom(c echo.Context) model.Identity {
	who, _ := c.Get(ctxViewer).(model.Identity)
	return who
}

// AnonymousToken returns the raw anonymous token from the header or, failing
// that, the cookie.
func AnonymousToken(c echo.Context) string {
	if v := strings.TrimSpace(c.Request().Header.Get(AnonymousHeader)); v != "" {
		return v
	}
	if ck, err := c.Cookie(AnonymousCookie); err == nil {
		return ck.Value
	}
	return ""
}
