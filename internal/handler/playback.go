package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-rental/internal/metrics"
	"github.com/iliyamo/movie-rental/internal/middleware"
	"github.com/iliyamo/movie-rental/internal/service"
	"github.com/iliyamo/movie-rental/internal/token"
)

// PlaybackHandler hands out short-lived signed URLs for the video server.
type PlaybackHandler struct {
	Movies MovieReader
	Access *service.EntitlementResolver
	Tokens *token.AccessIssuer
}

func NewPlaybackHandler(m MovieReader, a *service.EntitlementResolver, t *token.AccessIssuer) *PlaybackHandler {
	return &PlaybackHandler{Movies: m, Access: a, Tokens: t}
}

type playbackResp struct {
	Token     string    `json:"token"`
	Path      string    `json:"path"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Play issues a video token once the caller's entitlement is confirmed.
func (h *PlaybackHandler) Play(c echo.Context) error {
	ctx := c.Request().Context()
	who := middleware.ViewerFrom(c)
	movie, err := h.Movies.GetByID(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if !movie.IsPublished {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
	}
	acc, err := h.Access.ResolveAccess(ctx, movie.ID, who)
	if err != nil {
		return fail(c, err)
	}
	if !acc.HasAccess {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no_access", "message": "rent this movie to watch it"})
	}
	tok, exp, err := h.Tokens.IssueVideoToken(token.VideoGrant{MovieID: movie.ID, Viewer: who, VideoPath: movie.VideoPath})
	if err != nil {
		return fail(c, err)
	}
	metrics.TokensIssued.WithLabelValues("video").Inc()
	return c.JSON(http.StatusOK, playbackResp{Token: tok, Path: movie.VideoPath, ExpiresAt: exp})
}

// Trailer issues a trailer token.  Trailers need no rental.
func (h *PlaybackHandler) Trailer(c echo.Context) error {
	tr, err := h.Movies.GetTrailer(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	tok, exp, err := h.Tokens.IssueTrailerToken(token.TrailerGrant{
		TrailerID:   tr.ID,
		MovieID:     tr.MovieID,
		Viewer:      middleware.ViewerFrom(c),
		TrailerPath: tr.Path,
	})
	if err != nil {
		return fail(c, err)
	}
	metrics.TokensIssued.WithLabelValues("trailer").Inc()
	return c.JSON(http.StatusOK, playbackResp{Token: tok, Path: tr.Path, ExpiresAt: exp})
}

// Verify checks a video or trailer token the way the video server does.
// The viewer identity inside the payload is not echoed back.
func (h *PlaybackHandler) Verify(c echo.Context) error {
	raw := c.QueryParam("token")
	kind := c.QueryParam("kind")
	if raw == "" {
		return badRequest(c, "token required")
	}

	var (
		p   token.AccessPayload
		err error
	)
	switch kind {
	case "", "video":
		kind = "video"
		p, err = h.Tokens.VerifyVideoToken(raw)
	case "trailer":
		p, err = h.Tokens.VerifyTrailerToken(raw)
	default:
		return badRequest(c, "kind must be video or trailer")
	}
	if err != nil {
		reason := token.Reason(err)
		metrics.TokenRejections.WithLabelValues(kind, reason).Inc()
		return c.JSON(http.StatusUnauthorized, echo.Map{"valid": false, "reason": reason})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"valid":      true,
		"resourceId": p.ResourceID,
		"movieId":    p.MovieID,
		"path":       p.Path,
		"exp":        p.Exp,
	})
}
