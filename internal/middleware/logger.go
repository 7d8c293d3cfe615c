package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-rental/internal/metrics"
)

// RequestLogger attaches a request-scoped zerolog logger to the request
// context and logs one line per request.  It also records the request
// duration histogram.  Only the route pattern is logged, never the raw
// path or query, so tokens passed as parameters stay out of the logs.
func RequestLogger(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			reqID := req.Header.Get(echo.HeaderXRequestID)
			if reqID == "" {
				reqID = c.Response().Header().Get(echo.HeaderXRequestID)
			}
			lg := base.With().Str("request_id", reqID).Logger()
			c.SetRequest(req.WithContext(lg.WithContext(req.Context())))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			elapsed := time.Since(start)
			route := c.Path()
			metrics.HTTPDuration.WithLabelValues(req.Method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())

			ev := lg.Info()
			if status >= 500 {
				ev = lg.Error().Err(err)
			}
			ev.Str("method", req.Method).
				Str("route", route).
				Int("status", status).
				Dur("latency", elapsed).
				Msg("request")
			return nil
		}
	}
}
