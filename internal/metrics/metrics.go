// Package metrics holds the service's Prometheus collectors.  Collectors
// are registered on the default registry at init and exposed by Handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TokensIssued counts signed tokens handed out, by kind
// (anonymous, video, trailer).
var TokensIssued = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "movierental_tokens_issued_total",
	Help: "Signed tokens issued by kind.",
}, []string{"kind"})

// TokenRejections counts tokens that failed verification.
var TokenRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "movierental_token_rejections_total",
	Help: "Token verification failures by kind and reason.",
}, []string{"kind", "reason"})

// RentalsCreated counts committed rentals by type (movie, pack).
var RentalsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "movierental_rentals_created_total",
	Help: "Rentals committed by type.",
}, []string{"type"})

// PromoRedemptions counts promo code uses consumed.
var PromoRedemptions = promauto.NewCounter(prometheus.CounterOpts{
	Name: "movierental_promo_redemptions_total",
	Help: "Promo code uses consumed.",
})

// PromoRejections counts supplied promo codes that were ignored, by reason.
var PromoRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "movierental_promo_rejections_total",
	Help: "Promo codes rejected during pricing by reason.",
}, []string{"reason"})

// HTTPDuration tracks request latency by method, route and status.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "movierental_http_request_duration_seconds",
	Help:    "HTTP request latency in seconds.",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "path", "status"})

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
