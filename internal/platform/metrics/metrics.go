package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments shared by the engines and the
// HTTP layer.
type Metrics struct {
	AssetsCreated   *prometheus.CounterVec
	OrdersPlaced    prometheus.Counter
	MatchesTotal    prometheus.Counter
	MatchRejections prometheus.Counter
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers all metrics on a fresh registry-backed set using
// the given registerer. Pass prometheus.DefaultRegisterer in main and a
// dedicated registry in tests to avoid duplicate-registration panics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AssetsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loomline_assets_created_total",
			Help: "Records created, labeled by asset kind.",
		}, []string{"asset_type"}),
		OrdersPlaced: factory.NewCounter(prometheus.CounterOpts{
			Name: "loomline_orders_placed_total",
			Help: "Orders accepted from retailers.",
		}),
		MatchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "loomline_matches_total",
			Help: "Successful product/order bindings.",
		}),
		MatchRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "loomline_match_rejections_total",
			Help: "Match attempts that returned a no-match outcome.",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "loomline_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}
