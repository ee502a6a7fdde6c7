package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Config struct {
	Addr string `env:"METRICS_ADDR,default=:9090" validate:"required"`
}

// Registry holds the Prometheus metrics exported by the pricing server
type Registry struct {
	// RPC metrics
	RPCRequests *prometheus.CounterVec
	RPCDuration *prometheus.HistogramVec

	// Pricing metrics
	Quotes *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewRegistry creates the metrics and registers them on a fresh registry
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		RPCRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bondcurve_rpc_requests_total",
				Help: "Total number of gRPC requests by method and status code",
			},
			[]string{"method", "code"},
		),

		RPCDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bondcurve_rpc_duration_seconds",
				Help:    "Duration of gRPC requests in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
			[]string{"method"},
		),

		Quotes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bondcurve_quotes_total",
				Help: "Total number of recorded quotes by kind",
			},
			[]string{"kind"},
		),

		gatherer: reg,
	}

	reg.MustRegister(r.RPCRequests, r.RPCDuration, r.Quotes)

	return r
}

// ObserveRPC records one finished RPC
func (r *Registry) ObserveRPC(method, code string, elapsed time.Duration) {
	r.RPCRequests.WithLabelValues(method, code).Inc()
	r.RPCDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveQuote records one recorded quote
func (r *Registry) ObserveQuote(kind string) {
	r.Quotes.WithLabelValues(kind).Inc()
}

// Handler serves the registry in the Prometheus text format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
