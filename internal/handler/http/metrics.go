package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler exposes the default registry together with any extra
// registries, such as the rate limiter's.
func MetricsHandler(extra ...prometheus.Gatherer) http.Handler {
	gatherers := prometheus.Gatherers{prometheus.DefaultGatherer}
	for _, g := range extra {
		if g != nil {
			gatherers = append(gatherers, g)
		}
	}
	return promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})
}
