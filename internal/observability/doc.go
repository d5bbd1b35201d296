// Package observability is the parent of the API's logging, metrics and
// tracing packages. Each request carries a request ID (logging), a trace
// span named after its route (tracing) and route-labelled Prometheus
// series (metrics), all installed as middleware in cmd/api.
package observability
