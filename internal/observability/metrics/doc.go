// Package metrics declares the Prometheus series of the blog API.
//
// Everything here registers with the default registry through promauto and
// is served on /metrics next to the rate limiter's private registry.
// Series are grouped by what they watch: http.go for the request path,
// business.go for resolutions, engagement and the assistant, dependency.go
// for the database pool and circuit breakers.
package metrics
