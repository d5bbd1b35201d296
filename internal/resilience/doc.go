// Package resilience holds the failure-handling building blocks shared by
// the blog API's outbound calls.
//
// circuitbreaker wraps gobreaker for the chat and embedding providers and
// for PostgreSQL (DBCircuitBreaker). retry re-runs provider calls that
// fail with a transient error. Rate-limiter storage has its own breaker in
// pkg/ratelimit because it falls back to memory instead of failing.
package resilience
