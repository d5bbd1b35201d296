// Package http holds the server-wide middleware and the operational
// endpoints (/health, /ready, /live, /metrics). Route handlers live in the
// subpackages popular, post, engagement and assistant.
package http
