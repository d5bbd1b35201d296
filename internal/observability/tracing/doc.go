// Package tracing provides OpenTelemetry tracing integration.
//
// Init installs the SDK tracer provider at startup, Middleware opens one
// server span per HTTP request and GetTracer is used by use cases for child
// spans (for example one span per popular-posts tier).
//
//	shutdown := tracing.Init("blog-api", version)
//	defer func() { _ = shutdown(context.Background()) }()
package tracing
