// Package observability groups logging, Prometheus metrics and OpenTelemetry
// tracing for the api and worker binaries.
//
// Subpackages:
//   - logging: slog JSON logger with request id propagation
//   - metrics: HTTP, newsroom and database metrics
//   - tracing: server spans and the tracer provider
package observability
