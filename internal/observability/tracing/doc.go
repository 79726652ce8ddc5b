// Package tracing wires OpenTelemetry into the binaries.
//
// NewProvider installs an SDK tracer provider whose spans are written to
// slog at debug level. Middleware starts a server span per HTTP request,
// and use cases start child spans around image processing and search:
//
//	ctx, span := tracing.Start(ctx, "photo.Autocrop")
//	defer span.End()
package tracing
