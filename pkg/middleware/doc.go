// Package middleware provides render middleware: decorators around the
// function that turns a normalized request into a normalized response.
//
// This package includes:
//   - Prometheus metrics middleware
//   - OpenTelemetry tracing middleware
//
// # Prometheus Metrics
//
// The Prometheus middleware collects:
//   - remastered_renders_total: renders by mode and status code
//   - remastered_render_duration_seconds: render duration histogram
//   - remastered_render_errors_total: renders answered with a 5xx status
//   - remastered_static_exports_total: export lookups by result
//
//	m := middleware.NewMetrics(
//	    middleware.WithMode("production"),
//	    middleware.WithRegistry(reg),
//	)
//	d := dispatch.New(strategy, dispatch.Options{
//	    Middleware: []middleware.Middleware{m.Middleware(), middleware.OpenTelemetry()},
//	})
//
// # OpenTelemetry
//
// The tracing middleware starts a remastered.render span per request using
// the global tracer provider. Configure the provider in main before serving:
//
//	otel.SetTracerProvider(tp)
//
// Loaders receive the span context through their context.Context, so
// database drivers and HTTP clients inherit the trace.
package middleware
