package middleware

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/remastered-go/remastered/pkg/fetch"
)

const (
	defaultTracerName = "github.com/remastered-go/remastered"

	// SpanName is the name of the per-request render span.
	SpanName = "remastered.render"
)

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer.
	TracerName string

	// Mode is recorded as the remastered.mode attribute when set.
	Mode string

	// Filter determines which requests to trace. If nil, all requests are
	// traced.
	Filter func(req *fetch.Request) bool

	// AttributeExtractor adds custom attributes per request.
	AttributeExtractor func(req *fetch.Request) []attribute.KeyValue

	// TracerProvider overrides the global provider.
	TracerProvider trace.TracerProvider
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTraceMode sets the remastered.mode attribute.
func WithTraceMode(mode string) OTelOption {
	return func(c *OTelConfig) {
		c.Mode = mode
	}
}

// WithFilter sets a filter function for requests.
func WithFilter(filter func(req *fetch.Request) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(req *fetch.Request) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// OpenTelemetry creates middleware that traces every render.
//
// The span carries the request method, path and mode, and continues a trace
// propagated in the request headers. Responses with a 5xx status mark the
// span as failed.
func OpenTelemetry(opts ...OTelOption) Middleware {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}

	var tracer trace.Tracer
	if config.TracerProvider != nil {
		tracer = config.TracerProvider.Tracer(config.TracerName)
	} else {
		tracer = otel.Tracer(config.TracerName)
	}

	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *fetch.Request) *fetch.Response {
			if config.Filter != nil && !config.Filter(req) {
				return next.Serve(ctx, req)
			}

			attrs := []attribute.KeyValue{
				attribute.String("http.request.method", req.Method),
				attribute.String("url.path", req.URL.Path),
			}
			if config.Mode != "" {
				attrs = append(attrs, attribute.String("remastered.mode", config.Mode))
			}
			if config.AttributeExtractor != nil {
				attrs = append(attrs, config.AttributeExtractor(req)...)
			}

			ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(req.Header.HTTP()))
			spanCtx, span := tracer.Start(ctx, SpanName,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			resp := next.Serve(spanCtx, req)
			if resp == nil {
				span.SetStatus(codes.Error, "no response")
				return resp
			}

			span.SetAttributes(attribute.Int("http.response.status_code", resp.Status))
			if resp.Status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, fmt.Sprintf("status %d", resp.Status))
			} else {
				span.SetStatus(codes.Ok, "")
			}
			return resp
		})
	}
}
