package middleware

import (
	"context"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/remastered-go/remastered/pkg/fetch"
)

func statusHandler(status int) Handler {
	return HandlerFunc(func(context.Context, *fetch.Request) *fetch.Response {
		return fetch.Text(status, http.StatusText(status))
	})
}

func newRequest(t *testing.T, path string) *fetch.Request {
	t.Helper()
	req, err := fetch.NewRequest(http.MethodGet, "http://localhost"+path, nil)
	require.NoError(t, err)
	return req
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next Handler) Handler {
			return HandlerFunc(func(ctx context.Context, req *fetch.Request) *fetch.Response {
				order = append(order, name)
				return next.Serve(ctx, req)
			})
		}
	}

	h := Chain(statusHandler(http.StatusOK), mark("outer"), nil, mark("inner"))
	resp := h.Serve(context.Background(), newRequest(t, "/"))
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithMode("development"))

	ok := m.Middleware()(statusHandler(http.StatusOK))
	failing := m.Middleware()(statusHandler(http.StatusInternalServerError))

	ok.Serve(context.Background(), newRequest(t, "/"))
	ok.Serve(context.Background(), newRequest(t, "/users"))
	failing.Serve(context.Background(), newRequest(t, "/boom"))
	m.RecordExport("hit")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.rendersTotal.WithLabelValues("development", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rendersTotal.WithLabelValues("development", "500")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.renderErrors.WithLabelValues("development")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exportsTotal.WithLabelValues("hit")))

	n, err := testutil.GatherAndCount(reg, "remastered_render_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecordExportNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.RecordExport("miss") })
}

func TestOpenTelemetry(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	var inner trace.SpanContext
	h := OpenTelemetry(WithTracerProvider(tp), WithTraceMode("production"))(
		HandlerFunc(func(ctx context.Context, req *fetch.Request) *fetch.Response {
			inner = trace.SpanContextFromContext(ctx)
			return fetch.Text(http.StatusBadGateway, "bad")
		}))

	h.Serve(context.Background(), newRequest(t, "/users/ada"))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, SpanName, span.Name())
	assert.Equal(t, trace.SpanKindServer, span.SpanKind())
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, span.SpanContext().SpanID(), inner.SpanID())

	attrs := map[string]string{}
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "GET", attrs["http.request.method"])
	assert.Equal(t, "/users/ada", attrs["url.path"])
	assert.Equal(t, "production", attrs["remastered.mode"])
	assert.Equal(t, "502", attrs["http.response.status_code"])
}

func TestOpenTelemetryFilter(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	h := OpenTelemetry(
		WithTracerProvider(tp),
		WithFilter(func(req *fetch.Request) bool { return req.URL.Path != "/healthz" }),
	)(statusHandler(http.StatusOK))

	h.Serve(context.Background(), newRequest(t, "/healthz"))
	assert.Empty(t, rec.Ended())

	h.Serve(context.Background(), newRequest(t, "/"))
	require.Len(t, rec.Ended(), 1)
	assert.Equal(t, codes.Ok, rec.Ended()[0].Status().Code)
}
