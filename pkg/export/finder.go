package export

import (
	"context"
	stderrors "errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/remastered-go/remastered/pkg/fetch"
	"github.com/remastered-go/remastered/pkg/middleware"
)

const (
	// SkipHeader bypasses the export lookup when present on a request.
	SkipHeader = "x-skip-exported"

	// ServedHeader marks responses served from an export.
	ServedHeader = "x-remastered-static-exported"
)

// Result is the outcome of one lookup.
type Result string

const (
	ResultHit     Result = "hit"
	ResultMiss    Result = "miss"
	ResultCorrupt Result = "corrupt"
	ResultSkipped Result = "skipped"
)

// FinderOptions configures a Finder.
type FinderOptions struct {
	Logger *slog.Logger

	// Observer is told the result of every lookup.
	Observer func(Result)
}

// Finder serves stored exports.
type Finder struct {
	store    Store
	logger   *slog.Logger
	observer func(Result)
	tracer   trace.Tracer
}

// NewFinder creates a finder over store.
func NewFinder(store Store, opts FinderOptions) *Finder {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Finder{
		store:    store,
		logger:   logger.With("component", "export"),
		observer: opts.Observer,
		tracer:   otel.Tracer("github.com/remastered-go/remastered/pkg/export"),
	}
}

// Find returns the stored response for req. Every failure is a miss.
func (f *Finder) Find(ctx context.Context, req *fetch.Request) (*fetch.Response, bool) {
	if req.Header.Has(SkipHeader) {
		f.observe(ResultSkipped)
		return nil, false
	}

	key := Key(req.Method, req.URL)
	ctx, span := f.tracer.Start(ctx, "remastered.export.find",
		trace.WithAttributes(attribute.String("remastered.export.key", key)))
	defer span.End()

	resp, result := f.lookup(ctx, key)
	span.SetAttributes(attribute.String("remastered.export.result", string(result)))
	f.observe(result)
	return resp, resp != nil
}

func (f *Finder) lookup(ctx context.Context, key string) (*fetch.Response, Result) {
	data, err := f.store.Get(ctx, key)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			f.logger.Debug("no static export", "key", key)
			return nil, ResultMiss
		}
		f.logger.Warn("static export unreadable", "key", key, "error", err)
		return nil, ResultCorrupt
	}

	rec, err := Decode(data)
	if err != nil {
		f.logger.Warn("static export corrupt", "key", key, "error", err)
		return nil, ResultCorrupt
	}

	resp := rec.Response()
	resp.Header.Set(ServedHeader, "true")
	return resp, ResultHit
}

func (f *Finder) observe(r Result) {
	if f.observer != nil {
		f.observer(r)
	}
}

// Middleware answers from the store when it can and defers to the next
// handler otherwise.
func (f *Finder) Middleware() middleware.Middleware {
	return func(next middleware.Handler) middleware.Handler {
		return middleware.HandlerFunc(func(ctx context.Context, req *fetch.Request) *fetch.Response {
			if resp, ok := f.Find(ctx, req); ok {
				return resp
			}
			return next.Serve(ctx, req)
		})
	}
}
