package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/remastered-go/remastered/internal/errors"
	"github.com/remastered-go/remastered/pkg/entry"
	"github.com/remastered-go/remastered/pkg/fetch"
	"github.com/remastered-go/remastered/pkg/middleware"
)

// DebugHeader requests full error detail in 500 bodies.
const DebugHeader = "x-debug"

// Options configures a Dispatcher.
type Options struct {
	Logger *slog.Logger

	// Middleware wraps every render; the first entry is outermost.
	Middleware []middleware.Middleware
}

// Dispatcher renders requests through a strategy's server entry.
type Dispatcher struct {
	strategy Strategy
	logger   *slog.Logger
	handler  middleware.Handler
}

// New creates a dispatcher.
func New(strategy Strategy, opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		strategy: strategy,
		logger:   logger.With("component", "dispatch", "mode", string(strategy.Mode())),
	}
	d.handler = middleware.Chain(middleware.HandlerFunc(d.render), opts.Middleware...)
	return d
}

// Mode returns the strategy's mode.
func (d *Dispatcher) Mode() Mode {
	return d.strategy.Mode()
}

// Render renders req. It always returns a response.
func (d *Dispatcher) Render(ctx context.Context, req *fetch.Request) *fetch.Response {
	return d.handler.Serve(ctx, req)
}

// Serve implements middleware.Handler.
func (d *Dispatcher) Serve(ctx context.Context, req *fetch.Request) *fetch.Response {
	return d.Render(ctx, req)
}

func (d *Dispatcher) render(ctx context.Context, req *fetch.Request) (resp *fetch.Response) {
	defer func() {
		if r := recover(); r != nil {
			resp = d.fail(req, errors.FromPanic(r))
		}
	}()

	h, err := d.strategy.Handlers(ctx)
	if err != nil {
		return d.fail(req, err)
	}

	resp, err = h.Entry.Render(ctx, entry.Args{
		Request:        req,
		Manifest:       h.Manifest,
		ClientManifest: h.ClientManifest,
		Dev:            d.strategy.Dev(),
	})
	if err != nil {
		return d.fail(req, err)
	}
	if resp == nil {
		return d.fail(req, errors.New("R132").Wrap(fmt.Errorf("server entry returned no response")))
	}
	return resp
}

func (d *Dispatcher) fail(req *fetch.Request, err error) *fetch.Response {
	if dev := d.strategy.Dev(); dev != nil {
		err = fixStacktrace(dev, err)
	}

	d.logger.Error("render failed",
		"method", req.Method,
		"path", req.URL.Path,
		"error", err,
	)

	body := err.Error()
	if req.Header.Has(DebugHeader) {
		body = errors.Detail(err)
	}
	resp := fetch.Text(http.StatusInternalServerError, body)
	resp.Header.Set("content-type", "text/plain")
	return resp
}

// fixStacktrace is best-effort: a failing or panicking rewrite keeps the
// original error.
func fixStacktrace(dev entry.DevCompiler, err error) (out error) {
	out = err
	defer func() {
		if recover() != nil {
			out = err
		}
	}()
	if fixed := dev.FixStacktrace(err); fixed != nil {
		out = fixed
	}
	return out
}
