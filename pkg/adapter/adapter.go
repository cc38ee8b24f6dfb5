package adapter

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/remastered-go/remastered/internal/config"
	"github.com/remastered-go/remastered/pkg/dispatch"
	"github.com/remastered-go/remastered/pkg/entry"
	"github.com/remastered-go/remastered/pkg/export"
	"github.com/remastered-go/remastered/pkg/fetch"
	"github.com/remastered-go/remastered/pkg/middleware"
)

// Options configures a Pipeline.
type Options struct {
	// RootDir is the project root. Required.
	RootDir string

	// Entry is a server entry linked into the binary. Production only;
	// without it the entry plugin is loaded from the build output.
	Entry entry.Entry

	// Dev selects development mode when set.
	Dev entry.DevCompiler

	// Store holds static exports. Default: a FileStore under
	// <RootDir>/dist/exported.
	Store export.Store

	// DisableExports turns the export short-circuit off. It is always off
	// in development.
	DisableExports bool

	// OutputDir is the build output directory relative to RootDir.
	OutputDir string

	// OpenPlugin overrides how the entry plugin is loaded.
	OpenPlugin func(path string) (entry.Entry, error)

	Logger *slog.Logger

	// Registerer receives render metrics. Nil disables metrics.
	Registerer prometheus.Registerer

	// Tracing enables the render span.
	Tracing bool
}

// Pipeline is the export short-circuit followed by the dispatcher.
type Pipeline struct {
	dispatcher *dispatch.Dispatcher
	finder     *export.Finder
	handler    middleware.Handler
}

// New records the project root, selects the strategy and builds the
// pipeline. In production a missing build artifact fails here, before any
// request is served.
func New(ctx context.Context, opts Options) (*Pipeline, error) {
	if err := config.SetProjectRoot(opts.RootDir); err != nil {
		return nil, err
	}
	root := config.ProjectRoot()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var strategy dispatch.Strategy
	if opts.Dev != nil {
		strategy = dispatch.Development(opts.Dev)
	} else {
		var err error
		strategy, err = dispatch.Production(ctx, dispatch.ProductionOptions{
			Root:       root,
			OutputDir:  opts.OutputDir,
			Entry:      opts.Entry,
			OpenPlugin: opts.OpenPlugin,
		})
		if err != nil {
			return nil, err
		}
	}
	mode := string(strategy.Mode())

	var metrics *middleware.Metrics
	var mws []middleware.Middleware
	if opts.Tracing {
		mws = append(mws, middleware.OpenTelemetry(middleware.WithTraceMode(mode)))
	}
	if opts.Registerer != nil {
		metrics = middleware.NewMetrics(middleware.WithRegistry(opts.Registerer), middleware.WithMode(mode))
		mws = append(mws, metrics.Middleware())
	}

	p := &Pipeline{
		dispatcher: dispatch.New(strategy, dispatch.Options{Logger: logger, Middleware: mws}),
	}

	if opts.Dev == nil && !opts.DisableExports {
		store := opts.Store
		if store == nil {
			out := opts.OutputDir
			if out == "" {
				out = config.DefaultOutput
			}
			store = export.NewFileStore(filepath.Join(root, out, "exported"))
		}
		fo := export.FinderOptions{Logger: logger}
		if metrics != nil {
			fo.Observer = func(r export.Result) { metrics.RecordExport(string(r)) }
		}
		p.finder = export.NewFinder(store, fo)
	}

	p.handler = p.dispatcher
	if p.finder != nil {
		p.handler = middleware.Chain(p.dispatcher, p.finder.Middleware())
	}
	return p, nil
}

// ExportStore selects the export store cfg describes: the S3 bucket when
// one is set, else the directory at cfg.ExportPath.
func ExportStore(cfg *config.Config) export.Store {
	s3cfg := cfg.Export.S3
	if s3cfg.Bucket == "" {
		return export.NewFileStore(cfg.ExportPath())
	}
	client := export.NewS3Client(export.S3Options{
		Region:          s3cfg.Region,
		Endpoint:        s3cfg.Endpoint,
		AccessKeyID:     s3cfg.AccessKeyID,
		SecretAccessKey: s3cfg.SecretAccessKey,
	})
	return export.NewS3Store(client, s3cfg.Bucket, s3cfg.Prefix)
}

// Serve renders req: from a static export when one exists, else through
// the dispatcher. It always returns a response.
func (p *Pipeline) Serve(ctx context.Context, req *fetch.Request) *fetch.Response {
	return p.handler.Serve(ctx, req)
}

// Mode returns the dispatcher's mode.
func (p *Pipeline) Mode() dispatch.Mode {
	return p.dispatcher.Mode()
}

// ServeHTTP adapts the pipeline to net/http. Bodies are passed through
// unparsed.
func (p *Pipeline) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := p.Serve(r.Context(), fetch.FromHTTP(r))
	if err := resp.WriteTo(w); err != nil {
		slog.Default().Debug("write response", "path", r.URL.Path, "error", err)
	}
}
