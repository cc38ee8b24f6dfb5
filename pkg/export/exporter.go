package export

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/remastered-go/remastered/pkg/fetch"
	"github.com/remastered-go/remastered/pkg/middleware"
)

// ExporterOptions configures an Exporter. Exactly one of BaseURL and
// Handler must be set.
type ExporterOptions struct {
	// BaseURL is a running server to fetch pages from.
	BaseURL string

	// Client is used with BaseURL. Default: http.DefaultClient.
	Client *http.Client

	// Handler renders pages in-process.
	Handler middleware.Handler

	Store Store

	// Concurrency bounds parallel fetches. Default 4.
	Concurrency int

	Logger *slog.Logger
}

// Exporter renders pages and stores them as records.
type Exporter struct {
	opts   ExporterOptions
	base   *url.URL
	logger *slog.Logger
}

// NewExporter validates opts and creates an exporter.
func NewExporter(opts ExporterOptions) (*Exporter, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("export: a store is required")
	}
	if (opts.BaseURL == "") == (opts.Handler == nil) {
		return nil, fmt.Errorf("export: set exactly one of BaseURL and Handler")
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}

	base := &url.URL{Scheme: "http", Host: "localhost"}
	if opts.BaseURL != "" {
		u, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("export: parse base url: %w", err)
		}
		base = u
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{opts: opts, base: base, logger: logger.With("component", "export")}, nil
}

// Export stores a GET record for every path. Only 2xx and 3xx responses
// are stored; anything else fails the export.
func (e *Exporter) Export(ctx context.Context, paths ...string) error {
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(e.opts.Concurrency)

	for _, p := range paths {
		grp.Go(func() error {
			return e.exportOne(gctx, p)
		})
	}
	return grp.Wait()
}

func (e *Exporter) exportOne(ctx context.Context, p string) error {
	ref, err := url.Parse(p)
	if err != nil {
		return fmt.Errorf("export %s: %w", p, err)
	}
	u := e.base.ResolveReference(ref)

	resp, err := e.fetch(ctx, u)
	if err != nil {
		return fmt.Errorf("export %s: %w", p, err)
	}
	if resp.Status >= 400 {
		return fmt.Errorf("export %s: status %d", p, resp.Status)
	}

	rec, err := FromResponse(resp)
	if err != nil {
		return fmt.Errorf("export %s: %w", p, err)
	}
	data, err := Encode(rec)
	if err != nil {
		return fmt.Errorf("export %s: %w", p, err)
	}

	key := Key(http.MethodGet, u)
	if err := e.opts.Store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("export %s: %w", p, err)
	}
	e.logger.Info("exported", "path", p, "key", key, "status", resp.Status)
	return nil
}

func (e *Exporter) fetch(ctx context.Context, u *url.URL) (*fetch.Response, error) {
	if e.opts.Handler != nil {
		req, err := fetch.NewRequest(http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set(SkipHeader, "1")
		return e.opts.Handler.Serve(ctx, req), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(SkipHeader, "1")

	// Redirects are exported as they are, not followed.
	client := *e.opts.Client
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	return fetch.FromHTTPResponse(resp)
}

// ParsePaths splits a newline or comma separated path list, ignoring blank
// entries and # comments.
func ParsePaths(s string) []string {
	var out []string
	for _, line := range strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == ',' }) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
