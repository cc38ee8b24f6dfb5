package dispatch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/remastered-go/remastered/internal/config"
	"github.com/remastered-go/remastered/internal/errors"
	"github.com/remastered-go/remastered/pkg/entry"
	"github.com/remastered-go/remastered/pkg/manifest"
)

// Mode is the rendering mode.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// ServerEntryFile is the server entry plugin path relative to the output
// directory.
const ServerEntryFile = "server/entry.server.so"

// Handlers is what a render needs from the build.
type Handlers struct {
	Entry entry.Entry

	// Manifests are nil in development.
	Manifest       manifest.SSR
	ClientManifest manifest.Client
}

// Strategy supplies handlers for each request.
type Strategy interface {
	Mode() Mode
	Handlers(ctx context.Context) (*Handlers, error)

	// Dev returns the compile service, or nil in production.
	Dev() entry.DevCompiler
}

type development struct {
	dev entry.DevCompiler
}

// Development returns a strategy that asks dev for the server entry on
// every call. Nothing is cached.
func Development(dev entry.DevCompiler) Strategy {
	return &development{dev: dev}
}

func (d *development) Mode() Mode             { return ModeDevelopment }
func (d *development) Dev() entry.DevCompiler { return d.dev }

func (d *development) Handlers(ctx context.Context) (*Handlers, error) {
	e, err := d.dev.LoadServerEntry(ctx)
	if err != nil {
		return nil, err
	}
	return &Handlers{Entry: e}, nil
}

// ProductionOptions configures the production strategy.
type ProductionOptions struct {
	// Root is the project root. Default: the configured project root, then
	// the working directory.
	Root string

	// OutputDir is the build output directory relative to the root.
	// Default: "dist".
	OutputDir string

	// Entry is a server entry linked into the binary. When set, no plugin
	// is loaded.
	Entry entry.Entry

	// OpenPlugin loads the server entry plugin. Default: OpenPlugin.
	OpenPlugin func(path string) (entry.Entry, error)
}

type production struct {
	handlers *Handlers
}

func (p *production) Mode() Mode             { return ModeProduction }
func (p *production) Dev() entry.DevCompiler { return nil }

func (p *production) Handlers(context.Context) (*Handlers, error) {
	return p.handlers, nil
}

// cached holds the process-wide production handlers. Once stored they are
// never replaced.
var cached atomic.Pointer[Handlers]

// Production resolves the built server entry and manifests and returns a
// strategy serving them. Loading happens once per process; later calls
// return the cached handlers regardless of opts. A missing artifact is an
// R130 error.
func Production(ctx context.Context, opts ProductionOptions) (Strategy, error) {
	if h := cached.Load(); h != nil {
		return &production{handlers: h}, nil
	}

	h, err := loadProduction(ctx, opts)
	if err != nil {
		return nil, err
	}

	// Concurrent first loads converge on whichever stored first.
	cached.CompareAndSwap(nil, h)
	return &production{handlers: cached.Load()}, nil
}

func loadProduction(_ context.Context, opts ProductionOptions) (*Handlers, error) {
	out := opts.OutputDir
	if out == "" {
		out = "dist"
	}

	var places []string
	for _, root := range []string{opts.Root, config.ProjectRoot()} {
		if root != "" {
			places = append(places, filepath.Join(root, out))
		}
	}
	if wd, err := os.Getwd(); err == nil {
		places = append(places, filepath.Join(wd, out))
	}

	h := &Handlers{Entry: opts.Entry}

	ssrPath, err := find(places, manifest.SSRFile)
	if err != nil {
		return nil, err
	}
	if h.Manifest, err = manifest.LoadSSR(ssrPath); err != nil {
		return nil, errors.New("R131").WithDetail(ssrPath).Wrap(err)
	}

	clientPath, err := find(places, manifest.ClientFile)
	if err != nil {
		return nil, err
	}
	if h.ClientManifest, err = manifest.LoadClient(clientPath); err != nil {
		return nil, errors.New("R131").WithDetail(clientPath).Wrap(err)
	}

	if h.Entry == nil {
		entryPath, err := find(places, ServerEntryFile)
		if err != nil {
			return nil, err
		}
		open := opts.OpenPlugin
		if open == nil {
			open = OpenPlugin
		}
		if h.Entry, err = open(entryPath); err != nil {
			return nil, err
		}
	}

	return h, nil
}

// find returns the first existing file named rel under places.
func find(places []string, rel string) (string, error) {
	for _, dir := range places {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errors.New("R130").
		WithDetail("Looked for " + rel + " in: " + joinPlaces(places)).
		WithSuggestion("Run `remastered build` first, or start in development mode.")
}

func joinPlaces(places []string) string {
	if len(places) == 0 {
		return "(no candidate directories)"
	}
	out := places[0]
	for _, p := range places[1:] {
		out += ", " + p
	}
	return out
}

// resetProduction clears the process-wide cache. Tests only.
func resetProduction() {
	cached.Store(nil)
}
