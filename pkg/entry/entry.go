// Package entry defines the render contract between the request dispatcher
// and a server entry, and provides the default server entry.
//
// An Entry turns one normalized request into one normalized response. In
// production the entry is linked into the binary or loaded from a plugin;
// in development a DevCompiler hands out a fresh entry for every request
// and resolves route modules on demand.
package entry

import (
	"context"

	"github.com/remastered-go/remastered/pkg/fetch"
	"github.com/remastered-go/remastered/pkg/manifest"
	"github.com/remastered-go/remastered/pkg/route"
)

// Entry renders a request.
type Entry interface {
	Render(ctx context.Context, args Args) (*fetch.Response, error)
}

// RenderFunc adapts a function to Entry.
type RenderFunc func(ctx context.Context, args Args) (*fetch.Response, error)

// Render calls f.
func (f RenderFunc) Render(ctx context.Context, args Args) (*fetch.Response, error) {
	return f(ctx, args)
}

// Args is everything an entry receives for one request.
type Args struct {
	Request *fetch.Request

	// Manifest and ClientManifest are nil in development.
	Manifest       manifest.SSR
	ClientManifest manifest.Client

	// Dev is set in development only.
	Dev DevCompiler
}

// DevCompiler is the development-time compile service.
type DevCompiler interface {
	// LoadServerEntry returns the current server entry. Callers must not
	// cache it across requests.
	LoadServerEntry(ctx context.Context) (Entry, error)

	// LoadModule resolves a route module by id.
	LoadModule(ctx context.Context, id string) (*route.Module, error)

	// Routes returns the current route tree.
	Routes(ctx context.Context) (*route.Tree, error)

	// FixStacktrace rewrites locations in err to point at source files.
	FixStacktrace(err error) error
}
