package route

import (
	"context"

	g "maragu.dev/gomponents"

	"github.com/remastered-go/remastered/pkg/fetch"
)

// Params are the dynamic segment values of a match, keyed by name. A
// catch-all holds the rest of the path, slash separated.
type Params map[string]string

// Get returns the named param or "".
func (p Params) Get(name string) string {
	return p[name]
}

// DataArgs are passed to loaders and actions.
type DataArgs struct {
	Request *fetch.Request
	Params  Params

	// Dev is true when rendering in development mode.
	Dev bool
}

// LoaderFunc loads data for a GET render. Returning a *fetch.Response
// short-circuits rendering with that response.
type LoaderFunc func(ctx context.Context, args DataArgs) (any, error)

// ActionFunc handles a mutation (any method but GET and HEAD). Returning a
// *fetch.Response sends it as-is.
type ActionFunc func(ctx context.Context, args DataArgs) (any, error)

// HeadersArgs are passed to header functions.
type HeadersArgs struct {
	Request *fetch.Request
	Params  Params
	Data    any
	Dev     bool
}

// HeadersFunc returns response headers for a render.
type HeadersFunc func(args HeadersArgs) fetch.Header

// MetaDescriptor maps meta names to content. "title" becomes the document
// title.
type MetaDescriptor map[string]string

// MetaArgs are passed to meta functions.
type MetaArgs struct {
	Params Params
	Data   any
}

// MetaFunc returns document metadata for a render.
type MetaFunc func(args MetaArgs) MetaDescriptor

// Handle carries static per-route flags.
type Handle struct {
	// NoScripts disables client script injection for pages matching the route.
	NoScripts bool

	Values map[string]any
}

// PageFunc renders a route component. Layouts call c.Outlet() to render
// the matched child.
type PageFunc func(c *Context) g.Node

// Module is the set of bindings exported by one route file.
type Module struct {
	// ID is the module id: the file path relative to the project root.
	ID string

	Page    PageFunc
	Loader  LoaderFunc
	Action  ActionFunc
	Headers HeadersFunc
	Meta    MetaFunc
	Handle  Handle
}

// Exports reports which roles the module binds, keyed by role name.
func (m *Module) Exports() Exports {
	ex := make(Exports)
	if m == nil {
		return ex
	}
	if m.Page != nil {
		ex[RolePage] = string(RolePage)
	}
	if m.Loader != nil {
		ex[RoleLoader] = string(RoleLoader)
	}
	if m.Action != nil {
		ex[RoleAction] = string(RoleAction)
	}
	if m.Headers != nil {
		ex[RoleHeaders] = string(RoleHeaders)
	}
	if m.Meta != nil {
		ex[RoleMeta] = string(RoleMeta)
	}
	if m.Handle.NoScripts || m.Handle.Values != nil {
		ex[RoleHandle] = string(RoleHandle)
	}
	return ex
}
