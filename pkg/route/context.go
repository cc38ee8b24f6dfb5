package route

import (
	g "maragu.dev/gomponents"

	"github.com/remastered-go/remastered/pkg/fetch"
)

// Context is what a component sees while rendering.
type Context struct {
	Request *fetch.Request
	Params  Params

	// Data is the value returned by this route's loader.
	Data any

	// ActionData is the value returned by the leaf action, if one ran.
	ActionData any

	Dev bool

	outlet g.Node
}

// NewContext creates a render context. outlet is the already rendered
// child route, or nil at the leaf.
func NewContext(req *fetch.Request, params Params, data, actionData any, outlet g.Node) *Context {
	return &Context{
		Request:    req,
		Params:     params,
		Data:       data,
		ActionData: actionData,
		outlet:     outlet,
	}
}

// Outlet renders the matched child route. At the leaf it renders nothing.
func (c *Context) Outlet() g.Node {
	if c == nil || c.outlet == nil {
		return g.Group{}
	}
	return c.outlet
}

// Param returns the named path param or "".
func (c *Context) Param(name string) string {
	return c.Params.Get(name)
}

// LoaderData returns the route's loader data as T, or the zero value when
// the loader returned something else.
func LoaderData[T any](c *Context) T {
	v, _ := c.Data.(T)
	return v
}

// ActionResult returns the leaf action's result as T.
func ActionResult[T any](c *Context) T {
	v, _ := c.ActionData.(T)
	return v
}
