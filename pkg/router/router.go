package router

import (
	g "maragu.dev/gomponents"

	"github.com/remastered-go/remastered/pkg/route"
)

// Route is one node of a nested router.
type Route struct {
	// Path is the node's segment: "/" at the root, "" for an index route,
	// "users", ":slug" or "*path".
	Path string

	Index bool

	CaseSensitive bool

	// Element renders the route. Nodes without a component get Outlet.
	Element route.PageFunc

	Children []Route

	// RouteFile is the module id backing the route, empty for layout-only
	// nodes.
	RouteFile string
}

// FromTree converts a route tree. It is a pure structural mapping.
func FromTree(tree *route.Tree) []Route {
	if tree == nil || tree.Root == nil {
		return nil
	}
	return []Route{fromNode(tree.Root)}
}

func fromNode(n *route.Node) Route {
	r := Route{
		Path:          n.Segment,
		Index:         n.IsIndex(),
		CaseSensitive: true,
		Element:       Outlet,
		RouteFile:     n.ID,
	}
	if n.Module != nil && n.Module.Page != nil {
		r.Element = n.Module.Page
	}
	if len(n.Children) > 0 {
		r.Children = make([]Route, 0, len(n.Children))
		for _, child := range n.Children {
			r.Children = append(r.Children, fromNode(child))
		}
	}
	return r
}

// Outlet renders the matched child route.
func Outlet(c *route.Context) g.Node {
	return c.Outlet()
}
