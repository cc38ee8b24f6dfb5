package app

import (
	"github.com/remastered-go/remastered/pkg/assets"
	"github.com/remastered-go/remastered/pkg/route"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

func Layout(c *route.Context) g.Node {
	return g.Group([]g.Node{
		h.Header(
			h.Nav(
				h.A(h.Href("/"), h.Img(h.Src(assets.URL("logo.svg")), h.Alt("Remastered"), h.Width("32"))),
				h.A(h.Href("/"), g.Text("Home")),
				h.A(h.Href("/users"), g.Text("Users")),
				h.A(h.Href("/docs/getting-started"), g.Text("Docs")),
				h.A(h.Href("/noscript"), g.Text("No scripts")),
			),
		),
		h.Main(c.Outlet()),
	})
}

func Meta(route.MetaArgs) route.MetaDescriptor {
	return route.MetaDescriptor{
		"title":       "Remastered",
		"description": "Server-rendered Go with file-based routes",
	}
}
