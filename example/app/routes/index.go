package routes

import (
	"github.com/remastered-go/remastered/pkg/route"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

func Page(c *route.Context) g.Node {
	return g.Group([]g.Node{
		h.H1(g.Text("Remastered")),
		h.P(g.Text("Every page here is rendered on the server from a Go route file.")),
	})
}
