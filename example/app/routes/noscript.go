package routes

import (
	"context"
	"time"

	"github.com/remastered-go/remastered/pkg/fetch"
	"github.com/remastered-go/remastered/pkg/route"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

type noScriptData struct {
	Date string
}

func NoScriptHeaders(route.HeadersArgs) fetch.Header {
	return fetch.NewHeader("x-remastered-app", "oh yeaaaaaah baby")
}

func NoScriptLoader(context.Context, route.DataArgs) (any, error) {
	return noScriptData{Date: time.Now().Format(time.RFC1123)}, nil
}

func NoScriptPage(c *route.Context) g.Node {
	data := route.LoaderData[noScriptData](c)
	return g.Group([]g.Node{
		h.H1(g.Text("No Script Tags!")),
		h.P(g.Text("This page is without scripts. Just plain SSR!")),
		h.P(h.Class("rendered-footer"), g.Textf("Page rendered at %s", data.Date)),
	})
}

var NoScriptHandle = route.Handle{NoScripts: true}
