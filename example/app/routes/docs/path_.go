package docs

import (
	"context"
	"net/http"

	"github.com/remastered-go/remastered/example/app/content"
	"github.com/remastered-go/remastered/pkg/fetch"
	"github.com/remastered-go/remastered/pkg/route"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

func Loader(_ context.Context, args route.DataArgs) (any, error) {
	doc, err := content.ReadDoc(args.Params.Get("path"))
	if err == content.ErrNotFound {
		return fetch.Text(http.StatusNotFound, "no such document"), nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func Headers(args route.HeadersArgs) fetch.Header {
	if args.Dev {
		return nil
	}
	return fetch.NewHeader("Cache-Control", "public, s-max-age=3600, must-revalidate, stale-while-revalidate=31536000")
}

func Page(c *route.Context) g.Node {
	doc := route.LoaderData[content.Doc](c)
	paragraphs := make([]g.Node, 0, len(doc.Paragraphs))
	for _, p := range doc.Paragraphs {
		paragraphs = append(paragraphs, h.P(g.Text(p)))
	}
	return h.Article(
		h.H1(g.Text(doc.Title)),
		g.Group(paragraphs),
	)
}

func Meta(args route.MetaArgs) route.MetaDescriptor {
	doc, _ := args.Data.(content.Doc)
	return route.MetaDescriptor{"title": "Remastered: " + doc.Title}
}
