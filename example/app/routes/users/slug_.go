package users

import (
	"context"
	"net/http"

	"github.com/remastered-go/remastered/example/app/database"
	"github.com/remastered-go/remastered/pkg/fetch"
	"github.com/remastered-go/remastered/pkg/route"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

func UserLoader(ctx context.Context, args route.DataArgs) (any, error) {
	u, ok, err := database.Users().Get(ctx, args.Params.Get("slug"))
	if err != nil {
		return nil, err
	}
	if !ok {
		return fetch.Text(http.StatusNotFound, "user not found"), nil
	}
	return u, nil
}

func UserPage(c *route.Context) g.Node {
	u := route.LoaderData[database.User](c)
	return h.Article(
		h.H2(g.Text(u.Name)),
		h.P(g.Textf("slug: %s", u.Slug)),
	)
}

func UserMeta(args route.MetaArgs) route.MetaDescriptor {
	u, _ := args.Data.(database.User)
	return route.MetaDescriptor{"title": u.Name}
}
