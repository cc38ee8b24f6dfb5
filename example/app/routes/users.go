package routes

import (
	"context"

	"github.com/remastered-go/remastered/example/app/database"
	"github.com/remastered-go/remastered/pkg/route"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

func UsersLoader(ctx context.Context, _ route.DataArgs) (any, error) {
	return database.Users().List(ctx)
}

func UsersLayout(c *route.Context) g.Node {
	users := route.LoaderData[[]database.User](c)
	items := make([]g.Node, 0, len(users))
	for _, u := range users {
		items = append(items, h.Li(h.A(h.Href("/users/"+u.Slug), g.Text(u.Name))))
	}
	return g.Group([]g.Node{
		h.H1(g.Text("Users")),
		h.Ul(h.ID("users"), g.Group(items)),
		c.Outlet(),
	})
}

func UsersMeta(route.MetaArgs) route.MetaDescriptor {
	return route.MetaDescriptor{"title": "Users"}
}
