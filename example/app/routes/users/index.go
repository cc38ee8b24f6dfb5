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

// Action stores the submitted user and redirects back to the list.
func Action(ctx context.Context, args route.DataArgs) (any, error) {
	form, err := args.Request.Form()
	if err != nil {
		return nil, err
	}
	name := form.Get("name")
	if name == "" {
		return fetch.Text(http.StatusBadRequest, "name is required"), nil
	}
	if err := database.Users().Set(ctx, database.User{Name: name, Slug: slugify(name)}); err != nil {
		return nil, err
	}
	return fetch.Redirect("/users"), nil
}

func Page(*route.Context) g.Node {
	return h.Form(h.Method("post"),
		h.Input(h.Type("text"), h.Placeholder("name"), h.Name("name")),
		h.Button(h.Type("submit"), g.Text("Submit")),
	)
}

// slugify replaces every rune outside [A-Za-z0-9] with "-".
func slugify(name string) string {
	out := []rune(name)
	for i, r := range out {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			out[i] = '-'
		}
	}
	return string(out)
}
