// Package render writes complete HTML documents around a rendered route
// tree.
//
//	err := render.RenderPage(w, render.PageData{
//	    Title: "Users",
//	    Meta:  []render.MetaTag{{Name: "description", Content: "All users"}},
//	    Scripts: []render.ScriptTag{{Src: "/assets/entry.client.js", Module: true}},
//	    Body:  node,
//	})
//
// Scripts marked Defer or Async go in the head, everything else at the end
// of the body.
package render
