// Package router adapts a route tree into nested router routes and matches
// request paths against them.
//
// Every emitted Route keeps the module id of the file it came from, so a
// matched leaf can be traced back to the module that serves it:
//
//	routes := router.FromTree(tree)
//	matches := router.MatchRoutes(routes, "/users/ada")
//	id := router.RouteFile(matches) // "app/routes/users/slug_.go"
//
// Matching is nested: the result holds one Match per level, root first.
// Static segments beat params, params beat catch-alls, and a failed
// deeper match backtracks to the next candidate.
package router
