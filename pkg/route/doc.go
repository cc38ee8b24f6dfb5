// Package route discovers route modules and builds the route tree.
//
// Route modules are Go files under the routes directory (app/routes by
// default) plus an optional root layout, app/layout.go. A file's URL path
// comes from its location:
//
//	app/layout.go              → / (root layout)
//	app/routes/index.go        → / (index)
//	app/routes/users.go        → /users (layout for app/routes/users/)
//	app/routes/users/index.go  → /users (index)
//	app/routes/users/slug_.go  → /users/:slug
//	app/routes/org_/id_.go     → /:org/:id
//	app/routes/docs/path__.go  → /docs/*path (catch-all)
//
// Every name must be one the go tool builds: letters, digits and hyphens
// (identifiers for directories), with the trailing underscore markers as
// the only underscores. Anything else is rejected with R104 rather than
// silently left out of the package.
//
// A module's roles are read from its exported names: Loader, Action,
// Headers, Meta and Handle, either bare or as a suffix (UsersLoader), plus
// a component named Page, Layout, Component or ending in Page or Layout.
// Files are parsed, never executed. The generated routes_gen.go binds the
// discovered names to a Registry so the tree can be rebuilt at runtime
// without touching the filesystem.
package route
