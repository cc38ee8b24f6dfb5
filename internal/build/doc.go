// Package build produces the production artifacts of a remastered app.
//
// The builder scans and validates the routes, then stages two copies of
// the project under .remastered/: the server copy keeps route files as
// they are, the client copy runs them through the client split. Each copy
// gets its own generated routes_gen.go and main package.
//
// # Output Structure
//
//	dist/
//	├── build.json                 # build id, routes, asset map
//	├── server/
//	│   └── entry.server.so        # server entry plugin exporting Entry
//	└── client/
//	    ├── manifest.json          # client chunks (esbuild metafile)
//	    ├── ssr-manifest.json      # module id -> preload URLs
//	    └── assets/
//	        ├── entry-<hash>.js    # bootstrap bundle
//	        ├── app.<hash>.wasm    # client build of the routes
//	        └── ...                # fingerprinted public files
package build
