// Package export persists rendered responses and serves them back without
// rendering.
//
// One record is stored per (method, URL) pair under a key derived from
// those two fields alone:
//
//	GET/index.json
//	GET/docs/intro/index.json
//	GET/search/index.3f2a9c1b04d5e6f7.json   (with a query string)
//
// A Finder looks a request up before the dispatcher runs. Requests carrying
// the x-skip-exported header always bypass it. Missing and corrupt records
// are both misses; they differ only in how they are logged and counted.
package export
