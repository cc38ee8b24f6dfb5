// Package adapter assembles the request pipeline a deployment target runs:
// the static export short-circuit followed by the render dispatcher.
//
// Host-specific shims live in subpackages. Each converts the host's native
// request into a fetch.Request, calls Pipeline.Serve and copies the
// response back. New records the project root before the first request;
// the root is write-once for the life of the process.
package adapter
