// Package dispatch turns a normalized request into a normalized response by
// invoking the active server entry.
//
// A Strategy decides where handlers come from. Development fetches a fresh
// entry from the compile service on every request so code edits take
// effect without a restart. Production resolves the built entry and render
// manifests once, at startup, and caches them for the life of the process.
//
// The Dispatcher never fails: render errors and panics become a 500
// text/plain response. Requests carrying an x-debug header get the full
// error detail in the body.
package dispatch
