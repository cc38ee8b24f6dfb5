// Package hmr records which route modules accept their own hot updates.
//
// Client builds of route files call AcceptSelf from a generated init
// function. In the browser the call also registers the module with the
// hot-reload client, which then re-instantiates the client instead of
// reloading the page when only self-accepting modules changed.
package hmr

import (
	"runtime"
	"sort"
	"sync"
)

var (
	mu       sync.Mutex
	accepted = make(map[string]bool)
)

// AcceptSelf marks the calling source file as self-accepting.
func AcceptSelf() {
	_, file, _, ok := runtime.Caller(1)
	if !ok {
		return
	}
	mu.Lock()
	accepted[file] = true
	mu.Unlock()
	register(file)
}

// Accepted reports whether file called AcceptSelf.
func Accepted(file string) bool {
	mu.Lock()
	defer mu.Unlock()
	return accepted[file]
}

// Modules returns every self-accepting file, sorted.
func Modules() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, 0, len(accepted))
	for f := range accepted {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
