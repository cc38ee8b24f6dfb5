package router

import (
	"net/url"
	"strings"

	"github.com/remastered-go/remastered/pkg/route"
)

// Match is one matched level of a nested route.
type Match struct {
	Route *Route

	// Params holds every param of the full match.
	Params route.Params

	// Pathname is the part of the URL matched up to and including this level.
	Pathname string
}

// MatchRoutes matches pathname against routes. It returns nil when nothing
// matches.
func MatchRoutes(routes []Route, pathname string) []Match {
	segs := splitPath(pathname)
	for i := range routes {
		if matches, ok := matchRoute(&routes[i], segs, "/", route.Params{}); ok {
			params := matches[len(matches)-1].Params
			for j := range matches {
				matches[j].Params = params
			}
			return matches
		}
	}
	return nil
}

// RouteFile returns the module id backing the matched leaf.
func RouteFile(matches []Match) string {
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1].Route.RouteFile
}

func matchRoute(r *Route, segs []string, base string, params route.Params) ([]Match, bool) {
	rest := segs
	pathname := base

	switch route.KindOf(r.Path) {
	case route.SegmentIndex:
		if len(segs) != 0 {
			return nil, false
		}
		return []Match{{Route: r, Params: params, Pathname: pathname}}, true

	case route.SegmentParam:
		if len(segs) == 0 {
			return nil, false
		}
		params = with(params, r.Path[1:], segs[0])
		rest = segs[1:]
		pathname = join(base, segs[0])

	case route.SegmentCatchAll:
		params = with(params, r.Path[1:], strings.Join(segs, "/"))
		rest = nil
		for _, s := range segs {
			pathname = join(pathname, s)
		}

	default:
		if r.Path != "/" {
			if len(segs) == 0 || !equalSegment(segs[0], r.Path, r.CaseSensitive) {
				return nil, false
			}
			rest = segs[1:]
			pathname = join(base, segs[0])
		}
	}

	self := Match{Route: r, Params: params, Pathname: pathname}
	for i := range r.Children {
		if matches, ok := matchRoute(&r.Children[i], rest, pathname, params); ok {
			return append([]Match{self}, matches...), true
		}
	}
	if len(rest) == 0 && r.RouteFile != "" {
		return []Match{self}, true
	}
	return nil, false
}

// with returns a copy of params with one more entry, so backtracking never
// sees values from a failed branch.
func with(params route.Params, name, value string) route.Params {
	out := make(route.Params, len(params)+1)
	for k, v := range params {
		out[k] = v
	}
	out[name] = value
	return out
}

func equalSegment(got, want string, caseSensitive bool) bool {
	if caseSensitive {
		return got == want
	}
	return strings.EqualFold(got, want)
}

func join(base, seg string) string {
	if strings.HasSuffix(base, "/") {
		return base + seg
	}
	return base + "/" + seg
}

// splitPath splits a path into decoded, non-empty segments.
func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	parts := strings.Split(path, "/")
	segs := parts[:0]
	for _, p := range parts {
		if p == "" {
			continue
		}
		if decoded, err := url.PathUnescape(p); err == nil {
			p = decoded
		}
		segs = append(segs, p)
	}
	return segs
}
