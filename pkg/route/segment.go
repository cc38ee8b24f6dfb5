package route

import (
	stderrors "errors"
	"fmt"
	"path"
	"regexp"
	"strings"
)

// SegmentKind classifies a path segment.
type SegmentKind int

const (
	SegmentIndex SegmentKind = iota
	SegmentStatic
	SegmentParam
	SegmentCatchAll
)

// KindOf classifies a converted segment ("", "users", ":id", "*path").
func KindOf(seg string) SegmentKind {
	switch {
	case seg == "":
		return SegmentIndex
	case strings.HasPrefix(seg, ":"):
		return SegmentParam
	case strings.HasPrefix(seg, "*"):
		return SegmentCatchAll
	}
	return SegmentStatic
}

var (
	// slug_ → :slug
	paramRe = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9]*)_$`)
	// path__ → *path
	catchAllRe = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9]*)__$`)

	staticFileRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]*$`)
	staticDirRe  = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)
)

// ErrUnbuildableName reports a file or directory name the go tool would
// reject or silently skip: a leading underscore or dot, characters outside
// letters, digits and hyphens, or an underscore anywhere but the trailing
// dynamic marker, where it could read as a build constraint (page_js.go).
var ErrUnbuildableName = stderrors.New("name cannot be built by the go tool")

// ConvertSegment maps one file or directory name (without extension) to a
// URL segment. isFile marks the last element of a route file path, where
// "index" means the empty trailing segment. Directories are Go packages,
// so their static names must be identifiers.
func ConvertSegment(name string, isFile bool) (string, error) {
	if isFile && name == "index" {
		return "", nil
	}
	if m := catchAllRe.FindStringSubmatch(name); m != nil {
		return "*" + m[1], nil
	}
	if m := paramRe.FindStringSubmatch(name); m != nil {
		return ":" + m[1], nil
	}

	static := staticDirRe
	if isFile {
		static = staticFileRe
	}
	switch {
	case static.MatchString(name):
		return name, nil
	case strings.HasSuffix(name, "_") && !strings.HasPrefix(name, "_") && staticFileRe.MatchString(strings.TrimRight(name, "_")):
		return "", fmt.Errorf("segment %q mixes static text with a dynamic marker", name)
	}
	return "", fmt.Errorf("%w: %q", ErrUnbuildableName, name)
}

// DeriveSegments converts a route file path relative to the routes
// directory ("users/slug_.go") into URL segments ([users :slug]).
func DeriveSegments(rel string) ([]string, error) {
	rel = strings.TrimSuffix(strings.ReplaceAll(rel, "\\", "/"), ".go")
	parts := strings.Split(rel, "/")

	segs := make([]string, 0, len(parts))
	for i, part := range parts {
		seg, err := ConvertSegment(part, i == len(parts)-1)
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

// LayoutID returns the module id of the root layout that sits next to the
// routes directory.
func LayoutID(routesDir string) string {
	return path.Join(path.Dir(path.Clean(routesDir)), "layout.go")
}

// IsRouteFile reports whether the project-relative, slash separated path
// names a route module.
func IsRouteFile(routesDir, rel string) bool {
	rel = path.Clean(strings.ReplaceAll(rel, "\\", "/"))
	if rel == LayoutID(routesDir) {
		return true
	}
	if !strings.HasPrefix(rel, path.Clean(routesDir)+"/") {
		return false
	}
	base := path.Base(rel)
	return strings.HasSuffix(base, ".go") &&
		!strings.HasSuffix(base, "_test.go") &&
		base != GeneratedFile &&
		!strings.HasPrefix(base, ".")
}

// GeneratedFile is the name of the generated registry source.
const GeneratedFile = "routes_gen.go"

// segmentsForID derives the segments of a module id. The root layout has
// no segments.
func segmentsForID(routesDir, id string) ([]string, error) {
	if id == LayoutID(routesDir) {
		return nil, nil
	}
	rel, ok := strings.CutPrefix(id, path.Clean(routesDir)+"/")
	if !ok {
		return nil, fmt.Errorf("%s is not under %s", id, routesDir)
	}
	return DeriveSegments(rel)
}
