package route

import (
	stderrors "errors"
	"fmt"
	"path"
	"sort"
	"strings"
)

// File is a discovered route module.
type File struct {
	// ID is the module id: the path relative to the project root.
	ID string

	// Path is the absolute path on disk. Empty for registry-built trees.
	Path string

	// Package is the Go package name declared by the file.
	Package string

	Exports Exports
}

// BuildOptions configures Build.
type BuildOptions struct {
	// RoutesDir is the project-relative routes directory. Default "app/routes".
	RoutesDir string

	// Registry binds modules to nodes when set.
	Registry *Registry
}

// DefaultRoutesDir is the conventional routes directory.
const DefaultRoutesDir = "app/routes"

// Build inserts every file into a trie keyed by segment. It is a pure
// function of its input: the same files always produce an equal tree.
// All problems are reported together as a *MultiValidationError.
func Build(files []File, opts BuildOptions) (*Tree, error) {
	routesDir := opts.RoutesDir
	if routesDir == "" {
		routesDir = DefaultRoutesDir
	}
	routesDir = path.Clean(routesDir)

	sorted := append([]File(nil), files...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	root := &Node{Segment: "/"}
	owners := make(map[*Node][]string)
	sigs := make(map[*Node]string)
	var errs []ValidationError

	for _, f := range sorted {
		segs, err := segmentsForID(routesDir, f.ID)
		if err != nil {
			typ := ErrorMixedSegment
			if stderrors.Is(err, ErrUnbuildableName) {
				typ = ErrorUnbuildableName
			}
			errs = append(errs, ValidationError{
				Type:    typ,
				Message: fmt.Sprintf("Invalid route file name %s", f.ID),
				Files:   []string{f.ID},
				Path:    f.ID,
				Details: err.Error(),
			})
			continue
		}

		node, sig := root, "/"
		for _, seg := range segs {
			node = node.addChild(seg)
			sig = signature(sig, seg)
		}
		owners[node] = append(owners[node], f.ID)
		sigs[node] = sig
		if node.ID == "" {
			node.ID = f.ID
			node.File = f.Path
			node.Exports = f.Exports
		}
	}

	for node, ids := range owners {
		if len(ids) > 1 {
			errs = append(errs, ValidationError{
				Type:    ErrorDuplicateRoute,
				Message: fmt.Sprintf("Duplicate route detected at %s", sigs[node]),
				Path:    sigs[node],
				Files:   ids,
				Details: fmt.Sprintf("Files: %s", strings.Join(ids, ", ")),
			})
		}
	}

	root.sortChildren()
	errs = append(errs, validateSiblings(root, "/")...)
	if err := newMultiError(errs); err != nil {
		return nil, err
	}

	tree := &Tree{Root: root}
	if opts.Registry != nil {
		tree.Walk(func(n *Node, _ string) bool {
			if n.ID == "" {
				return true
			}
			if m, ok := opts.Registry.Lookup(n.ID); ok {
				n.Module = m
			}
			if n.Exports == nil {
				n.Exports = n.Module.Exports()
			}
			return true
		})
	}
	tree.Walk(func(n *Node, _ string) bool {
		if n.Exports == nil {
			n.Exports = make(Exports)
		}
		return true
	})
	return tree, nil
}
