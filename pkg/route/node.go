package route

import (
	"fmt"
	"sort"
	"strings"
)

// Node is one entry of the route tree.
type Node struct {
	// Segment is the URL fragment this node contributes: "/" for the root,
	// "" for an index route, "users", ":id" or "*path".
	Segment string

	// ID is the module id backing this node. Layout-only nodes have none.
	ID string

	// File is the absolute source path when the tree was scanned from disk.
	File string

	// Exports are the roles the module binds.
	Exports Exports

	// Module is the bound module, when a registry was supplied.
	Module *Module

	Children []*Node
}

// Kind classifies the node's segment.
func (n *Node) Kind() SegmentKind {
	if n.Segment == "/" {
		return SegmentStatic
	}
	return KindOf(n.Segment)
}

// IsIndex reports whether the node is an index route.
func (n *Node) IsIndex() bool {
	return n.Segment == ""
}

// HasComponent reports whether the node renders a component of its own.
func (n *Node) HasComponent() bool {
	return n.Exports.Has(RolePage) || (n.Module != nil && n.Module.Page != nil)
}

func (n *Node) findChild(segment string) *Node {
	for _, child := range n.Children {
		if child.Segment == segment {
			return child
		}
	}
	return nil
}

func (n *Node) addChild(segment string) *Node {
	if child := n.findChild(segment); child != nil {
		return child
	}
	child := &Node{Segment: segment}
	n.Children = append(n.Children, child)
	return child
}

// sortChildren orders children index, static (lexical), param, catch-all.
func (n *Node) sortChildren() {
	sort.SliceStable(n.Children, func(i, j int) bool {
		ki, kj := n.Children[i].Kind(), n.Children[j].Kind()
		if ki != kj {
			return ki < kj
		}
		return n.Children[i].Segment < n.Children[j].Segment
	})
	for _, child := range n.Children {
		child.sortChildren()
	}
}

// Tree is an immutable route tree.
type Tree struct {
	Root *Node
}

// Walk visits every node depth-first with its full URL pattern. Returning
// false skips the node's children.
func (t *Tree) Walk(fn func(n *Node, pattern string) bool) {
	if t == nil || t.Root == nil {
		return
	}
	walk(t.Root, "/", fn)
}

func walk(n *Node, pattern string, fn func(*Node, string) bool) {
	if !fn(n, pattern) {
		return
	}
	for _, child := range n.Children {
		walk(child, JoinPattern(pattern, child.Segment), fn)
	}
}

// JoinPattern appends a segment to a URL pattern.
func JoinPattern(parent, segment string) string {
	if segment == "" {
		return parent
	}
	if strings.HasSuffix(parent, "/") {
		return parent + segment
	}
	return parent + "/" + segment
}

// Find returns the node backed by the module id.
func (t *Tree) Find(id string) *Node {
	var found *Node
	t.Walk(func(n *Node, _ string) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Leaves returns the full root-to-leaf signature of every leaf. Index
// leaves end in "/" to tell them apart from their parent layout.
func (t *Tree) Leaves() []string {
	var out []string
	var visit func(n *Node, sig string)
	visit = func(n *Node, sig string) {
		if len(n.Children) == 0 {
			out = append(out, sig)
			return
		}
		for _, child := range n.Children {
			visit(child, signature(sig, child.Segment))
		}
	}
	if t != nil && t.Root != nil {
		visit(t.Root, "/")
	}
	return out
}

func signature(parent, segment string) string {
	if strings.HasSuffix(parent, "/") {
		return parent + segment
	}
	return parent + "/" + segment
}

// Equal reports whether two trees have the same shape, segments, module ids
// and exported roles.
func (t *Tree) Equal(other *Tree) bool {
	if t == nil || other == nil {
		return t == other
	}
	return equalNodes(t.Root, other.Root)
}

func equalNodes(a, b *Node) bool {
	if a.Segment != b.Segment || a.ID != b.ID || len(a.Children) != len(b.Children) {
		return false
	}
	if fmt.Sprint(a.Exports.Roles()) != fmt.Sprint(b.Exports.Roles()) {
		return false
	}
	for i := range a.Children {
		if !equalNodes(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// String renders the tree, one node per line.
func (t *Tree) String() string {
	var b strings.Builder
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		seg := n.Segment
		if seg == "" {
			seg = "(index)"
		}
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(seg)
		if n.ID != "" {
			b.WriteString("  ")
			b.WriteString(n.ID)
		}
		if roles := n.Exports.Roles(); len(roles) > 0 {
			names := make([]string, len(roles))
			for i, r := range roles {
				names[i] = string(r)
			}
			b.WriteString(" [" + strings.Join(names, ",") + "]")
		}
		b.WriteString("\n")
		for _, child := range n.Children {
			visit(child, depth+1)
		}
	}
	if t != nil && t.Root != nil {
		visit(t.Root, 0)
	}
	return b.String()
}
