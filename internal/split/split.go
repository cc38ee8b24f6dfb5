// Package split rewrites route modules for the client build.
//
// A client build keeps a route file's imports, types, methods and
// unexported declarations, plus the exported component and the Meta and
// Handle bindings. Every other exported func, var or const is dropped
// whole; bodies are never partially trimmed. Kept declarations are copied
// byte for byte from the input. The server build passes files through
// unchanged. Route code is parsed, never run.
package split

import (
	"bytes"
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/remastered-go/remastered/internal/errors"
	"github.com/remastered-go/remastered/pkg/route"
)

// Mode selects the build a file is split for.
type Mode int

const (
	ModeServer Mode = iota
	ModeClient
)

func (m Mode) String() string {
	if m == ModeClient {
		return "client"
	}
	return "server"
}

const (
	// HMRImportPath is the package providing AcceptSelf.
	HMRImportPath = "github.com/remastered-go/remastered/pkg/hmr"

	hmrImportName = "remasteredhmr"
	marker        = "// remastered:accept-self"
	snippet       = marker + "\nfunc init() { " + hmrImportName + ".AcceptSelf() }\n"
)

// IsRouteFile reports whether path, absolute or relative to root, is a
// route module for routesDir.
func IsRouteFile(root, routesDir, p string) bool {
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(root, p)
		if err != nil || strings.HasPrefix(rel, "..") {
			return false
		}
		p = rel
	}
	return route.IsRouteFile(routesDir, filepath.ToSlash(p))
}

// Split transforms src, the contents of filename, for mode. Parse errors
// are R110 errors naming the file.
//
// The client output is the file header and every kept declaration copied
// byte for byte, with unused imports removed and the self-accept hook
// appended. Nothing is reformatted.
func Split(filename string, src []byte, mode Mode) ([]byte, error) {
	if mode == ModeServer {
		return src, nil
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, route.ParseError(filename, err)
	}

	kept := filterDecls(fset, file, src)

	// Re-parse the filtered text to find imports only dropped code used.
	fset2 := token.NewFileSet()
	out, err := parser.ParseFile(fset2, filename, kept, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, errors.New("R110").
			WithDetail("client split of " + filename + " produced invalid Go").
			Wrap(err)
	}

	hasSnippet := bytes.Contains(src, []byte(marker))
	res := editImports(fset2, out, kept, unusedImports(file, out), !hasSnippet)
	if !hasSnippet {
		res = append(res, '\n')
		res = append(res, snippet...)
	}
	return res, nil
}

// unusedImports returns the imports of out that file used and out no
// longer does.
func unusedImports(file, out *ast.File) map[*ast.ImportSpec]bool {
	before := qualifiers(file)
	after := qualifiers(out)

	drop := make(map[*ast.ImportSpec]bool)
	for _, imp := range out.Imports {
		name, ok := importName(imp)
		if !ok {
			continue
		}
		if imp.Name != nil {
			p := importPath(imp)
			if astutil.UsesImport(file, p) && !astutil.UsesImport(out, p) {
				drop[imp] = true
			}
			continue
		}
		if before[name] && !after[name] {
			drop[imp] = true
		}
	}
	return drop
}

type edit struct {
	start, end int
	text       string
}

// editImports removes the dropped import specs from text and, when addHMR
// is set, adds the hot-reload import after the last import declaration
// left standing.
func editImports(fset *token.FileSet, f *ast.File, text []byte, drop map[*ast.ImportSpec]bool, addHMR bool) []byte {
	tf := fset.File(f.Pos())
	off := func(p token.Pos) int { return tf.Offset(p) }

	var edits []edit
	anchor := off(f.Name.End())
	for _, decl := range f.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.IMPORT {
			continue
		}
		n := 0
		for _, spec := range gd.Specs {
			if drop[spec.(*ast.ImportSpec)] {
				n++
			}
		}
		if n == len(gd.Specs) {
			edits = append(edits, edit{start: off(declStart(gd)), end: off(gd.End())})
			continue
		}
		for _, spec := range gd.Specs {
			imp := spec.(*ast.ImportSpec)
			if !drop[imp] {
				continue
			}
			start, end := imp.Pos(), imp.End()
			if imp.Doc != nil {
				start = imp.Doc.Pos()
			}
			if imp.Comment != nil {
				end = imp.Comment.End()
			}
			edits = append(edits, edit{start: off(start), end: off(end)})
		}
		anchor = off(gd.End())
	}
	if addHMR {
		edits = append(edits, edit{
			start: anchor,
			end:   anchor,
			text:  "\n\nimport " + hmrImportName + " " + strconv.Quote(HMRImportPath),
		})
	}
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].start > edits[j].start })

	out := append([]byte(nil), text...)
	for _, e := range edits {
		start, end := e.start, e.end
		if start != end {
			start, end = removalLines(out, start, end)
		}
		out = append(out[:start], append([]byte(e.text), out[end:]...)...)
	}
	return out
}

// removalLines widens [start, end) to the whole lines it covers when
// nothing else shares them, and takes one neighbouring blank line along
// when the removal would leave it doubled or against a parenthesis.
func removalLines(text []byte, start, end int) (int, int) {
	ls := start
	for ls > 0 && text[ls-1] != '\n' {
		ls--
	}
	le := end
	for le < len(text) && text[le] != '\n' {
		le++
	}
	if !blank(text[ls:start]) || !blank(text[end:le]) {
		return start, end
	}
	if le < len(text) {
		le++
	}

	prevStart := ls
	if ls > 0 {
		prevStart = ls - 1
		for prevStart > 0 && text[prevStart-1] != '\n' {
			prevStart--
		}
	}
	prev := bytes.TrimSpace(text[prevStart:ls])
	nextEnd := le
	for nextEnd < len(text) && text[nextEnd] != '\n' {
		nextEnd++
	}
	next := bytes.TrimSpace(text[le:nextEnd])

	prevBlank := ls == 0 || len(prev) == 0
	nextBlank := le < len(text) && len(next) == 0
	switch {
	case nextBlank && (prevBlank || bytes.HasSuffix(prev, []byte("("))):
		le = nextEnd
		if le < len(text) {
			le++
		}
	case ls > 0 && len(prev) == 0 && (bytes.HasPrefix(next, []byte(")")) || le == len(text)):
		ls = prevStart
	}
	return ls, le
}

func blank(b []byte) bool {
	return len(bytes.TrimSpace(b)) == 0
}

// filterDecls returns the file header followed by the byte slices of every
// kept declaration.
func filterDecls(fset *token.FileSet, file *ast.File, src []byte) []byte {
	tf := fset.File(file.Pos())
	off := func(p token.Pos) int { return tf.Offset(p) }

	if len(file.Decls) == 0 {
		return src
	}

	var b bytes.Buffer
	b.Write(src[:off(declStart(file.Decls[0]))])

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if keepFunc(d) {
				writeDecl(&b, src[off(declStart(d)):withLineComment(src, off(d.End()))])
			}
		case *ast.GenDecl:
			writeGenDecl(&b, d, src, off)
		default:
			writeDecl(&b, src[off(decl.Pos()):withLineComment(src, off(decl.End()))])
		}
	}
	return b.Bytes()
}

// withLineComment extends end over a // comment that closes the same line.
func withLineComment(src []byte, end int) int {
	i := end
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	if !bytes.HasPrefix(src[i:], []byte("//")) {
		return end
	}
	if j := bytes.IndexByte(src[i:], '\n'); j >= 0 {
		return i + j
	}
	return len(src)
}

func writeDecl(b *bytes.Buffer, text []byte) {
	if b.Len() > 0 && !bytes.HasSuffix(b.Bytes(), []byte("\n\n")) {
		if bytes.HasSuffix(b.Bytes(), []byte("\n")) {
			b.WriteString("\n")
		} else {
			b.WriteString("\n\n")
		}
	}
	b.Write(text)
	b.WriteString("\n")
}

func writeGenDecl(b *bytes.Buffer, d *ast.GenDecl, src []byte, off func(token.Pos) int) {
	if d.Tok == token.IMPORT || d.Tok == token.TYPE {
		writeDecl(b, src[off(declStart(d)):withLineComment(src, off(d.End()))])
		return
	}

	var kept []ast.Spec
	for _, spec := range d.Specs {
		if keepValueSpec(spec.(*ast.ValueSpec)) {
			kept = append(kept, spec)
		}
	}
	switch {
	case len(kept) == len(d.Specs):
		writeDecl(b, src[off(declStart(d)):withLineComment(src, off(d.End()))])
	case len(kept) == 0:
	default:
		var g bytes.Buffer
		g.WriteString(d.Tok.String())
		g.WriteString(" (\n")
		for _, spec := range kept {
			vs := spec.(*ast.ValueSpec)
			start := vs.Pos()
			if vs.Doc != nil {
				start = vs.Doc.Pos()
			}
			end := vs.End()
			if vs.Comment != nil {
				end = vs.Comment.End()
			}
			g.WriteString("\t")
			g.Write(src[off(start):off(end)])
			g.WriteString("\n")
		}
		g.WriteString(")")
		writeDecl(b, g.Bytes())
	}
}

func declStart(d ast.Decl) token.Pos {
	switch d := d.(type) {
	case *ast.FuncDecl:
		if d.Doc != nil {
			return d.Doc.Pos()
		}
	case *ast.GenDecl:
		if d.Doc != nil {
			return d.Doc.Pos()
		}
	}
	return d.Pos()
}

func keepFunc(d *ast.FuncDecl) bool {
	if d.Recv != nil {
		return true
	}
	return keepName(d.Name.Name)
}

// keepValueSpec keeps a spec only when every name it binds is kept.
func keepValueSpec(s *ast.ValueSpec) bool {
	for _, n := range s.Names {
		if !keepName(n.Name) {
			return false
		}
	}
	return true
}

func keepName(name string) bool {
	if !ast.IsExported(name) {
		return true
	}
	role, ok := route.RoleOf(name)
	if !ok {
		return false
	}
	return !role.ServerOnly()
}

// qualifiers collects identifiers used as selector bases outside import
// declarations: the package names a file refers to.
func qualifiers(f *ast.File) map[string]bool {
	used := make(map[string]bool)
	for _, decl := range f.Decls {
		if gd, ok := decl.(*ast.GenDecl); ok && gd.Tok == token.IMPORT {
			continue
		}
		ast.Inspect(decl, func(n ast.Node) bool {
			if sel, ok := n.(*ast.SelectorExpr); ok {
				if id, ok := sel.X.(*ast.Ident); ok {
					used[id.Name] = true
				}
			}
			return true
		})
	}
	return used
}

var majorSuffix = regexp.MustCompile(`^v[0-9]+$`)

// importName returns the name an import is referred to by. Blank and dot
// imports report false; they are never pruned.
func importName(imp *ast.ImportSpec) (string, bool) {
	if imp.Name != nil {
		if imp.Name.Name == "_" || imp.Name.Name == "." {
			return "", false
		}
		return imp.Name.Name, true
	}

	p := importPath(imp)
	base := path.Base(p)
	if majorSuffix.MatchString(base) && path.Dir(p) != "." {
		base = path.Base(path.Dir(p))
	}
	if i := strings.Index(base, ".v"); i > 0 {
		base = base[:i]
	}
	base = strings.TrimPrefix(base, "go-")
	base = strings.ReplaceAll(base, "-", "")
	return base, base != ""
}

func importPath(imp *ast.ImportSpec) string {
	return strings.Trim(imp.Path.Value, "\"`")
}
