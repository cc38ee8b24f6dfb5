// Package codegen writes the route registry source, routes_gen.go.
//
// The generated file lives in the routes directory and registers every
// route module under its module id:
//
//	var Registry = route.NewRegistry("app/routes").
//		Register("app/routes/index.go", route.Module{Page: IndexPage})
//
// Server registries bind every role. Client registries bind only the
// component, Meta and Handle, matching what the client split keeps.
package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/remastered-go/remastered/internal/errors"
	"github.com/remastered-go/remastered/pkg/route"
)

// Mode selects which roles are registered.
type Mode int

const (
	ModeServer Mode = iota
	ModeClient
)

const (
	// RouteImportPath is imported by every generated registry.
	RouteImportPath = "github.com/remastered-go/remastered/pkg/route"

	// DefaultPackage names the registry package when the routes directory
	// holds no Go files of its own.
	DefaultPackage = "routes"

	header = "// Code generated by remastered. DO NOT EDIT.\n\n"
)

// Options configures Generate.
type Options struct {
	// ModulePath is the Go module path of the app.
	ModulePath string

	// RoutesDir is the project-relative routes directory. Default "app/routes".
	RoutesDir string

	// Files are the scanned route files.
	Files []route.File

	Mode Mode
}

// roleFields maps roles to route.Module fields in emission order.
var roleFields = []struct {
	role  route.Role
	field string
}{
	{route.RolePage, "Page"},
	{route.RoleLoader, "Loader"},
	{route.RoleAction, "Action"},
	{route.RoleHeaders, "Headers"},
	{route.RoleMeta, "Meta"},
	{route.RoleHandle, "Handle"},
}

type pkgRef struct {
	importPath string
	alias      string
}

// Generate returns the formatted registry source. Output is a pure
// function of opts.
func Generate(opts Options) ([]byte, error) {
	if opts.ModulePath == "" {
		return nil, errors.New("R111").
			WithDetail("The app module path is unknown").
			WithSuggestion("Set \"module\" in remastered.json or run inside a Go module")
	}
	routesDir := opts.RoutesDir
	if routesDir == "" {
		routesDir = route.DefaultRoutesDir
	}
	routesDir = path.Clean(routesDir)

	files := append([]route.File(nil), opts.Files...)
	sort.Slice(files, func(i, j int) bool { return files[i].ID < files[j].ID })

	pkgName := PackageName(routesDir, files)
	refs := make(map[string]pkgRef)
	for _, f := range files {
		dir := path.Dir(f.ID)
		if dir == routesDir {
			continue
		}
		if _, ok := refs[dir]; !ok {
			refs[dir] = pkgRef{
				importPath: opts.ModulePath + "/" + dir,
				alias:      aliasFor(routesDir, dir),
			}
		}
	}

	var b bytes.Buffer
	b.WriteString(header)
	fmt.Fprintf(&b, "package %s\n\n", pkgName)
	b.WriteString("import (\n")
	fmt.Fprintf(&b, "\t%q\n", RouteImportPath)
	if len(refs) > 0 {
		b.WriteString("\n")
		dirs := make([]string, 0, len(refs))
		for dir := range refs {
			dirs = append(dirs, dir)
		}
		sort.Strings(dirs)
		for _, dir := range dirs {
			fmt.Fprintf(&b, "\t%s %q\n", refs[dir].alias, refs[dir].importPath)
		}
	}
	b.WriteString(")\n\n")

	b.WriteString("// Registry holds every route module of the app.\n")
	fmt.Fprintf(&b, "var Registry = route.NewRegistry(%q)", routesDir)
	for _, f := range files {
		qual := ""
		if ref, ok := refs[path.Dir(f.ID)]; ok {
			qual = ref.alias + "."
		}
		var fields []string
		for _, rf := range roleFields {
			name, ok := f.Exports[rf.role]
			if !ok || (opts.Mode == ModeClient && rf.role.ServerOnly()) {
				continue
			}
			fields = append(fields, rf.field+": "+qual+name)
		}
		fmt.Fprintf(&b, ".\n\tRegister(%q, route.Module{%s})", f.ID, strings.Join(fields, ", "))
	}
	b.WriteString("\n")

	out, err := format.Source(b.Bytes())
	if err != nil {
		return nil, errors.New("R111").WithDetail(b.String()).Wrap(err)
	}
	return out, nil
}

// Write generates the registry into root/<routesDir>/routes_gen.go. The
// file is only rewritten when its content changes.
func Write(root string, opts Options) (changed bool, err error) {
	code, err := Generate(opts)
	if err != nil {
		return false, err
	}
	routesDir := opts.RoutesDir
	if routesDir == "" {
		routesDir = route.DefaultRoutesDir
	}
	target := filepath.Join(root, filepath.FromSlash(routesDir), route.GeneratedFile)

	current, err := os.ReadFile(target)
	if err == nil && bytes.Equal(current, code) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return false, errors.New("R111").Wrap(err)
	}
	if err := os.WriteFile(target, code, 0o644); err != nil {
		return false, errors.New("R111").Wrap(err)
	}
	return true, nil
}

// PackageName returns the package declared by route files directly in
// routesDir, or DefaultPackage.
func PackageName(routesDir string, files []route.File) string {
	for _, f := range files {
		if path.Dir(f.ID) == path.Clean(routesDir) && f.Package != "" {
			return f.Package
		}
	}
	return DefaultPackage
}

// aliasFor derives a stable import alias from a directory's position
// relative to the routes directory. The root layout's directory is "app".
func aliasFor(routesDir, dir string) string {
	rel, ok := strings.CutPrefix(dir, routesDir+"/")
	if !ok {
		rel = path.Base(dir)
	}
	var b strings.Builder
	b.WriteString("r_")
	for _, r := range rel {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
