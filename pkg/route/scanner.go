package route

import (
	stderrors "errors"
	"fmt"
	"go/ast"
	"go/parser"
	goscanner "go/scanner"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/remastered-go/remastered/internal/errors"
)

// Scanner discovers route files under a project root.
type Scanner struct {
	rootDir   string
	routesDir string
}

// NewScanner creates a scanner. routesDir is relative to rootDir.
func NewScanner(rootDir, routesDir string) *Scanner {
	if routesDir == "" {
		routesDir = DefaultRoutesDir
	}
	return &Scanner{rootDir: rootDir, routesDir: filepath.ToSlash(filepath.Clean(routesDir))}
}

// RoutesDir returns the project-relative routes directory.
func (s *Scanner) RoutesDir() string {
	return s.routesDir
}

// Scan discovers route files and builds the tree, binding modules from
// reg when it is non-nil.
func (s *Scanner) Scan(reg *Registry) (*Tree, error) {
	files, err := s.Files()
	if err != nil {
		return nil, err
	}
	return Build(files, BuildOptions{RoutesDir: s.routesDir, Registry: reg})
}

// Files returns every route file with its statically read exports. A file
// that fails to parse is a fatal error naming the file.
func (s *Scanner) Files() ([]File, error) {
	var paths []string

	layout := filepath.Join(s.rootDir, filepath.FromSlash(LayoutID(s.routesDir)))
	if _, err := os.Stat(layout); err == nil {
		paths = append(paths, layout)
	}

	routesRoot := filepath.Join(s.rootDir, filepath.FromSlash(s.routesDir))
	err := filepath.WalkDir(routesRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == routesRoot && stderrors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			if path != routesRoot && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(s.rootDir, path)
		if err != nil {
			return err
		}
		if IsRouteFile(s.routesDir, filepath.ToSlash(rel)) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", routesRoot, err)
	}
	sort.Strings(paths)

	var files []File
	var verrs []ValidationError
	for _, path := range paths {
		rel, _ := filepath.Rel(s.rootDir, path)
		id := filepath.ToSlash(rel)

		pkg, exports, dups, err := ScanFile(path)
		if err != nil {
			return nil, err
		}
		for role, names := range dups {
			verrs = append(verrs, ValidationError{
				Type:    ErrorAmbiguousExport,
				Message: fmt.Sprintf("Ambiguous %s exports in %s", role, id),
				Path:    id,
				Files:   []string{id},
				Details: fmt.Sprintf("Exported: %s", strings.Join(names, ", ")),
			})
		}
		files = append(files, File{ID: id, Path: path, Package: pkg, Exports: exports})
	}
	if err := newMultiError(verrs); err != nil {
		return nil, err
	}
	return files, nil
}

// ScanFile parses a route file and classifies its exported bindings. dups
// lists every role bound by more than one identifier.
func ScanFile(path string) (pkg string, exports Exports, dups map[Role][]string, err error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
	if err != nil {
		return "", nil, nil, ParseError(path, err)
	}

	seen := make(map[Role][]string)
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv != nil || !d.Name.IsExported() {
				continue
			}
			if role, ok := RoleOf(d.Name.Name); ok && role != RoleHandle {
				seen[role] = append(seen[role], d.Name.Name)
			}
		case *ast.GenDecl:
			if d.Tok != token.VAR {
				continue
			}
			for _, spec := range d.Specs {
				vs, ok := spec.(*ast.ValueSpec)
				if !ok {
					continue
				}
				for _, ident := range vs.Names {
					if !ident.IsExported() {
						continue
					}
					if role, ok := RoleOf(ident.Name); ok {
						seen[role] = append(seen[role], ident.Name)
					}
				}
			}
		}
	}

	exports = make(Exports, len(seen))
	for role, names := range seen {
		exports[role] = names[0]
		if len(names) > 1 {
			if dups == nil {
				dups = make(map[Role][]string)
			}
			dups[role] = names
		}
	}
	return f.Name.Name, exports, dups, nil
}

// ParseError converts a go/parser error into a coded error pointing at the
// first reported position.
func ParseError(path string, err error) error {
	var list goscanner.ErrorList
	if stderrors.As(err, &list) && len(list) > 0 {
		pos := list[0].Pos
		return errors.New("R110").
			WithLocation(path, pos.Line, pos.Column).
			WithDetail(list[0].Msg).
			Wrap(err)
	}
	return errors.New("R110").WithDetail(path).Wrap(err)
}
