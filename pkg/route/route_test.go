package route

import (
	"context"
	stderrors "errors"
	"os"
	"go/build"
	"go/token"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	g "maragu.dev/gomponents"

	"github.com/remastered-go/remastered/internal/errors"
)

func TestConvertSegment(t *testing.T) {
	tests := []struct {
		name   string
		isFile bool
		want   string
	}{
		{"index", true, ""},
		{"index", false, "index"},
		{"users", true, "users"},
		{"id_", true, ":id"},
		{"org_", false, ":org"},
		{"path__", true, "*path"},
		{"rest__", false, "*rest"},
		{"about-us", true, "about-us"},
		{"v2", true, "v2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvertSegment(tt.name, tt.isFile)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertSegment_Rejects(t *testing.T) {
	unbuildable := []struct {
		name   string
		isFile bool
	}{
		{"@slug", true},
		{"[id]", true},
		{"[...path]", true},
		{"$", true},
		{"_id_", true},
		{"_id", true},
		{"page_js", true},
		{"users_test", true},
		{"about-us", false},
		{"", true},
	}
	for _, tt := range unbuildable {
		_, err := ConvertSegment(tt.name, tt.isFile)
		assert.ErrorIs(t, err, ErrUnbuildableName, tt.name)
	}

	for _, mixed := range []string{"post-id_", "1id_"} {
		_, err := ConvertSegment(mixed, true)
		require.Error(t, err, mixed)
		assert.NotErrorIs(t, err, ErrUnbuildableName, mixed)
	}
}

// Every name the convention accepts must be compiled into its package by
// the go tool, not rejected or skipped.
func TestAcceptedNamesBuild(t *testing.T) {
	names := []string{"index", "users", "about-us", "v2", "id_", "slug_", "path__", "linux_", "js__", "test_"}

	dir := t.TempDir()
	for _, name := range names {
		_, err := ConvertSegment(name, true)
		require.NoError(t, err, name)
		writeFile(t, dir, name+".go", "package routes\n")
	}

	pkg, err := build.ImportDir(dir, 0)
	require.NoError(t, err)
	var want []string
	for _, name := range names {
		want = append(want, name+".go")
	}
	assert.ElementsMatch(t, want, pkg.GoFiles)
	assert.Empty(t, pkg.IgnoredGoFiles)
	assert.Empty(t, pkg.InvalidGoFiles)

	for _, name := range []string{"org_", "rest__", "users"} {
		_, err := ConvertSegment(name, false)
		require.NoError(t, err, name)
		assert.True(t, token.IsIdentifier(name), "%s is a package name", name)
	}
}

func TestDeriveSegments(t *testing.T) {
	segs, err := DeriveSegments("users/slug_.go")
	require.NoError(t, err)
	assert.Equal(t, []string{"users", ":slug"}, segs)

	segs, err = DeriveSegments("org_/users/index.go")
	require.NoError(t, err)
	assert.Equal(t, []string{":org", "users", ""}, segs)

	segs, err = DeriveSegments("index.go")
	require.NoError(t, err)
	assert.Equal(t, []string{""}, segs)
}

func TestIsRouteFile(t *testing.T) {
	assert.True(t, IsRouteFile("app/routes", "app/routes/index.go"))
	assert.True(t, IsRouteFile("app/routes", "app/routes/users/slug_.go"))
	assert.True(t, IsRouteFile("app/routes", "app/layout.go"))
	assert.False(t, IsRouteFile("app/routes", "app/routes/index_test.go"))
	assert.False(t, IsRouteFile("app/routes", "app/routes/routes_gen.go"))
	assert.False(t, IsRouteFile("app/routes", "app/database/db.go"))
	assert.False(t, IsRouteFile("app/routes", "app/routes/style.css"))
}

func TestRoleOf(t *testing.T) {
	tests := map[string]Role{
		"Loader":          RoleLoader,
		"UsersLoader":     RoleLoader,
		"IndexAction":     RoleAction,
		"NoscriptHeaders": RoleHeaders,
		"Meta":            RoleMeta,
		"NoscriptHandle":  RoleHandle,
		"IndexPage":       RolePage,
		"Layout":          RolePage,
		"Component":       RolePage,
	}
	for name, want := range tests {
		got, ok := RoleOf(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	_, ok := RoleOf("Helper")
	assert.False(t, ok)
	_, ok = RoleOf("indexLoader")
	assert.False(t, ok)
}

func files(ids ...string) []File {
	out := make([]File, len(ids))
	for i, id := range ids {
		out[i] = File{ID: id, Exports: Exports{RolePage: "Page"}}
	}
	return out
}

func TestBuildTree(t *testing.T) {
	tree, err := Build(files(
		"app/layout.go",
		"app/routes/users/slug_.go",
		"app/routes/users.go",
		"app/routes/index.go",
		"app/routes/docs/path__.go",
		"app/routes/users/index.go",
		"app/routes/users/new.go",
		"app/routes/noscript.go",
	), BuildOptions{})
	require.NoError(t, err)

	root := tree.Root
	assert.Equal(t, "/", root.Segment)
	assert.Equal(t, "app/layout.go", root.ID)

	var segs []string
	for _, c := range root.Children {
		segs = append(segs, c.Segment)
	}
	assert.Equal(t, []string{"", "docs", "noscript", "users"}, segs)

	docs := root.Children[1]
	assert.Empty(t, docs.ID, "docs is layout-only")
	require.Len(t, docs.Children, 1)
	assert.Equal(t, "*path", docs.Children[0].Segment)

	users := tree.Find("app/routes/users.go")
	require.NotNil(t, users)
	segs = nil
	for _, c := range users.Children {
		segs = append(segs, c.Segment)
	}
	assert.Equal(t, []string{"", "new", ":slug"}, segs)
}

func TestBuildIsDeterministic(t *testing.T) {
	in := files("app/routes/b.go", "app/routes/a/id_.go", "app/routes/index.go", "app/routes/a.go")
	reversed := []File{in[3], in[2], in[1], in[0]}

	t1, err := Build(in, BuildOptions{})
	require.NoError(t, err)
	t2, err := Build(reversed, BuildOptions{})
	require.NoError(t, err)
	assert.True(t, t1.Equal(t2))
	assert.Equal(t, t1.String(), t2.String())
}

func TestLeavesAreUnique(t *testing.T) {
	tree, err := Build(files(
		"app/routes/index.go",
		"app/routes/users.go",
		"app/routes/users/index.go",
		"app/routes/users/slug_.go",
		"app/routes/docs/rest__.go",
	), BuildOptions{})
	require.NoError(t, err)

	leaves := tree.Leaves()
	seen := map[string]bool{}
	for _, l := range leaves {
		assert.False(t, seen[l], "duplicate leaf %s", l)
		seen[l] = true
	}
	assert.ElementsMatch(t, []string{"/", "/users/", "/users/:slug", "/docs/*rest"}, leaves)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  ValidationErrorType
	}{
		{"duplicate", []string{"app/routes/id_.go", "app/routes/id_.go"}, ErrorDuplicateRoute},
		{"ambiguous dynamic", []string{"app/routes/id_.go", "app/routes/slug_.go"}, ErrorAmbiguousDynamic},
		{"param and catch-all", []string{"app/routes/id_.go", "app/routes/rest__.go"}, ErrorAmbiguousDynamic},
		{"mixed segment", []string{"app/routes/post-id_.go"}, ErrorMixedSegment},
		{"catch-all not last", []string{"app/routes/rest__/edit.go"}, ErrorCatchAllNotLast},
		{"unbuildable file", []string{"app/routes/users/@slug.go"}, ErrorUnbuildableName},
		{"skipped file", []string{"app/routes/_id_.go"}, ErrorUnbuildableName},
		{"unbuildable directory", []string{"app/routes/[org]/index.go"}, ErrorUnbuildableName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(files(tt.files...), BuildOptions{})
			var multi *MultiValidationError
			require.True(t, stderrors.As(err, &multi), "got %v", err)
			assert.True(t, multi.Has(tt.want), "got %v", err)
			assert.NotEmpty(t, multi.Errors[0].Files)
		})
	}
}

func TestStaticSiblingsOfDynamicAllowed(t *testing.T) {
	_, err := Build(files("app/routes/users/new.go", "app/routes/users/slug_.go"), BuildOptions{})
	assert.NoError(t, err)
}

func TestRegistryTree(t *testing.T) {
	page := func(c *Context) g.Node { return g.Text("x") }
	loader := func(ctx context.Context, args DataArgs) (any, error) { return "data", nil }

	reg := NewRegistry("app/routes").
		Register("app/layout.go", Module{Page: page}).
		Register("app/routes/index.go", Module{Page: page, Loader: loader}).
		Register("app/routes/noscript.go", Module{Page: page, Handle: Handle{NoScripts: true}})

	tree, err := reg.Tree()
	require.NoError(t, err)

	n := tree.Find("app/routes/index.go")
	require.NotNil(t, n)
	require.NotNil(t, n.Module)
	assert.True(t, n.Exports.Has(RoleLoader))
	assert.True(t, tree.Find("app/routes/noscript.go").Exports.Has(RoleHandle))
	assert.Equal(t, "app/layout.go", tree.Root.ID)
}

func writeFile(t *testing.T, root, rel, src string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
}

func TestScanner(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app/layout.go", "package app\n\nfunc Layout() {}\n")
	writeFile(t, root, "app/routes/noscript.go", `package routes

import "github.com/remastered-go/remastered/pkg/route"

var NoscriptHandle = route.Handle{NoScripts: true}

func NoscriptLoader() {}
func NoscriptHeaders() {}
func NoscriptPage() {}
func helper() {}
`)
	writeFile(t, root, "app/routes/noscript_test.go", "package routes\n")
	writeFile(t, root, "app/routes/routes_gen.go", "package routes\n")
	writeFile(t, root, "app/routes/users/index.go", "package users\n\nfunc IndexAction() {}\nfunc IndexPage() {}\n")

	s := NewScanner(root, "app/routes")
	fs, err := s.Files()
	require.NoError(t, err)
	require.Len(t, fs, 3)

	assert.Equal(t, "app/layout.go", fs[0].ID)
	assert.Equal(t, "app/routes/noscript.go", fs[1].ID)
	assert.Equal(t, "routes", fs[1].Package)
	assert.Equal(t, "NoscriptLoader", fs[1].Exports[RoleLoader])
	assert.Equal(t, "NoscriptHandle", fs[1].Exports[RoleHandle])
	assert.Equal(t, "NoscriptPage", fs[1].Exports[RolePage])
	assert.Equal(t, "users", fs[2].Package)

	tree, err := s.Scan(nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "app", "layout.go"), tree.Root.File)
}

func TestScannerAmbiguousExport(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app/routes/users.go", "package routes\n\nfunc Loader() {}\nfunc UsersLoader() {}\n")

	_, err := NewScanner(root, "").Files()
	var multi *MultiValidationError
	require.True(t, stderrors.As(err, &multi))
	assert.True(t, multi.Has(ErrorAmbiguousExport))
}

func TestScannerUnbuildableName(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app/routes/users/@slug.go", "package users\n\nfunc Page() {}\n")
	writeFile(t, root, "app/routes/_draft.go", "package routes\n\nfunc Page() {}\n")

	_, err := NewScanner(root, "").Scan(nil)
	var multi *MultiValidationError
	require.True(t, stderrors.As(err, &multi), "got %v", err)
	require.Len(t, multi.Errors, 2)
	for _, e := range multi.Errors {
		assert.Equal(t, ErrorUnbuildableName, e.Type)
		assert.Equal(t, "R104", e.Type.Code())
	}
}

func TestScannerParseError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app/routes/broken.go", "package routes\n\nfunc BrokenPage( {\n")

	_, err := NewScanner(root, "").Files()
	var coded *errors.Error
	require.True(t, stderrors.As(err, &coded))
	assert.Equal(t, "R110", coded.Code)
	require.NotNil(t, coded.Location)
	assert.Contains(t, coded.Location.File, "broken.go")
}

func TestScannerMissingRoutesDir(t *testing.T) {
	tree, err := NewScanner(t.TempDir(), "").Scan(nil)
	require.NoError(t, err)
	assert.Empty(t, tree.Root.Children)
}

func TestContextOutlet(t *testing.T) {
	var c *Context
	outlet := c.Outlet()
	require.NotNil(t, outlet)
	var b strings.Builder
	require.NoError(t, outlet.Render(&b))
	assert.Empty(t, b.String())

	c = NewContext(nil, Params{"slug": "ada"}, "data", nil, g.Text("child"))
	assert.Equal(t, "ada", c.Param("slug"))
	assert.Equal(t, "data", LoaderData[string](c))
	assert.Equal(t, 0, LoaderData[int](c))
}
