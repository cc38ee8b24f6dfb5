package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remastered-go/remastered/example/app/database"
	"github.com/remastered-go/remastered/example/app/routes"
	"github.com/remastered-go/remastered/internal/build/codegen"
	"github.com/remastered-go/remastered/internal/config"
	"github.com/remastered-go/remastered/pkg/adapter"
	"github.com/remastered-go/remastered/pkg/adapter/vercel"
	"github.com/remastered-go/remastered/pkg/assets"
	"github.com/remastered-go/remastered/pkg/export"
	"github.com/remastered-go/remastered/pkg/fetch"
	"github.com/remastered-go/remastered/pkg/manifest"
	"github.com/remastered-go/remastered/pkg/route"
)

const exampleDir = ".."

// The project root is write-once per process; production tests read the
// manifests from this one.
var projectRoot string

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "remastered-example-*")
	if err != nil {
		panic(err)
	}
	projectRoot = dir
	dist := filepath.Join(dir, config.DefaultOutput)
	if err := manifest.Write(filepath.Join(dist, manifest.SSRFile), manifest.SSR{
		"app/routes/index.go": {"/assets/app.0123abcd.wasm"},
	}); err != nil {
		panic(err)
	}
	if err := manifest.Write(filepath.Join(dist, manifest.ClientFile), manifest.Client{
		"app/entry.client.js": {File: "assets/entry-ABC.js", IsEntry: true},
	}); err != nil {
		panic(err)
	}
	info := []byte(`{"buildId":"test","assets":{"logo.svg":"/assets/logo.1a2b3c4d.svg"}}`)
	if err := os.WriteFile(filepath.Join(dist, "build.json"), info, 0o644); err != nil {
		panic(err)
	}
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func production(t *testing.T) *adapter.Pipeline {
	t.Helper()
	e, err := Entry(nil)
	require.NoError(t, err)
	p, err := adapter.New(context.Background(), adapter.Options{RootDir: projectRoot, Entry: e, DisableExports: true})
	require.NoError(t, err)
	return p
}

func serve(p *adapter.Pipeline, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, req)
	return rec
}

func useMemory(t *testing.T) *database.MemoryStore {
	t.Helper()
	prev := database.Users()
	s := database.NewMemoryStore()
	database.Use(s)
	t.Cleanup(func() { database.Use(prev) })
	return s
}

func TestRegistryUpToDate(t *testing.T) {
	files, err := route.NewScanner(exampleDir, route.DefaultRoutesDir).Files()
	require.NoError(t, err)

	want, err := codegen.Generate(codegen.Options{
		ModulePath: "github.com/remastered-go/remastered/example",
		Files:      files,
	})
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(exampleDir, "app", "routes", route.GeneratedFile))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got), "run remastered gen routes in example/")

	tree, err := routes.Registry.Tree()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/", "/docs/:path", "/noscript", "/users/", "/users/:slug"}, tree.Leaves())
}

func TestCreateUser(t *testing.T) {
	store := useMemory(t)
	p := production(t)

	rec := serve(p, http.MethodPost, "/users", "name=Ada")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/users", rec.Header().Get("Location"))

	u, ok, err := store.Get(context.Background(), "Ada")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, database.User{Name: "Ada", Slug: "Ada"}, u)

	rec = serve(p, http.MethodPost, "/users", "name=Grace+Hopper%21")
	assert.Equal(t, http.StatusFound, rec.Code)
	_, ok, err = store.Get(context.Background(), "Grace-Hopper-")
	require.NoError(t, err)
	assert.True(t, ok)

	rec = serve(p, http.MethodGet, "/users", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<a href="/users/Ada">Ada</a>`)
	assert.Contains(t, rec.Body.String(), `<form method="post">`)
	assert.Contains(t, rec.Body.String(), "<title>Users</title>")
}

func TestCreateUser_MissingName(t *testing.T) {
	useMemory(t)
	rec := serve(production(t), http.MethodPost, "/users", "other=1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserPage(t *testing.T) {
	store := useMemory(t)
	p := production(t)

	rec := serve(p, http.MethodGet, "/users/Ada", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, store.Set(context.Background(), database.User{Name: "Ada Lovelace", Slug: "Ada-Lovelace"}))
	rec = serve(p, http.MethodGet, "/users/Ada-Lovelace", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h2>Ada Lovelace</h2>")
	assert.Contains(t, rec.Body.String(), "<title>Ada Lovelace</title>")
}

func TestNoScript(t *testing.T) {
	p := production(t)

	first := serve(p, http.MethodGet, "/noscript", "")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "oh yeaaaaaah baby", first.Header().Get("x-remastered-app"))
	assert.Contains(t, first.Body.String(), "Page rendered at ")
	assert.NotContains(t, first.Body.String(), "<script")

	time.Sleep(1100 * time.Millisecond)
	second := serve(p, http.MethodGet, "/noscript", "")
	assert.NotEqual(t, renderedAt(first.Body.String()), renderedAt(second.Body.String()))
}

func renderedAt(body string) string {
	_, rest, _ := strings.Cut(body, "Page rendered at ")
	at, _, _ := strings.Cut(rest, "<")
	return at
}

func TestIndexAssets(t *testing.T) {
	rec := serve(production(t), http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<script src="/assets/entry-ABC.js" type="module"></script>`)
	assert.Contains(t, body, `href="/assets/app.0123abcd.wasm"`)
	assert.Contains(t, body, "<title>Remastered</title>")
}

func TestLogoAsset(t *testing.T) {
	t.Cleanup(func() { assets.Use(assets.NewPassthroughResolver("")) })

	body := serve(production(t), http.MethodGet, "/", "").Body.String()
	assert.Contains(t, body, `src="/logo.svg"`)

	require.NoError(t, useAssets(filepath.Join(projectRoot, config.DefaultOutput)))
	body = serve(production(t), http.MethodGet, "/", "").Body.String()
	assert.Contains(t, body, `src="/assets/logo.1a2b3c4d.svg"`)

	require.NoError(t, useAssets(t.TempDir()))
	assert.Equal(t, "/logo.svg", assets.URL("logo.svg"))
}

func TestDocs(t *testing.T) {
	p := production(t)

	rec := serve(p, http.MethodGet, "/docs/routing", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>Remastered: Routing</title>")
	assert.Contains(t, rec.Header().Get("Cache-Control"), "s-max-age=3600")

	rec = serve(p, http.MethodGet, "/docs/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductionExportDir(t *testing.T) {
	t.Cleanup(func() { assets.Use(assets.NewPassthroughResolver("")) })

	cfg, err := config.Load(projectRoot)
	require.NoError(t, err)
	cfg.Mode = config.ModeProduction
	cfg.Export.Dir = filepath.Join("exports", "site")

	rec, err := export.FromResponse(fetch.Text(http.StatusOK, "stored routing page"))
	require.NoError(t, err)
	data, err := export.Encode(rec)
	require.NoError(t, err)
	key := export.Key(http.MethodGet, &url.URL{Path: "/docs/routing"})
	require.NoError(t, export.NewFileStore(cfg.ExportPath()).Put(context.Background(), key, data))

	opts, err := Options(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.False(t, opts.DisableExports)
	p, err := adapter.New(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, "stored routing page", serve(p, http.MethodGet, "/docs/routing", "").Body.String())

	cfg.Export.Enabled = false
	opts, err = Options(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.True(t, opts.DisableExports)
	p, err = adapter.New(context.Background(), opts)
	require.NoError(t, err)
	assert.Contains(t, serve(p, http.MethodGet, "/docs/routing", "").Body.String(), "<title>Remastered: Routing</title>")
}

func TestServerlessFailsAtConstruction(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	prev := database.Users()
	t.Cleanup(func() { database.Use(prev) })

	opts, err := Serverless(context.Background(), projectRoot)
	require.NoError(t, err)
	require.NotNil(t, opts.Entry)

	fn, err := vercel.NewFunction(context.Background(), opts)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	fn(rec, httptest.NewRequest(http.MethodGet, "/docs/routing", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	opts, err = Serverless(context.Background(), t.TempDir())
	require.NoError(t, err)
	_, err = vercel.NewFunction(context.Background(), opts)
	assert.Error(t, err)
}

func TestDevelopment(t *testing.T) {
	cfg, err := config.Load(exampleDir)
	require.NoError(t, err)
	require.False(t, cfg.IsProduction())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts, err := Options(ctx, cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, opts.Dev)
	require.Nil(t, opts.Entry)

	opts.RootDir = projectRoot
	p, err := adapter.New(ctx, opts)
	require.NoError(t, err)

	rec := serve(p, http.MethodGet, "/docs/routing", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Cache-Control"))
}
