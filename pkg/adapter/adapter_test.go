package adapter

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remastered-go/remastered/internal/config"
	"github.com/remastered-go/remastered/pkg/dispatch"
	"github.com/remastered-go/remastered/pkg/entry"
	"github.com/remastered-go/remastered/pkg/export"
	"github.com/remastered-go/remastered/pkg/fetch"
	"github.com/remastered-go/remastered/pkg/manifest"
	"github.com/remastered-go/remastered/pkg/route"
)

// The project root is write-once per process, so every test shares one.
var projectRoot string

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "remastered-adapter-*")
	if err != nil {
		panic(err)
	}
	projectRoot = dir
	if err := setupProject(dir); err != nil {
		panic(err)
	}
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func setupProject(root string) error {
	dist := filepath.Join(root, "dist")
	if err := manifest.Write(filepath.Join(dist, manifest.SSRFile), manifest.SSR{}); err != nil {
		return err
	}
	if err := manifest.Write(filepath.Join(dist, manifest.ClientFile), manifest.Client{}); err != nil {
		return err
	}
	rec, err := export.FromResponse(fetch.Text(http.StatusOK, "exported intro"))
	if err != nil {
		return err
	}
	data, err := export.Encode(rec)
	if err != nil {
		return err
	}
	return export.NewFileStore(filepath.Join(dist, "exported")).
		Put(context.Background(), "GET/docs/intro/index.json", data)
}

var prodRenders atomic.Int32

var linked = entry.RenderFunc(func(_ context.Context, args entry.Args) (*fetch.Response, error) {
	prodRenders.Add(1)
	body := "rendered " + args.Request.Method + " " + args.Request.URL.Path
	if args.Request.Body != nil {
		b, _ := io.ReadAll(args.Request.Body)
		body += " " + string(b)
	}
	return fetch.Text(http.StatusOK, body), nil
})

type devStub struct{ loads atomic.Int32 }

func (d *devStub) LoadServerEntry(context.Context) (entry.Entry, error) {
	d.loads.Add(1)
	return entry.RenderFunc(func(_ context.Context, args entry.Args) (*fetch.Response, error) {
		return fetch.Text(http.StatusOK, "dev "+args.Request.URL.Path), nil
	}), nil
}
func (d *devStub) LoadModule(context.Context, string) (*route.Module, error) { return nil, nil }
func (d *devStub) Routes(context.Context) (*route.Tree, error)              { return nil, nil }
func (d *devStub) FixStacktrace(err error) error                            { return err }

func get(t *testing.T, path string) *fetch.Request {
	t.Helper()
	req, err := fetch.NewRequest(http.MethodGet, "http://localhost"+path, nil)
	require.NoError(t, err)
	return req
}

func TestProductionPipeline(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := New(context.Background(), Options{RootDir: projectRoot, Entry: linked, Registerer: reg, Tracing: true})
	require.NoError(t, err)
	assert.Equal(t, dispatch.ModeProduction, p.Mode())
	assert.Equal(t, projectRoot, os.Getenv(config.ProjectDirEnv))

	before := prodRenders.Load()
	resp := p.Serve(context.Background(), get(t, "/docs/intro"))
	assert.Equal(t, "exported intro", string(resp.Body))
	assert.Equal(t, "true", resp.Header.Get(export.ServedHeader))
	assert.Equal(t, before, prodRenders.Load())

	req := get(t, "/docs/intro")
	req.Header.Set(export.SkipHeader, "1")
	resp = p.Serve(context.Background(), req)
	assert.Equal(t, "rendered GET /docs/intro", string(resp.Body))
	assert.Equal(t, before+1, prodRenders.Load())

	n, err := testutil.GatherAndCount(reg, "remastered_static_exports_total", "remastered_renders_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Raw bodies reach the entry through ServeHTTP.
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader("name=Ada")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rendered POST /users name=Ada", rec.Body.String())
}

func TestDevelopmentPipelineIgnoresExports(t *testing.T) {
	dev := &devStub{}
	p, err := New(context.Background(), Options{RootDir: projectRoot, Dev: dev})
	require.NoError(t, err)
	assert.Equal(t, dispatch.ModeDevelopment, p.Mode())

	resp := p.Serve(context.Background(), get(t, "/docs/intro"))
	assert.Equal(t, "dev /docs/intro", string(resp.Body))
	assert.Empty(t, resp.Header.Get(export.ServedHeader))
	assert.EqualValues(t, 1, dev.loads.Load())
}

func TestProjectRootIsWriteOnce(t *testing.T) {
	require.NoError(t, config.SetProjectRoot(projectRoot))
	_, err := New(context.Background(), Options{RootDir: t.TempDir(), Dev: &devStub{}})
	assert.ErrorIs(t, err, config.ErrRootAlreadySet)
}

func TestExportStore(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)
	cfg.Export.Dir = "pages"

	store := ExportStore(cfg)
	require.IsType(t, &export.FileStore{}, store)
	require.NoError(t, store.Put(context.Background(), "GET/index.json", []byte("{}")))
	assert.FileExists(t, filepath.Join(dir, "pages", "GET", "index.json"))

	cfg.Export.S3.Bucket = "exports"
	cfg.Export.S3.Region = "us-east-1"
	assert.IsType(t, &export.S3Store{}, ExportStore(cfg))
}
