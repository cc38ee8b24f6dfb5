package dispatch

import (
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remastered-go/remastered/internal/errors"
	"github.com/remastered-go/remastered/pkg/entry"
	"github.com/remastered-go/remastered/pkg/fetch"
	"github.com/remastered-go/remastered/pkg/manifest"
	"github.com/remastered-go/remastered/pkg/route"
)

type stubDev struct {
	loads   atomic.Int32
	render  entry.RenderFunc
	fix     func(error) error
	loadErr error
}

func (d *stubDev) LoadServerEntry(context.Context) (entry.Entry, error) {
	d.loads.Add(1)
	if d.loadErr != nil {
		return nil, d.loadErr
	}
	return d.render, nil
}

func (d *stubDev) LoadModule(context.Context, string) (*route.Module, error) { return nil, nil }
func (d *stubDev) Routes(context.Context) (*route.Tree, error)              { return nil, nil }

func (d *stubDev) FixStacktrace(err error) error {
	if d.fix != nil {
		return d.fix(err)
	}
	return err
}

func newRequest(t *testing.T, path string) *fetch.Request {
	t.Helper()
	req, err := fetch.NewRequest(http.MethodGet, "http://localhost"+path, nil)
	require.NoError(t, err)
	return req
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestDevelopmentRefetchesEntry(t *testing.T) {
	dev := &stubDev{render: func(_ context.Context, args entry.Args) (*fetch.Response, error) {
		assert.NotNil(t, args.Dev)
		assert.Nil(t, args.Manifest)
		return fetch.Text(http.StatusOK, "hi "+args.Request.URL.Path), nil
	}}
	d := New(Development(dev), Options{Logger: quietLogger()})
	assert.Equal(t, ModeDevelopment, d.Mode())

	for i := 0; i < 3; i++ {
		resp := d.Render(context.Background(), newRequest(t, "/x"))
		assert.Equal(t, "hi /x", string(resp.Body))
	}
	assert.EqualValues(t, 3, dev.loads.Load())
}

func TestRenderErrorIs500(t *testing.T) {
	boom := stderrors.New("boom")
	var fixed atomic.Bool
	dev := &stubDev{
		render: func(context.Context, entry.Args) (*fetch.Response, error) { return nil, boom },
		fix: func(err error) error {
			fixed.Store(true)
			return err
		},
	}
	var logs bytes.Buffer
	d := New(Development(dev), Options{Logger: slog.New(slog.NewTextHandler(&logs, nil))})

	resp := d.Render(context.Background(), newRequest(t, "/"))
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Equal(t, "text/plain", resp.Header.Get("content-type"))
	assert.Equal(t, "boom", string(resp.Body))
	assert.True(t, fixed.Load())
	assert.Contains(t, logs.String(), "render failed")

	req := newRequest(t, "/")
	req.Header.Set("X-Debug", "1")
	resp = d.Render(context.Background(), req)
	assert.Equal(t, "*errors.errorString: boom", string(resp.Body))
}

func TestRenderPanicIs500(t *testing.T) {
	dev := &stubDev{
		render: func(context.Context, entry.Args) (*fetch.Response, error) { panic("kaboom") },
		fix:    func(error) error { panic("fix failed too") },
	}
	d := New(Development(dev), Options{Logger: quietLogger()})

	req := newRequest(t, "/")
	req.Header.Set("x-debug", "")
	resp := d.Render(context.Background(), req)
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Contains(t, string(resp.Body), "panic: kaboom")
	assert.Contains(t, string(resp.Body), "goroutine")
}

func TestLoadEntryErrorIs500(t *testing.T) {
	dev := &stubDev{loadErr: errors.New("R110")}
	d := New(Development(dev), Options{Logger: quietLogger()})

	resp := d.Render(context.Background(), newRequest(t, "/"))
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Equal(t, "R110: Route module could not be parsed", string(resp.Body))
}

func writeArtifacts(t *testing.T, root string) {
	t.Helper()
	out := filepath.Join(root, "dist")
	require.NoError(t, manifest.Write(filepath.Join(out, manifest.SSRFile), manifest.SSR{
		"app/routes/index.go": {"/assets/index.js"},
	}))
	require.NoError(t, manifest.Write(filepath.Join(out, manifest.ClientFile), manifest.Client{
		"client/entry.js": {File: "assets/entry.js", IsEntry: true},
	}))
}

func TestProductionMissingArtifacts(t *testing.T) {
	resetProduction()
	t.Cleanup(resetProduction)

	_, err := Production(context.Background(), ProductionOptions{Root: t.TempDir(), OutputDir: "nope"})
	require.Error(t, err)
	var re *errors.Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "R130", re.Code)
}

func TestProductionLoadsOnce(t *testing.T) {
	resetProduction()
	t.Cleanup(resetProduction)

	root := t.TempDir()
	writeArtifacts(t, root)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dist", "server"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "dist", ServerEntryFile), []byte("plugin"), 0o644))

	var opens atomic.Int32
	opts := ProductionOptions{
		Root: root,
		OpenPlugin: func(path string) (entry.Entry, error) {
			opens.Add(1)
			assert.Equal(t, filepath.Join(root, "dist", ServerEntryFile), path)
			return entry.RenderFunc(func(_ context.Context, args entry.Args) (*fetch.Response, error) {
				assert.Nil(t, args.Dev)
				return fetch.Text(http.StatusOK, args.ClientManifest["client/entry.js"].File), nil
			}), nil
		},
	}

	var wg sync.WaitGroup
	strategies := make([]Strategy, 8)
	for i := range strategies {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := Production(context.Background(), opts)
			assert.NoError(t, err)
			strategies[i] = s
		}()
	}
	wg.Wait()

	first, err := strategies[0].Handlers(context.Background())
	require.NoError(t, err)
	for _, s := range strategies[1:] {
		h, err := s.Handlers(context.Background())
		require.NoError(t, err)
		assert.Same(t, first, h)
	}

	d := New(strategies[0], Options{Logger: quietLogger()})
	assert.Equal(t, ModeProduction, d.Mode())
	resp := d.Render(context.Background(), newRequest(t, "/"))
	assert.Equal(t, "assets/entry.js", string(resp.Body))

	before := opens.Load()
	_, err = Production(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, before, opens.Load())
}

func TestProductionLinkedEntry(t *testing.T) {
	resetProduction()
	t.Cleanup(resetProduction)

	root := t.TempDir()
	writeArtifacts(t, root)

	linked := entry.RenderFunc(func(context.Context, entry.Args) (*fetch.Response, error) {
		return fetch.Text(http.StatusOK, "linked"), nil
	})
	s, err := Production(context.Background(), ProductionOptions{
		Root:  root,
		Entry: linked,
		OpenPlugin: func(string) (entry.Entry, error) {
			t.Fatal("plugin must not be opened for a linked entry")
			return nil, nil
		},
	})
	require.NoError(t, err)

	h, err := s.Handlers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/assets/index.js"}, h.Manifest["app/routes/index.go"])
}

func TestEntryFromSymbol(t *testing.T) {
	var e entry.Entry = entry.RenderFunc(func(context.Context, entry.Args) (*fetch.Response, error) {
		return nil, nil
	})

	got, err := entryFromSymbol(&e)
	require.NoError(t, err)
	assert.NotNil(t, got)

	var empty entry.Entry
	_, err = entryFromSymbol(&empty)
	assert.Error(t, err)

	_, err = entryFromSymbol(42)
	var re *errors.Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "R132", re.Code)
}
