package main

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remastered-go/remastered/internal/errors"
	"github.com/remastered-go/remastered/pkg/route"
)

func TestRouteSource(t *testing.T) {
	segs, err := routeSegments("users/id_")
	require.NoError(t, err)

	code, err := routeSource("users", "users/id_", segs)
	require.NoError(t, err)
	src := string(code)

	assert.True(t, strings.HasPrefix(src, "package users\n"))
	assert.Contains(t, src, "// Loader runs on the server before /users/:id renders.")
	assert.Contains(t, src, `"id": args.Params.Get("id"),`)
	assert.Contains(t, src, "func Page(c *route.Context) g.Node {")
}

func TestRouteSource_Index(t *testing.T) {
	segs, err := route.DeriveSegments("index.go")
	require.NoError(t, err)

	code, err := routeSource("routes", "index", segs)
	require.NoError(t, err)
	assert.Contains(t, string(code), "before / renders")
	assert.Contains(t, string(code), "return nil, nil")
}

func TestRouteSource_CatchAll(t *testing.T) {
	segs, err := routeSegments("org_/docs/path__")
	require.NoError(t, err)
	assert.Equal(t, []string{":org", "docs", "*path"}, segs)

	code, err := routeSource("docs", "org_/docs/path__", segs)
	require.NoError(t, err)
	assert.Contains(t, string(code), "before /:org/docs/*path renders")
	assert.Contains(t, string(code), `"path": args.Params.Get("path"),`)
}

func TestRouteSegmentsErrors(t *testing.T) {
	tests := map[string]string{
		"users/@id":      "R104",
		"[slug]/edit":    "R104",
		"users/_id_":     "R104",
		"about-us/team":  "R104",
		"users/post-id_": "R102",
	}
	for p, code := range tests {
		_, err := routeSegments(p)
		var coded *errors.Error
		require.True(t, stderrors.As(err, &coded), p)
		assert.Equal(t, code, coded.Code, p)
	}
}

func TestVersionShort(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--short", "--env-file", ""})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, version+"\n", out.String())
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("REMASTERED_TEST_VALUE=from-file\n"), 0o644))
	t.Setenv("REMASTERED_TEST_VALUE", "")
	os.Unsetenv("REMASTERED_TEST_VALUE")

	require.NoError(t, loadEnv(file))
	assert.Equal(t, "from-file", os.Getenv("REMASTERED_TEST_VALUE"))

	require.NoError(t, loadEnv(filepath.Join(dir, "missing.env")))
	require.NoError(t, loadEnv(""))
}

func TestPrintStep(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	printStep("hashing 100% of assets")
	os.Stdout = stdout
	require.NoError(t, w.Close())

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "  hashing 100% of assets\n", string(out))
}
