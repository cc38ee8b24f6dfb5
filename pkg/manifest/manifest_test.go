package manifest

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripFiles(t *testing.T) {
	dir := t.TempDir()

	client := Client{
		"app/entry.client.js": {File: "assets/entry.client.abc123.js", IsEntry: true, CSS: []string{"assets/app.css"}},
		"app/wasm":            {File: "assets/app.def456.wasm"},
	}
	ssr := SSR{"app/routes/index.go": {"/assets/app.def456.wasm"}}

	require.NoError(t, Write(filepath.Join(dir, ClientFile), client))
	require.NoError(t, Write(filepath.Join(dir, SSRFile), ssr))

	gotClient, err := LoadClient(filepath.Join(dir, ClientFile))
	require.NoError(t, err)
	entry, ok := gotClient.Entry()
	require.True(t, ok)
	assert.Equal(t, "assets/entry.client.abc123.js", entry.File)

	gotSSR, err := LoadSSR(filepath.Join(dir, SSRFile))
	require.NoError(t, err)
	assert.Equal(t, ssr, gotSSR)
}

func TestLoadErrors(t *testing.T) {
	_, err := LoadSSR(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = LoadClient(bad)
	assert.Error(t, err)
}

func TestPreloads(t *testing.T) {
	ssr := SSR{
		"a": {"/assets/shared.js", "/assets/a.css"},
		"b": {"/assets/shared.js", "/assets/b.css"},
	}
	assert.Equal(t, []string{"/assets/shared.js", "/assets/a.css", "/assets/b.css"}, ssr.Preloads("a", "b", "missing"))
}

func TestEntryMissing(t *testing.T) {
	_, ok := Client{"x": {File: "x.js"}}.Entry()
	assert.False(t, ok)
}
