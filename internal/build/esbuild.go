package build

import (
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/remastered-go/remastered/internal/errors"
	"github.com/remastered-go/remastered/pkg/manifest"
)

// metafile is the subset of the esbuild metafile the client manifest needs.
type metafile struct {
	Outputs map[string]metafileOutput `json:"outputs"`
}

type metafileOutput struct {
	Bytes      int              `json:"bytes"`
	Imports    []metafileImport `json:"imports"`
	EntryPoint string           `json:"entryPoint,omitempty"`
	CSSBundle  string           `json:"cssBundle,omitempty"`
}

type metafileImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
}

// bundleClient bundles the bootstrap into clientDir/assets and returns the
// client manifest built from the esbuild metafile.
func (b *Builder) bundleClient(entry, clientDir string) (manifest.Client, error) {
	sourcemap := api.SourceMapNone
	if b.options.SourceMaps {
		sourcemap = api.SourceMapLinked
	}

	result := api.Build(api.BuildOptions{
		EntryPoints:       []string{entry},
		Bundle:            true,
		Write:             true,
		Metafile:          true,
		Format:            api.FormatESModule,
		Platform:          api.PlatformBrowser,
		Target:            api.ES2020,
		Splitting:         true,
		AbsWorkingDir:     clientDir,
		Outdir:            filepath.Join(clientDir, "assets"),
		EntryNames:        "entry-[hash]",
		ChunkNames:        "chunk-[hash]",
		AssetNames:        "[name]-[hash]",
		MinifySyntax:      b.options.Minify,
		MinifyWhitespace:  b.options.Minify,
		MinifyIdentifiers: b.options.Minify,
		Sourcemap:         sourcemap,
		LogLevel:          api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return nil, bundleError(result.Errors)
	}
	for _, w := range result.Warnings {
		b.logger.Warn("client bundle", "warning", w.Text)
	}

	rel, err := filepath.Rel(b.config.Dir(), entry)
	if err != nil {
		rel = entry
	}
	return clientManifest(result.Metafile, filepath.ToSlash(rel))
}

// clientManifest converts an esbuild metafile into the client manifest.
// Output paths are relative to the client output dir; entry chunks are
// keyed by src.
func clientManifest(raw, src string) (manifest.Client, error) {
	var meta metafile
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, errors.New("R121").WithDetail("invalid metafile").Wrap(err)
	}

	out := make(manifest.Client)
	keys := make([]string, 0, len(meta.Outputs))
	for k := range meta.Outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, file := range keys {
		o := meta.Outputs[file]
		if strings.HasSuffix(file, ".map") || strings.HasSuffix(file, ".css") {
			continue
		}
		chunk := manifest.Chunk{File: path.Clean(file)}
		for _, imp := range o.Imports {
			switch {
			case imp.External:
			case isAsset(imp.Path):
				chunk.Assets = append(chunk.Assets, path.Clean(imp.Path))
			case imp.Kind == "import-statement":
				chunk.Imports = append(chunk.Imports, path.Clean(imp.Path))
			}
		}
		if o.CSSBundle != "" {
			chunk.CSS = append(chunk.CSS, path.Clean(o.CSSBundle))
		}
		key := file
		if o.EntryPoint != "" {
			chunk.IsEntry = true
			chunk.Src = src
			key = src
		}
		out[key] = chunk
	}
	return out, nil
}

func isAsset(file string) bool {
	switch path.Ext(file) {
	case ".js", ".css", ".map":
		return false
	}
	return true
}

func bundleError(msgs []api.Message) error {
	first := msgs[0]
	e := errors.New("R121").WithDetail(first.Text)
	if first.Location != nil {
		e = e.WithLocation(first.Location.File, first.Location.Line, first.Location.Column+1)
	}
	if len(msgs) > 1 {
		e = e.WithSuggestion(fmt.Sprintf("%d more bundling errors", len(msgs)-1))
	}
	return e
}
