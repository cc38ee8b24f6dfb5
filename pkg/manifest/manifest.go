// Package manifest reads and writes the render manifests produced by a
// production build.
//
// The SSR manifest maps route module ids to the asset URLs a page using the
// module should preload. The client manifest describes the bundled client
// chunks, keyed by source entry.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const (
	// ClientFile is the client manifest path relative to the output dir.
	ClientFile = "client/manifest.json"

	// SSRFile is the SSR manifest path relative to the output dir.
	SSRFile = "client/ssr-manifest.json"
)

// SSR maps module ids to asset URLs.
type SSR map[string][]string

// Chunk is one bundled client output.
type Chunk struct {
	File    string   `json:"file"`
	Src     string   `json:"src,omitempty"`
	IsEntry bool     `json:"isEntry,omitempty"`
	Imports []string `json:"imports,omitempty"`
	CSS     []string `json:"css,omitempty"`
	Assets  []string `json:"assets,omitempty"`
}

// Client maps source entries to their bundled chunks.
type Client map[string]Chunk

// Entry returns the client entry chunk. With several entries the one with
// the smallest key wins.
func (c Client) Entry() (Chunk, bool) {
	keys := make([]string, 0, len(c))
	for k, chunk := range c {
		if chunk.IsEntry {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return Chunk{}, false
	}
	sort.Strings(keys)
	return c[keys[0]], true
}

// Preloads returns the assets of the given modules in order, without
// duplicates.
func (s SSR) Preloads(ids ...string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range ids {
		for _, asset := range s[id] {
			if !seen[asset] {
				seen[asset] = true
				out = append(out, asset)
			}
		}
	}
	return out
}

// LoadSSR reads an SSR manifest.
func LoadSSR(path string) (SSR, error) {
	var m SSR
	if err := load(path, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadClient reads a client manifest.
func LoadClient(path string) (Client, error) {
	var m Client
	if err := load(path, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func load(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("manifest: decode %s: %w", path, err)
	}
	return nil
}

// Write encodes a manifest as indented JSON, creating parent directories.
func Write(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: encode %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
