// Package assets resolves public files to the fingerprinted URLs written
// by `remastered build`.
//
// Build output records every file copied from the public directory in
// dist/build.json:
//
//	"assets": {"logo.svg": "/assets/logo.1a2b3c4d.svg"}
//
// Pages call URL with the source name. In development, where nothing is
// fingerprinted, the passthrough resolver serves the file from the public
// directory unchanged.
package assets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// BuildInfoFile is the build description holding the asset map, relative
// to the output directory.
const BuildInfoFile = "build.json"

// Manifest maps source asset names to fingerprinted URLs.
type Manifest struct {
	entries map[string]string
	mu      sync.RWMutex
}

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		entries: make(map[string]string),
	}
}

// Load reads the asset map from outputDir/build.json.
func Load(outputDir string) (*Manifest, error) {
	path := filepath.Join(outputDir, BuildInfoFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var info struct {
		Assets map[string]string `json:"assets"`
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("assets: decode %s: %w", path, err)
	}
	if info.Assets == nil {
		info.Assets = make(map[string]string)
	}
	return &Manifest{entries: info.Assets}, nil
}

// Resolve returns the fingerprinted URL for source, or source itself.
func (m *Manifest) Resolve(source string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if resolved, ok := m.entries[source]; ok {
		return resolved
	}
	return source
}

// Has reports whether source is in the manifest.
func (m *Manifest) Has(source string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[source]
	return ok
}

// Set adds or replaces an entry.
func (m *Manifest) Set(source, resolved string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[source] = resolved
}

func (m *Manifest) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// All returns a copy of every entry.
func (m *Manifest) All() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]string, len(m.entries))
	for k, v := range m.entries {
		result[k] = v
	}
	return result
}
