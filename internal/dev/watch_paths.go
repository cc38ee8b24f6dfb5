package dev

import (
	"path/filepath"

	"github.com/remastered-go/remastered/internal/config"
)

// CollectWatchPaths returns the de-duplicated paths the supervisor watches:
// the app and public directories, go.mod and every dev.watch entry.
func CollectWatchPaths(cfg *config.Config) []string {
	projectDir := cfg.Dir()
	paths := []string{
		filepath.Join(projectDir, "go.mod"),
		cfg.AppPath(),
		cfg.PublicPath(),
	}
	if cfg.Dev.Cmd != "" && cfg.Dev.Cmd != "." {
		paths = append(paths, resolvePath(projectDir, cfg.Dev.Cmd))
	} else {
		paths = append(paths, filepath.Join(projectDir, "main.go"))
	}
	for _, p := range cfg.Dev.Watch {
		paths = append(paths, resolvePath(projectDir, p))
	}

	unique := make([]string, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		clean := filepath.Clean(p)
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		unique = append(unique, clean)
	}
	return unique
}

func resolvePath(projectDir, p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(projectDir, p)
}
