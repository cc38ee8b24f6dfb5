package route

import (
	"path"
	"sort"
)

// Registry maps module ids to compiled route modules. The generated
// routes_gen.go fills it at startup; it is read-only afterwards.
type Registry struct {
	routesDir string
	modules   map[string]*Module
}

// NewRegistry creates an empty registry for the given project-relative
// routes directory.
func NewRegistry(routesDir string) *Registry {
	if routesDir == "" {
		routesDir = DefaultRoutesDir
	}
	return &Registry{
		routesDir: path.Clean(routesDir),
		modules:   make(map[string]*Module),
	}
}

// Register binds a module to its id.
func (r *Registry) Register(id string, m Module) *Registry {
	m.ID = id
	r.modules[id] = &m
	return r
}

// Lookup returns the module registered under id.
func (r *Registry) Lookup(id string) (*Module, bool) {
	if r == nil {
		return nil, false
	}
	m, ok := r.modules[id]
	return m, ok
}

// RoutesDir returns the routes directory the registry was generated for.
func (r *Registry) RoutesDir() string {
	return r.routesDir
}

// IDs returns the registered module ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.modules))
	for id := range r.modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Files describes the registered modules as route files.
func (r *Registry) Files() []File {
	files := make([]File, 0, len(r.modules))
	for _, id := range r.IDs() {
		files = append(files, File{ID: id, Exports: r.modules[id].Exports()})
	}
	return files
}

// Tree builds the route tree from the registered modules alone, without
// touching the filesystem.
func (r *Registry) Tree() (*Tree, error) {
	return Build(r.Files(), BuildOptions{RoutesDir: r.routesDir, Registry: r})
}
