package assets

import (
	"strings"
	"sync/atomic"
)

// Resolver maps source asset names to URLs.
type Resolver interface {
	Asset(source string) string
}

type manifestResolver struct {
	manifest *Manifest
	prefix   string
}

// NewResolver resolves through m. prefix is prepended to resolved URLs,
// for assets served from another origin:
//
//	assets.NewResolver(m, "https://cdn.example.com")
//	// "logo.svg" -> "https://cdn.example.com/assets/logo.1a2b3c4d.svg"
//
// Unknown sources resolve like the passthrough resolver.
func NewResolver(m *Manifest, prefix string) Resolver {
	return &manifestResolver{
		manifest: m,
		prefix:   strings.TrimSuffix(prefix, "/"),
	}
}

func (r *manifestResolver) Asset(source string) string {
	source = strings.TrimPrefix(source, "/")
	if r.manifest.Has(source) {
		return r.prefix + r.manifest.Resolve(source)
	}
	return r.prefix + "/" + source
}

type passthrough struct {
	prefix string
}

// NewPassthroughResolver returns sources unchanged below prefix. The dev
// server uses it, since public files are served as they are.
func NewPassthroughResolver(prefix string) Resolver {
	return &passthrough{prefix: strings.TrimSuffix(prefix, "/")}
}

func (p *passthrough) Asset(source string) string {
	return p.prefix + "/" + strings.TrimPrefix(source, "/")
}

type holder struct{ Resolver }

var current atomic.Value

func init() {
	current.Store(holder{NewPassthroughResolver("")})
}

// Use installs the process-wide resolver.
func Use(r Resolver) {
	current.Store(holder{r})
}

// URL resolves source with the process-wide resolver.
func URL(source string) string {
	return current.Load().(holder).Asset(source)
}
