package assets

import "testing"

func TestResolvers(t *testing.T) {
	m := NewManifest()
	m.Set("logo.svg", "/assets/logo.abc123.svg")

	tests := []struct {
		name     string
		resolver Resolver
		source   string
		expected string
	}{
		{"manifest hit", NewResolver(m, ""), "logo.svg", "/assets/logo.abc123.svg"},
		{"manifest hit with leading slash", NewResolver(m, ""), "/logo.svg", "/assets/logo.abc123.svg"},
		{"manifest miss", NewResolver(m, ""), "robots.txt", "/robots.txt"},
		{"cdn prefix", NewResolver(m, "https://cdn.example.com/"), "logo.svg", "https://cdn.example.com/assets/logo.abc123.svg"},
		{"passthrough", NewPassthroughResolver(""), "logo.svg", "/logo.svg"},
		{"passthrough prefix", NewPassthroughResolver("/static/"), "/logo.svg", "/static/logo.svg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.resolver.Asset(tt.source); got != tt.expected {
				t.Errorf("Asset(%q) = %q, want %q", tt.source, got, tt.expected)
			}
		})
	}
}

func TestURL(t *testing.T) {
	t.Cleanup(func() { Use(NewPassthroughResolver("")) })

	if got := URL("logo.svg"); got != "/logo.svg" {
		t.Errorf("default URL = %q", got)
	}

	m := NewManifest()
	m.Set("logo.svg", "/assets/logo.abc123.svg")
	Use(NewResolver(m, ""))
	if got := URL("logo.svg"); got != "/assets/logo.abc123.svg" {
		t.Errorf("URL = %q", got)
	}
}
