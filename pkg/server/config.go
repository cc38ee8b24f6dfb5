package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config configures the HTTP server.
type Config struct {
	// Address is the TCP address to listen on.
	// Default: ":3000".
	Address string

	// ReadHeaderTimeout bounds reading request headers.
	// Default: 10 seconds.
	ReadHeaderTimeout time.Duration

	// ReadTimeout bounds reading the whole request.
	// Default: 60 seconds.
	ReadTimeout time.Duration

	// WriteTimeout bounds writing the response.
	// Default: 60 seconds.
	WriteTimeout time.Duration

	// IdleTimeout closes idle keep-alive connections.
	// Default: 2 minutes.
	IdleTimeout time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 30 seconds.
	ShutdownTimeout time.Duration

	// AssetsDir holds built client assets served under /assets/. Empty
	// disables the asset route, as in development.
	AssetsDir string

	// PublicDir holds files served as-is when no route renders them.
	PublicDir string

	// MetricsPath exposes Gatherer in the Prometheus text format. Empty
	// disables the endpoint.
	MetricsPath string

	// Gatherer backs the metrics endpoint.
	// Default: prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:           ":3000",
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
		ShutdownTimeout:   30 * time.Second,
	}
}

// WithAddress sets the server address and returns the config for chaining.
func (c *Config) WithAddress(addr string) *Config {
	c.Address = addr
	return c
}

// WithAssets sets the assets directory and returns the config for chaining.
func (c *Config) WithAssets(dir string) *Config {
	c.AssetsDir = dir
	return c
}

// WithMetrics enables the metrics endpoint and returns the config for
// chaining.
func (c *Config) WithMetrics(path string, g prometheus.Gatherer) *Config {
	c.MetricsPath = path
	c.Gatherer = g
	return c
}

func (c *Config) withDefaults() Config {
	d := DefaultConfig()
	out := *c
	if out.Address == "" {
		out.Address = d.Address
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if out.ReadTimeout == 0 {
		out.ReadTimeout = d.ReadTimeout
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = d.WriteTimeout
	}
	if out.IdleTimeout == 0 {
		out.IdleTimeout = d.IdleTimeout
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = d.ShutdownTimeout
	}
	if out.Gatherer == nil {
		out.Gatherer = prometheus.DefaultGatherer
	}
	return out
}
