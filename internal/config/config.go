package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/remastered-go/remastered/internal/errors"
)

const (
	// ConfigName is the configuration file name without extension.
	ConfigName = "remastered"

	// ConfigFileName is the default configuration file.
	ConfigFileName = ConfigName + ".json"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "REMASTERED"

	DefaultPort   = 3000
	DefaultHost   = "localhost"
	DefaultOutput = "dist"
)

// Mode selects development or production behavior.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// Config is the complete remastered.json configuration.
type Config struct {
	Name string `mapstructure:"name"`

	// Mode is read from REMASTERED_ENV; anything but "production" is development.
	Mode Mode `mapstructure:"env"`

	// Module is the Go module path of the app. Read from go.mod when empty.
	Module string `mapstructure:"module"`

	Paths  PathsConfig  `mapstructure:"paths"`
	Dev    DevConfig    `mapstructure:"dev"`
	Build  BuildConfig  `mapstructure:"build"`
	Server ServerConfig `mapstructure:"server"`
	Export ExportConfig `mapstructure:"export"`

	Tracing TracingConfig `mapstructure:"tracing"`

	dir string
}

// PathsConfig contains project directory layout.
type PathsConfig struct {
	// App holds the root layout and the routes directory.
	App string `mapstructure:"app"`

	Routes string `mapstructure:"routes"`

	Public string `mapstructure:"public"`

	// ClientEntry is an optional JavaScript bootstrap bundled for the browser.
	ClientEntry string `mapstructure:"clientEntry"`
}

// DevConfig contains development server settings.
type DevConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`

	// AppPort is where the supervised app listens behind the dev proxy.
	AppPort int `mapstructure:"appPort"`

	// Watch contains paths to watch for changes.
	Watch []string `mapstructure:"watch"`

	// Ignore contains glob patterns to ignore during watch.
	Ignore []string `mapstructure:"ignore"`

	HotReload bool `mapstructure:"hotReload"`

	// Cmd is the package built and run by the dev supervisor.
	Cmd string `mapstructure:"cmd"`
}

// BuildConfig contains production build settings.
type BuildConfig struct {
	Output string `mapstructure:"output"`

	Minify bool `mapstructure:"minify"`

	SourceMaps bool `mapstructure:"sourceMaps"`

	// LDFlags are additional linker flags for go build.
	LDFlags string `mapstructure:"ldflags"`

	Tags []string `mapstructure:"tags"`

	// Plugin controls whether the server entry is emitted as a Go plugin.
	Plugin bool `mapstructure:"plugin"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	Metrics     bool   `mapstructure:"metrics"`
	MetricsPath string `mapstructure:"metricsPath"`
}

// ExportConfig configures the static export store.
type ExportConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Dir     string   `mapstructure:"dir"`
	S3      S3Config `mapstructure:"s3"`
}

// S3Config selects an S3 bucket as the export store when Bucket is set.
type S3Config struct {
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`

	// Credentials are usually supplied through REMASTERED_EXPORT_S3_* variables.
	AccessKeyID     string `mapstructure:"accessKeyId"`
	SecretAccessKey string `mapstructure:"secretAccessKey"`
}

// TracingConfig configures OTLP trace export.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"serviceName"`
	SampleRate  float64 `mapstructure:"sampleRate"`
	Insecure    bool    `mapstructure:"insecure"`
}

// New creates a Config with default values.
func New() *Config {
	cfg := &Config{}
	v := newViper()
	_ = v.Unmarshal(cfg)
	cfg.applyDefaults()
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName(ConfigName)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", string(ModeDevelopment))
	v.SetDefault("module", "")

	v.SetDefault("paths.app", "app")
	v.SetDefault("paths.routes", "app/routes")
	v.SetDefault("paths.public", "public")
	v.SetDefault("paths.clientEntry", "app/entry.client.js")

	v.SetDefault("dev.port", DefaultPort)
	v.SetDefault("dev.host", DefaultHost)
	v.SetDefault("dev.appPort", 0)
	v.SetDefault("dev.watch", []string{"app", "public"})
	v.SetDefault("dev.ignore", []string{})
	v.SetDefault("dev.hotReload", true)
	v.SetDefault("dev.cmd", ".")

	v.SetDefault("build.output", DefaultOutput)
	v.SetDefault("build.minify", true)
	v.SetDefault("build.sourceMaps", false)
	v.SetDefault("build.ldflags", "")
	v.SetDefault("build.tags", []string{})
	v.SetDefault("build.plugin", true)

	v.SetDefault("server.addr", ":"+strconv.Itoa(DefaultPort))
	v.SetDefault("server.metrics", false)
	v.SetDefault("server.metricsPath", "/metrics")

	v.SetDefault("export.enabled", true)
	v.SetDefault("export.dir", "dist/exported")
	v.SetDefault("export.s3.bucket", "")
	v.SetDefault("export.s3.prefix", "")
	v.SetDefault("export.s3.region", "")
	v.SetDefault("export.s3.endpoint", "")
	v.SetDefault("export.s3.accessKeyId", "")
	v.SetDefault("export.s3.secretAccessKey", "")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.serviceName", "remastered")
	v.SetDefault("tracing.sampleRate", 1.0)
	v.SetDefault("tracing.insecure", true)
}

// Load reads configuration from the specified directory. A missing config
// file is not an error; defaults and environment overrides still apply.
func Load(dir string) (*Config, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.New("R150").Wrap(err)
	}

	v := newViper()
	v.AddConfigPath(abs)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return nil, errors.New("R150").
				WithDetail("Failed to read " + ConfigName + " config in " + abs).
				WithSuggestion("Check that " + ConfigFileName + " is valid").
				Wrap(err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.New("R150").Wrap(err)
	}
	cfg.dir = abs
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Mode != ModeProduction {
		c.Mode = ModeDevelopment
	}
	if c.Dev.AppPort == 0 {
		c.Dev.AppPort = c.Dev.Port + 1
	}
	if c.Module == "" && c.dir != "" {
		c.Module = readModulePath(filepath.Join(c.dir, "go.mod"))
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Dev.Port < 0 || c.Dev.Port > 65535 {
		return errors.New("R150").
			WithDetail("dev.port must be between 0 and 65535")
	}
	if c.Dev.AppPort == c.Dev.Port {
		return errors.New("R150").
			WithDetail("dev.appPort must differ from dev.port")
	}
	if filepath.IsAbs(c.Paths.Routes) {
		return errors.New("R150").
			WithDetail("paths.routes must be relative to the project root")
	}
	return nil
}

// Dir returns the project directory the config was loaded from.
func (c *Config) Dir() string {
	return c.dir
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Mode == ModeProduction
}

// DevAddress returns the address string for the dev server.
func (c *Config) DevAddress() string {
	return c.Dev.Host + ":" + strconv.Itoa(c.Dev.Port)
}

// DevURL returns the full URL for the dev server.
func (c *Config) DevURL() string {
	return "http://" + c.DevAddress()
}

// AppAddress is the address the supervised app binds to in dev.
func (c *Config) AppAddress() string {
	return c.Dev.Host + ":" + strconv.Itoa(c.Dev.AppPort)
}

// OutputPath returns the absolute path to the build output directory.
func (c *Config) OutputPath() string {
	return c.abs(c.Build.Output)
}

// AppPath returns the absolute path to the app directory.
func (c *Config) AppPath() string {
	return c.abs(c.Paths.App)
}

// RoutesPath returns the absolute path to the routes directory.
func (c *Config) RoutesPath() string {
	return c.abs(c.Paths.Routes)
}

// PublicPath returns the absolute path to the public directory.
func (c *Config) PublicPath() string {
	return c.abs(c.Paths.Public)
}

// ClientEntryPath returns the absolute path to the client bootstrap.
func (c *Config) ClientEntryPath() string {
	return c.abs(c.Paths.ClientEntry)
}

// ExportPath returns the absolute path to the static export directory.
func (c *Config) ExportPath() string {
	return c.abs(c.Export.Dir)
}

func (c *Config) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.dir, path)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, ext := range viper.SupportedExts {
		if _, err := os.Stat(filepath.Join(dir, ConfigName+"."+ext)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to the first one holding a config
// file or a go.mod.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("R150").
				WithDetail("No " + ConfigFileName + " or go.mod found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current project.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}

func readModulePath(gomod string) string {
	data, err := os.ReadFile(gomod)
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "module "); ok {
			return strings.Trim(strings.TrimSpace(rest), `"`)
		}
	}
	return ""
}
