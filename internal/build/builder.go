package build

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/remastered-go/remastered/internal/build/codegen"
	"github.com/remastered-go/remastered/internal/config"
	"github.com/remastered-go/remastered/internal/errors"
	"github.com/remastered-go/remastered/internal/split"
	"github.com/remastered-go/remastered/pkg/manifest"
	"github.com/remastered-go/remastered/pkg/route"
)

const (
	// StagingDir holds the per-mode project copies.
	StagingDir = ".remastered"

	// ServerEntryFile is the plugin path relative to the output dir.
	ServerEntryFile = "server/entry.server.so"

	// BuildInfoFile is the build description relative to the output dir.
	BuildInfoFile = "build.json"

	// AssetsURL is the URL prefix of files under client/assets.
	AssetsURL = "/assets/"

	serverMainDir = "remastered_entry"
	clientMainDir = "remastered_client"
)

// Result contains the build output.
type Result struct {
	Duration time.Duration

	// BuildID identifies this build.
	BuildID string

	// ServerEntry is the path of the server entry plugin. Empty when
	// plugin output is disabled.
	ServerEntry string

	// Wasm is the URL of the client build.
	Wasm string

	ClientManifest manifest.Client
	SSRManifest    manifest.SSR

	// Assets maps public files to their fingerprinted URLs.
	Assets map[string]string

	Routes []string
}

// Info is written to build.json.
type Info struct {
	BuildID   string            `json:"buildId"`
	CreatedAt time.Time         `json:"createdAt"`
	Routes    []string          `json:"routes"`
	Wasm      string            `json:"wasm,omitempty"`
	Assets    map[string]string `json:"assets"`
}

// Options configures the builder.
type Options struct {
	Minify     bool
	SourceMaps bool

	LDFlags string
	Tags    []string

	// SkipPlugin leaves out the server entry plugin, for apps that link
	// their entry into the binary.
	SkipPlugin bool

	// SkipWasm leaves out the client Go build.
	SkipWasm bool

	// WasmExec overrides the location of wasm_exec.js.
	WasmExec string

	// OnProgress is called with progress updates.
	OnProgress func(step string)

	Logger *slog.Logger
}

// Builder handles production builds.
type Builder struct {
	config  *config.Config
	options Options
	logger  *slog.Logger
}

// New creates a new builder.
func New(cfg *config.Config, options Options) *Builder {
	if !options.Minify && cfg.Build.Minify {
		options.Minify = true
	}
	if !options.SourceMaps && cfg.Build.SourceMaps {
		options.SourceMaps = true
	}
	if options.LDFlags == "" && cfg.Build.LDFlags != "" {
		options.LDFlags = cfg.Build.LDFlags
	}
	if len(options.Tags) == 0 && len(cfg.Build.Tags) > 0 {
		options.Tags = cfg.Build.Tags
	}
	if !cfg.Build.Plugin {
		options.SkipPlugin = true
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{config: cfg, options: options, logger: logger.With("component", "build")}
}

// Build performs a production build.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()
	outputDir := b.config.OutputPath()
	clientDir := filepath.Join(outputDir, "client")
	assetsDir := filepath.Join(clientDir, "assets")

	b.progress("Scanning routes...")
	files, tree, err := b.scan()
	if err != nil {
		return nil, err
	}

	b.progress("Cleaning output directory...")
	if err := os.RemoveAll(outputDir); err != nil {
		return nil, errors.New("R120").Wrap(err)
	}
	if err := os.MkdirAll(assetsDir, 0o755); err != nil {
		return nil, errors.New("R120").Wrap(err)
	}

	res := &Result{
		BuildID: uuid.NewString(),
		Assets:  make(map[string]string),
		Routes:  tree.Leaves(),
	}

	b.progress("Staging sources...")
	serverDir, err := b.stage(ctx, files, split.ModeServer)
	if err != nil {
		return nil, err
	}
	clientStage, err := b.stage(ctx, files, split.ModeClient)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	if !b.options.SkipPlugin {
		g.Go(func() error {
			b.progress("Compiling server entry...")
			out := filepath.Join(outputDir, filepath.FromSlash(ServerEntryFile))
			if err := b.buildGo(gctx, serverDir, out, "./"+serverMainDir, nil, "-buildmode=plugin"); err != nil {
				return err
			}
			res.ServerEntry = out
			return nil
		})
	}
	if !b.options.SkipWasm {
		g.Go(func() error {
			b.progress("Compiling client...")
			tmp := filepath.Join(clientStage, "app.wasm")
			env := []string{"GOOS=js", "GOARCH=wasm"}
			if err := b.buildGo(gctx, clientStage, tmp, "./"+clientMainDir, env); err != nil {
				return err
			}
			name, err := fingerprint(tmp, assetsDir, "app")
			if err != nil {
				return errors.New("R120").Wrap(err)
			}
			res.Wasm = AssetsURL + name
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b.progress("Bundling client...")
	bootstrap, err := b.writeBootstrap(ctx, clientStage, res.Wasm)
	if err != nil {
		return nil, err
	}
	client, err := b.bundleClient(bootstrap, clientDir)
	if err != nil {
		return nil, err
	}
	res.ClientManifest = client

	b.progress("Copying public files...")
	if err := b.copyAssets(assetsDir, res.Assets); err != nil {
		return nil, err
	}

	res.SSRManifest = ssrManifest(files, res.Wasm)

	b.progress("Writing manifests...")
	if err := manifest.Write(filepath.Join(outputDir, filepath.FromSlash(manifest.ClientFile)), res.ClientManifest); err != nil {
		return nil, errors.New("R120").Wrap(err)
	}
	if err := manifest.Write(filepath.Join(outputDir, filepath.FromSlash(manifest.SSRFile)), res.SSRManifest); err != nil {
		return nil, errors.New("R120").Wrap(err)
	}
	info := Info{
		BuildID:   res.BuildID,
		CreatedAt: time.Now().UTC(),
		Routes:    res.Routes,
		Wasm:      res.Wasm,
		Assets:    res.Assets,
	}
	if err := manifest.Write(filepath.Join(outputDir, BuildInfoFile), info); err != nil {
		return nil, errors.New("R120").Wrap(err)
	}

	res.Duration = time.Since(start)
	b.logger.Info("build complete", "id", res.BuildID, "routes", len(res.Routes), "duration", res.Duration.Round(time.Millisecond))
	return res, nil
}

// scan discovers and validates the route files.
func (b *Builder) scan() ([]route.File, *route.Tree, error) {
	files, err := route.NewScanner(b.config.Dir(), b.config.Paths.Routes).Files()
	if err != nil {
		return nil, nil, err
	}
	tree, err := route.Build(files, route.BuildOptions{RoutesDir: b.config.Paths.Routes})
	if err != nil {
		return nil, nil, err
	}
	return files, tree, nil
}

// stage copies the project to .remastered/<mode>, splitting route files for
// mode and writing the mode's registry and main package.
func (b *Builder) stage(ctx context.Context, files []route.File, mode split.Mode) (string, error) {
	root := b.config.Dir()
	dst := filepath.Join(root, StagingDir, mode.String())
	if err := os.RemoveAll(dst); err != nil {
		return "", errors.New("R120").Wrap(err)
	}

	outputRel, _ := filepath.Rel(root, b.config.OutputPath())
	skip := map[string]bool{StagingDir: true, ".git": true, "node_modules": true, filepath.ToSlash(outputRel): true}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, p)
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if skip[rel] {
				return filepath.SkipDir
			}
			return nil
		}
		if path.Base(rel) == route.GeneratedFile {
			return nil
		}
		target := filepath.Join(dst, filepath.FromSlash(rel))
		if split.IsRouteFile(root, b.config.Paths.Routes, rel) {
			src, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			out, err := split.Split(rel, src, mode)
			if err != nil {
				return err
			}
			return writeFile(target, out)
		}
		return copyFile(p, target)
	})
	if err != nil {
		return "", asBuildError(err)
	}

	cgMode := codegen.ModeServer
	if mode == split.ModeClient {
		cgMode = codegen.ModeClient
	}
	if _, err := codegen.Write(dst, codegen.Options{
		ModulePath: b.config.Module,
		RoutesDir:  b.config.Paths.Routes,
		Files:      files,
		Mode:       cgMode,
	}); err != nil {
		return "", err
	}

	mainDir, mainSrc := serverMainDir, serverMain
	if mode == split.ModeClient {
		mainDir, mainSrc = clientMainDir, clientMain
	}
	src := fmt.Sprintf(mainSrc, b.config.Module+"/"+path.Clean(b.config.Paths.Routes))
	if err := writeFile(filepath.Join(dst, mainDir, "main.go"), []byte(src)); err != nil {
		return "", errors.New("R120").Wrap(err)
	}
	return dst, nil
}

const serverMain = `// Code generated by remastered. DO NOT EDIT.

package main

import (
	routes %q

	"github.com/remastered-go/remastered/pkg/entry"
)

// Entry is looked up by the production dispatcher.
var Entry entry.Entry = entry.MustServer(entry.ServerOptions{Registry: routes.Registry})

func main() {}
`

const clientMain = `// Code generated by remastered. DO NOT EDIT.

package main

import routes %q

var _ = routes.Registry

func main() {
	select {}
}
`

// buildGo runs go build in dir.
func (b *Builder) buildGo(ctx context.Context, dir, output, pkg string, env []string, extra ...string) error {
	args := []string{"build", "-o", output, "-trimpath"}
	args = append(args, extra...)

	ldflags := "-s -w"
	if b.options.LDFlags != "" {
		ldflags = b.options.LDFlags + " " + ldflags
	}
	args = append(args, "-ldflags", ldflags)
	if len(b.options.Tags) > 0 {
		args = append(args, "-tags", strings.Join(b.options.Tags, ","))
	}
	args = append(args, pkg)

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return errors.New("R120").Wrap(err)
	}

	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return errors.New("R120").
			WithDetail(stderr.String()).
			Wrap(err)
	}
	return nil
}

// wasmExec locates the wasm_exec.js support file of the Go toolchain.
func (b *Builder) wasmExec(ctx context.Context) (string, error) {
	if b.options.WasmExec != "" {
		return b.options.WasmExec, nil
	}
	out, err := exec.CommandContext(ctx, "go", "env", "GOROOT").Output()
	if err != nil {
		return "", errors.New("R121").WithDetail("cannot locate GOROOT").Wrap(err)
	}
	goroot := strings.TrimSpace(string(out))
	for _, rel := range []string{"lib/wasm/wasm_exec.js", "misc/wasm/wasm_exec.js"} {
		p := filepath.Join(goroot, filepath.FromSlash(rel))
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errors.New("R121").WithDetail("wasm_exec.js not found under " + goroot)
}

// writeBootstrap writes the browser entry that starts the client build and
// imports the app's own client entry when it exists.
func (b *Builder) writeBootstrap(ctx context.Context, stageDir, wasmURL string) (string, error) {
	var src strings.Builder
	if wasmURL != "" {
		support, err := b.wasmExec(ctx)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&src, "import %q;\n", filepath.ToSlash(support))
	}
	if b.config.Paths.ClientEntry != "" && fileExists(b.config.ClientEntryPath()) {
		userEntry := b.config.ClientEntryPath()
		fmt.Fprintf(&src, "import %q;\n", filepath.ToSlash(userEntry))
	}
	if wasmURL != "" {
		fmt.Fprintf(&src, `
const go = new Go();
WebAssembly.instantiateStreaming(fetch(%q), go.importObject)
  .then((result) => go.run(result.instance))
  .catch((err) => console.error("[remastered] client failed to start", err));
`, wasmURL)
	}

	p := filepath.Join(stageDir, "entry.client.js")
	if err := writeFile(p, []byte(src.String())); err != nil {
		return "", errors.New("R121").Wrap(err)
	}
	return p, nil
}

// copyAssets copies public files into assetsDir with content hashes in
// their names and records them in assets.
func (b *Builder) copyAssets(assetsDir string, assets map[string]string) error {
	srcDir := b.config.PublicPath()
	if !fileExists(srcDir) {
		return nil
	}
	return filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(srcDir, p)
		rel = filepath.ToSlash(rel)

		ext := path.Ext(rel)
		base := strings.TrimSuffix(rel, ext)
		hash, err := hashFile(p)
		if err != nil {
			return errors.New("R120").Wrap(err)
		}
		name := fmt.Sprintf("%s.%s%s", base, hash[:8], ext)
		if err := copyFile(p, filepath.Join(assetsDir, filepath.FromSlash(name))); err != nil {
			return errors.New("R120").Wrap(err)
		}
		assets[rel] = AssetsURL + name
		return nil
	})
}

// ssrManifest lists, for every route module, the assets a page using it
// preloads. All routes share the one client build; entry chunk styles are
// linked from the client manifest.
func ssrManifest(files []route.File, wasmURL string) manifest.SSR {
	shared := []string{}
	if wasmURL != "" {
		shared = append(shared, wasmURL)
	}
	m := make(manifest.SSR, len(files))
	for _, f := range files {
		m[f.ID] = append([]string(nil), shared...)
	}
	return m
}

// fingerprint moves src into dir as <name>.<hash8><ext> and returns the new
// file name.
func fingerprint(src, dir, name string) (string, error) {
	hash, err := hashFile(src)
	if err != nil {
		return "", err
	}
	out := fmt.Sprintf("%s.%s%s", name, hash[:8], filepath.Ext(src))
	if err := copyFile(src, filepath.Join(dir, out)); err != nil {
		return "", err
	}
	return out, os.Remove(src)
}

// progress reports build progress.
func (b *Builder) progress(step string) {
	b.logger.Debug(step)
	if b.options.OnProgress != nil {
		b.options.OnProgress(step)
	}
}

// Clean removes the build output and staging directories.
func (b *Builder) Clean() error {
	if err := os.RemoveAll(b.config.OutputPath()); err != nil {
		return err
	}
	return os.RemoveAll(filepath.Join(b.config.Dir(), StagingDir))
}

// ReadInfo reads build.json from an output directory.
func ReadInfo(outputDir string) (*Info, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, BuildInfoFile))
	if err != nil {
		return nil, err
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("build: decode %s: %w", BuildInfoFile, err)
	}
	return &info, nil
}

func asBuildError(err error) error {
	if _, ok := err.(*errors.Error); ok {
		return err
	}
	return errors.FromError(err, "R120")
}

// hashFile returns the SHA256 hash of a file.
func hashFile(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func writeFile(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
