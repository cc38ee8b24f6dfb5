package main

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"go/format"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/remastered-go/remastered/internal/build/codegen"
	"github.com/remastered-go/remastered/internal/config"
	"github.com/remastered-go/remastered/internal/errors"
	"github.com/remastered-go/remastered/pkg/route"
)

func genCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen <type>",
		Short: "Generate code",
		Long: `Generate route code.

Types:
  routes      Generate routes_gen.go from the routes directory
  route       Generate a new route file

Examples:
  remastered gen routes              # Regenerate routes_gen.go
  remastered gen routes --check      # Fail when routes_gen.go is stale
  remastered gen route users/id_     # Generate app/routes/users/id_.go
  remastered gen route docs/path__   # Generate a catch-all route`,
	}

	cmd.AddCommand(
		genRoutesCmd(),
		genRouteCmd(),
	)

	return cmd
}

// =============================================================================
// remastered gen routes
// =============================================================================

func genRoutesCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Generate routes_gen.go from route files",
		Long: `Scan the routes directory and generate the routes_gen.go file.

The generated registry binds every route file's exports to its module id
so the server can render routes without reading the filesystem. The
output is deterministic: running it again produces identical output
unless the routes change.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenRoutes(check)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Report a stale routes_gen.go without writing it")

	return cmd
}

func runGenRoutes(check bool) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}

	info("Scanning %s...", cfg.Paths.Routes)
	files, err := route.NewScanner(cfg.Dir(), cfg.Paths.Routes).Files()
	if err != nil {
		return err
	}
	if _, err := route.Build(files, route.BuildOptions{RoutesDir: cfg.Paths.Routes}); err != nil {
		return err
	}
	info("Found %d route modules", len(files))

	opts := codegen.Options{
		ModulePath: cfg.Module,
		RoutesDir:  cfg.Paths.Routes,
		Files:      files,
	}
	target := filepath.Join(cfg.RoutesPath(), route.GeneratedFile)

	if check {
		code, err := codegen.Generate(opts)
		if err != nil {
			return err
		}
		current, _ := os.ReadFile(target)
		if !bytes.Equal(current, code) {
			return errors.New("R111").
				WithDetail(target + " is out of date").
				WithSuggestion("Run 'remastered gen routes'")
		}
		success("%s is up to date", target)
		return nil
	}

	changed, err := codegen.Write(cfg.Dir(), opts)
	if err != nil {
		return err
	}
	if changed {
		success("Generated %s", target)
	} else {
		success("%s unchanged", target)
	}
	return nil
}

// =============================================================================
// remastered gen route
// =============================================================================

func genRouteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "route <path>",
		Short: "Generate a new route file",
		Long: `Generate a new route file with a Loader and a Page.

The path uses file-based routing conventions:
  index         → / (index route)
  about         → /about
  users/id_     → /users/:id
  docs/path__   → /docs/*path
  org_/members  → /:org/members

Names stay buildable Go files and packages: letters, digits and hyphens,
with a trailing _ for a parameter and __ for a catch-all.

Examples:
  remastered gen route about
  remastered gen route users/id_`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenRoute(args[0])
		},
	}

	return cmd
}

func runGenRoute(p string) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}

	p = strings.TrimPrefix(path.Clean(filepath.ToSlash(p)), "/")
	p = strings.TrimSuffix(p, ".go")

	segments, err := routeSegments(p)
	if err != nil {
		return err
	}

	outputPath := filepath.Join(cfg.RoutesPath(), filepath.FromSlash(p)+".go")
	if _, err := os.Stat(outputPath); err == nil {
		return errors.New("R100").
			WithDetail("File already exists: " + outputPath).
			WithSuggestion("Choose a different path or remove the existing file")
	}

	pkg := path.Base(path.Dir(p))
	if pkg == "." {
		files, err := route.NewScanner(cfg.Dir(), cfg.Paths.Routes).Files()
		if err != nil {
			return err
		}
		pkg = codegen.PackageName(cfg.Paths.Routes, files)
	}

	code, err := routeSource(pkg, p, segments)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, code, 0o644); err != nil {
		return err
	}

	success("Created %s", outputPath)
	info("")
	info("Run 'remastered gen routes' to update %s", route.GeneratedFile)
	return nil
}

// routeSource renders a new route module.
func routeSource(pkg, p string, segments []string) ([]byte, error) {
	var params []string
	pattern := ""
	for _, s := range segments {
		pattern = route.JoinPattern(pattern, s)
		switch {
		case strings.HasPrefix(s, ":"), strings.HasPrefix(s, "*"):
			params = append(params, s[1:])
		}
	}
	if pattern == "" {
		pattern = "/"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "package %s\n\n", pkg)
	b.WriteString(`import (
	"context"

	"github.com/remastered-go/remastered/pkg/route"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

`)
	fmt.Fprintf(&b, "// Loader runs on the server before %s renders.\n", pattern)
	b.WriteString("func Loader(ctx context.Context, args route.DataArgs) (any, error) {\n")
	if len(params) == 0 {
		b.WriteString("\treturn nil, nil\n}\n\n")
	} else {
		b.WriteString("\treturn map[string]string{\n")
		for _, name := range params {
			fmt.Fprintf(&b, "\t\t%q: args.Params.Get(%q),\n", name, name)
		}
		b.WriteString("\t}, nil\n}\n\n")
	}
	b.WriteString("func Page(c *route.Context) g.Node {\n")
	fmt.Fprintf(&b, "\treturn h.Main(h.H1(g.Text(%q)))\n}\n", path.Base(p))

	return format.Source([]byte(b.String()))
}

// routeSegments derives the URL segments of a new route path, with the
// same coded errors the scanner reports.
func routeSegments(p string) ([]string, error) {
	segments, err := route.DeriveSegments(p + ".go")
	switch {
	case stderrors.Is(err, route.ErrUnbuildableName):
		return nil, errors.New("R104").WithDetail(err.Error())
	case err != nil:
		return nil, errors.New("R102").WithDetail(err.Error())
	}
	return segments, nil
}
