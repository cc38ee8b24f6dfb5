package dev

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/remastered-go/remastered/internal/errors"
	"github.com/remastered-go/remastered/internal/split"
	"github.com/remastered-go/remastered/pkg/entry"
	"github.com/remastered-go/remastered/pkg/route"
)

// StagingDir holds the per-mode copies of the project made by builds.
const StagingDir = ".remastered"

// ServiceOptions configures a Service.
type ServiceOptions struct {
	// Root is the absolute project root.
	Root string

	// RoutesDir is the project-relative routes directory. Default "app/routes".
	RoutesDir string

	// Registry holds the modules compiled into the running binary.
	Registry *route.Registry

	// ModulePath is the app's Go module path, used to map trimmed stack
	// paths back to files.
	ModulePath string

	Lang string

	// Debounce delays rebuilds after a burst of file events. Default 100ms.
	Debounce time.Duration

	Logger *slog.Logger
}

// Service is the development compile service.
type Service struct {
	opts    ServiceOptions
	scanner *route.Scanner
	tree    atomic.Pointer[route.Tree]
	logger  *slog.Logger

	rebuilds atomic.Int64
}

var _ entry.DevCompiler = (*Service)(nil)

// NewService scans the routes once. Route errors are returned as-is and are
// fatal to dev startup.
func NewService(opts ServiceOptions) (*Service, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("dev: a route registry is required")
	}
	if opts.RoutesDir == "" {
		opts.RoutesDir = opts.Registry.RoutesDir()
	}
	if opts.Debounce == 0 {
		opts.Debounce = 100 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		opts:    opts,
		scanner: route.NewScanner(opts.Root, opts.RoutesDir),
		logger:  logger.With("component", "dev"),
	}
	tree, err := s.scanner.Scan(opts.Registry)
	if err != nil {
		return nil, err
	}
	s.tree.Store(tree)
	return s, nil
}

// Rebuild re-scans the routes and swaps the tree in one step. On failure
// the previous tree stays in place.
func (s *Service) Rebuild() error {
	tree, err := s.scanner.Scan(s.opts.Registry)
	if err != nil {
		s.logger.Error("route rebuild failed", "error", errors.Summary(err))
		return err
	}
	prev := s.tree.Swap(tree)
	s.rebuilds.Add(1)
	if prev == nil || !prev.Equal(tree) {
		s.logger.Info("routes rebuilt", "routes", len(tree.Leaves()))
	}
	return nil
}

// Start watches the app directory and rebuilds on change until ctx ends.
func (s *Service) Start(ctx context.Context) error {
	appDir := filepath.Join(s.opts.Root, filepath.FromSlash(filepath.Dir(s.opts.RoutesDir)))
	w := NewWatcher(WatcherConfig{
		Paths:    []string{appDir},
		Debounce: s.opts.Debounce,
	})
	w.OnChange(func(changes []Change) {
		for _, c := range changes {
			if c.Type == ChangeGo && split.IsRouteFile(s.opts.Root, s.opts.RoutesDir, c.Path) {
				_ = s.Rebuild()
				return
			}
		}
	})
	err := w.Start(ctx)
	if stderrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Generation counts successful rebuilds.
func (s *Service) Generation() int64 {
	return s.rebuilds.Load()
}

// LoadServerEntry returns a new server entry bound to the current tree.
func (s *Service) LoadServerEntry(ctx context.Context) (entry.Entry, error) {
	return entry.NewServer(entry.ServerOptions{
		Tree:   s.tree.Load(),
		Lang:   s.opts.Lang,
		Logger: s.logger,
	})
}

// LoadModule resolves a route module from the registry.
func (s *Service) LoadModule(ctx context.Context, id string) (*route.Module, error) {
	if m, ok := s.opts.Registry.Lookup(id); ok {
		return m, nil
	}
	if _, err := os.Stat(filepath.Join(s.opts.Root, filepath.FromSlash(id))); err == nil {
		return nil, errors.New("R140").
			WithDetail(id + " exists but is not in the compiled route registry").
			WithSuggestion("Run `remastered gen` and restart, or use `remastered dev` which does both")
	}
	return nil, fmt.Errorf("dev: unknown route module %q", id)
}

// Routes returns the current route tree.
func (s *Service) Routes(ctx context.Context) (*route.Tree, error) {
	return s.tree.Load(), nil
}

// FixStacktrace rewrites trimmed module paths and staging paths in err to
// absolute source paths. Errors without such paths are returned unchanged.
func (s *Service) FixStacktrace(err error) error {
	if err == nil {
		return nil
	}
	rewrite := s.rewriter()

	var pe *errors.PanicError
	if stderrors.As(err, &pe) {
		pe.Stack = []byte(rewrite.Replace(string(pe.Stack)))
	}
	var ce *errors.Error
	if stderrors.As(err, &ce) && ce.Location != nil {
		ce.Location.File = rewrite.Replace(ce.Location.File)
	}

	msg := err.Error()
	fixed := rewrite.Replace(msg)
	if fixed == msg {
		return err
	}
	return &fixedError{msg: fixed, err: err}
}

func (s *Service) rewriter() *strings.Replacer {
	root := filepath.ToSlash(s.opts.Root)
	var pairs []string
	for _, mode := range []string{"server", "client"} {
		pairs = append(pairs, root+"/"+StagingDir+"/"+mode+"/", root+"/")
	}
	if s.opts.ModulePath != "" {
		pairs = append(pairs, s.opts.ModulePath+"/", root+"/")
	}
	return strings.NewReplacer(pairs...)
}

// fixedError carries a rewritten message and keeps the original chain.
type fixedError struct {
	msg string
	err error
}

func (e *fixedError) Error() string { return e.msg }
func (e *fixedError) Unwrap() error { return e.err }
