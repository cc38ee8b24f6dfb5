package dev

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/remastered-go/remastered/internal/config"
	"github.com/remastered-go/remastered/internal/errors"
	"github.com/remastered-go/remastered/internal/split"
)

// SupervisorOptions configures the dev supervisor.
type SupervisorOptions struct {
	Config *config.Config

	Logger *slog.Logger

	// OnBuildComplete is called after every app build.
	OnBuildComplete func(result BuildResult)

	// OnReload is called with the client count after browsers are told to
	// reload.
	OnReload func(clients int)
}

// Supervisor runs `remastered dev`: it rebuilds and restarts the app on
// change and proxies browser traffic to it.
type Supervisor struct {
	config   *config.Config
	options  SupervisorOptions
	logger   *slog.Logger
	compiler *Compiler
	watcher  *Watcher
	reload   *ReloadServer
	recovery *ErrorRecovery
	proxy    *httputil.ReverseProxy

	changeCh chan []Change

	mu         sync.Mutex
	running    bool
	httpServer *http.Server
}

// NewSupervisor creates a dev supervisor.
func NewSupervisor(options SupervisorOptions) *Supervisor {
	cfg := options.Config
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "dev")

	s := &Supervisor{
		config:  cfg,
		options: options,
		logger:  logger,
		compiler: NewCompiler(CompilerConfig{
			ProjectPath: cfg.Dir(),
			Package:     cfg.Dev.Cmd,
			Tags:        cfg.Build.Tags,
			LDFlags:     cfg.Build.LDFlags,
		}),
		watcher: NewWatcher(WatcherConfig{
			Paths:    CollectWatchPaths(cfg),
			Ignore:   append(append([]string{}, DefaultIgnore...), cfg.Dev.Ignore...),
			Debounce: 100 * time.Millisecond,
			Logger:   logger,
		}),
		recovery: NewErrorRecovery(cfg.Dir(), cfg.Paths.Routes, cfg.Module),
		changeCh: make(chan []Change, 16),
	}
	if cfg.Dev.HotReload {
		s.reload = NewReloadServer()
	}
	s.proxy = s.newProxy()
	return s
}

// Handler returns the supervisor's HTTP surface: the hot reload socket
// and the app proxy.
func (s *Supervisor) Handler() http.Handler {
	r := chi.NewRouter()
	if s.reload != nil {
		r.Handle(HMRPath, s.reload)
	}
	r.Handle("/*", s.proxy)
	return r
}

// Start builds and runs the app, then serves until ctx is done.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()
	defer s.Stop()

	if _, err := s.recovery.Regenerate(); err != nil {
		return err
	}
	if s.rebuild(ctx) {
		s.startApp(ctx)
	}

	s.watcher.OnChange(func(changes []Change) {
		select {
		case s.changeCh <- changes:
		default:
			s.logger.Warn("dropping file changes, rebuild in progress", "count", len(changes))
		}
	})
	go func() {
		if err := s.watcher.Start(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("watcher stopped", "error", err)
		}
	}()
	go s.processChanges(ctx)

	l, err := net.Listen("tcp", s.config.DevAddress())
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	s.logger.Info("dev server running", "url", s.config.DevURL(), "app", s.config.AppAddress())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(l) }()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// Stop stops the app, the watcher and the HTTP server.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.watcher.Stop()
	s.compiler.Stop()
	if s.reload != nil {
		s.reload.Close()
	}
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(ctx)
	}
}

// processChanges serializes change handling and coalesces bursts.
func (s *Supervisor) processChanges(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case changes := <-s.changeCh:
			for draining := true; draining; {
				select {
				case more := <-s.changeCh:
					changes = append(changes, more...)
				default:
					draining = false
				}
			}
			s.handleChanges(ctx, changes)
		}
	}
}

func (s *Supervisor) handleChanges(ctx context.Context, changes []Change) {
	var goChanges, routeFiles []string
	var css string
	for _, c := range changes {
		s.logger.Debug("changed", "path", c.Path, "type", c.Type.String())
		switch c.Type {
		case ChangeGo:
			goChanges = append(goChanges, c.Path)
			if split.IsRouteFile(s.config.Dir(), s.config.Paths.Routes, c.Path) {
				if rel, err := filepath.Rel(s.config.Dir(), c.Path); err == nil {
					routeFiles = append(routeFiles, filepath.ToSlash(rel))
				}
			}
		case ChangeCSS:
			if css == "" {
				css = c.Path
			}
		}
	}

	switch {
	case len(goChanges) > 0:
		s.handleGoChange(ctx, goChanges, routeFiles)
	case css != "":
		if s.reload != nil {
			s.reload.NotifyCSS(css)
		}
	default:
		s.notifyReload()
	}
}

func (s *Supervisor) handleGoChange(ctx context.Context, goChanges, routeFiles []string) {
	if len(routeFiles) > 0 {
		if changed, err := s.recovery.Regenerate(); err != nil {
			s.logger.Error("route scan failed", "error", err)
			s.notifyError(err.Error())
			return
		} else if changed {
			s.logger.Info("regenerated route registry")
		}
	}

	if !s.rebuild(ctx) {
		return
	}
	s.startApp(ctx)

	if s.reload == nil {
		return
	}
	// Only route modules changed: clients may update in place.
	if len(routeFiles) == len(goChanges) {
		for _, f := range routeFiles {
			s.reload.NotifyUpdate(f)
		}
		s.reload.NotifyServerModule()
		return
	}
	s.notifyReload()
}

// rebuild builds the app, retrying once after regenerating the registry
// when the failure points at it.
func (s *Supervisor) rebuild(ctx context.Context) bool {
	result := s.compiler.Build(ctx)
	if !result.Success && IsRecoverableError(result.Output) {
		if rec := s.recovery.AttemptRecovery(result.Output); rec.Recovered {
			s.logger.Info("recovered build", "action", rec.Action, "details", rec.Details)
			result = s.compiler.Build(ctx)
		}
	}
	if s.options.OnBuildComplete != nil {
		s.options.OnBuildComplete(result)
	}
	if !result.Success {
		s.logger.Error("build failed", "error", errors.Summary(result.Error), "output", result.Output)
		s.notifyError(result.Output)
		return false
	}
	s.logger.Info("built", "duration", result.Duration.Round(time.Millisecond))
	if s.reload != nil {
		s.reload.ClearError()
	}
	return true
}

func (s *Supervisor) startApp(ctx context.Context) {
	err := s.compiler.Start(ctx,
		"PORT="+strconv.Itoa(s.config.Dev.AppPort),
		config.EnvPrefix+"_SERVER_ADDR="+s.config.AppAddress(),
		config.EnvPrefix+"_ENV="+string(config.ModeDevelopment),
	)
	if err != nil {
		s.logger.Error("app failed to start", "error", err)
		s.notifyError(err.Error())
	}
}

func (s *Supervisor) notifyReload() {
	if s.reload == nil {
		return
	}
	s.reload.NotifyReload()
	if s.options.OnReload != nil {
		s.options.OnReload(s.reload.ClientCount())
	}
}

func (s *Supervisor) notifyError(msg string) {
	if s.reload != nil {
		s.reload.NotifyError(msg)
	}
}

func (s *Supervisor) newProxy() *httputil.ReverseProxy {
	target := &url.URL{Scheme: "http", Host: s.config.AppAddress()}
	proxy := httputil.NewSingleHostReverseProxy(target)

	director := proxy.Director
	proxy.Director = func(r *http.Request) {
		director(r)
		// Injection needs an uncompressed body.
		r.Header.Del("Accept-Encoding")
	}
	proxy.ModifyResponse = func(resp *http.Response) error {
		if s.reload == nil || !strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
			return nil
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		resp.Body.Close()

		body = InjectClientScript(body)
		resp.Body = io.NopCloser(bytes.NewReader(body))
		resp.ContentLength = int64(len(body))
		resp.Header.Set("Content-Length", strconv.Itoa(len(body)))
		return nil
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		s.logger.Debug("app not reachable", "error", err)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusBadGateway)
		script := ""
		if s.reload != nil {
			script = DevClientScript
		}
		fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>remastered dev</title></head>
<body style="font-family: system-ui; padding: 40px; background: #1a1a1a; color: #fff;">
<h1 style="color: #ff5555;">Application not running</h1>
<p>The app is starting, failed to build, or crashed. Check the terminal.</p>
<p style="color: #888;">This page reloads when the app is ready.</p>
%s
</body>
</html>`, script)
	}
	return proxy
}

// InjectClientScript inserts the hot reload client before </body>, then
// </html>, else at the end.
func InjectClientScript(body []byte) []byte {
	for _, marker := range [][]byte{[]byte("</body>"), []byte("</html>")} {
		if idx := bytes.LastIndex(body, marker); idx != -1 {
			out := make([]byte, 0, len(body)+len(DevClientScript))
			out = append(out, body[:idx]...)
			out = append(out, DevClientScript...)
			return append(out, body[idx:]...)
		}
	}
	return append(body, DevClientScript...)
}
