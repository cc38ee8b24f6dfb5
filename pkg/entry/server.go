package entry

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/remastered-go/remastered/internal/errors"
	"github.com/remastered-go/remastered/pkg/fetch"
	"github.com/remastered-go/remastered/pkg/render"
	"github.com/remastered-go/remastered/pkg/route"
	"github.com/remastered-go/remastered/pkg/router"
)

// ServerOptions configures the default server entry.
type ServerOptions struct {
	// Registry holds the compiled route modules.
	Registry *route.Registry

	// Tree overrides the tree built from Registry.
	Tree *route.Tree

	// Lang is the document language. Default "en".
	Lang string

	Logger *slog.Logger
}

// Server is the default server entry. It matches the request against the
// route tree, runs the action and loaders, and renders the document.
type Server struct {
	routes  []router.Route
	modules map[string]*route.Module
	lang    string
	logger  *slog.Logger
}

// NewServer creates the default server entry.
func NewServer(opts ServerOptions) (*Server, error) {
	tree := opts.Tree
	if tree == nil {
		if opts.Registry == nil {
			return nil, fmt.Errorf("entry: a registry or tree is required")
		}
		var err error
		if tree, err = opts.Registry.Tree(); err != nil {
			return nil, err
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		routes:  router.FromTree(tree),
		modules: make(map[string]*route.Module),
		lang:    opts.Lang,
		logger:  logger.With("component", "entry"),
	}
	tree.Walk(func(n *route.Node, _ string) bool {
		if n.ID != "" && n.Module != nil {
			s.modules[n.ID] = n.Module
		}
		return true
	})
	return s, nil
}

// MustServer is like NewServer but panics on error. It suits package-level
// entry variables in generated plugin mains.
func MustServer(opts ServerOptions) *Server {
	s, err := NewServer(opts)
	if err != nil {
		panic(err)
	}
	return s
}

// Render implements Entry.
func (s *Server) Render(ctx context.Context, args Args) (*fetch.Response, error) {
	req := args.Request
	dev := args.Dev != nil

	routes := s.routes
	if dev {
		tree, err := args.Dev.Routes(ctx)
		if err != nil {
			return nil, err
		}
		routes = router.FromTree(tree)
	}

	matches := router.MatchRoutes(routes, req.URL.EscapedPath())
	if len(matches) == 0 {
		return s.notFound(req)
	}

	mods, err := s.resolve(ctx, args, matches)
	if err != nil {
		return nil, err
	}

	params := matches[len(matches)-1].Params
	dataArgs := route.DataArgs{Request: req, Params: params, Dev: dev}
	leaf := mods[len(mods)-1]

	var actionData any
	if fetch.HasBody(req.Method) {
		if leaf == nil || leaf.Action == nil {
			resp := fetch.Text(http.StatusMethodNotAllowed, "Method Not Allowed")
			resp.Header.Set("allow", "GET, HEAD")
			return resp, nil
		}
		v, err := leaf.Action(ctx, dataArgs)
		if err != nil {
			return nil, fmt.Errorf("action %s: %w", leaf.ID, err)
		}
		if resp, ok := v.(*fetch.Response); ok {
			return resp, nil
		}
		actionData = v
	}

	data, resp, err := load(ctx, mods, dataArgs)
	if err != nil {
		return nil, err
	}
	if resp != nil {
		return resp, nil
	}

	header := fetch.NewHeader("content-type", "text/html; charset=utf-8")
	meta := route.MetaDescriptor{}
	noScripts := false
	for i, m := range mods {
		if m == nil {
			continue
		}
		if m.Headers != nil {
			header.Merge(m.Headers(route.HeadersArgs{Request: req, Params: params, Data: data[i], Dev: dev}))
		}
		if m.Meta != nil {
			for k, v := range m.Meta(route.MetaArgs{Params: params, Data: data[i]}) {
				meta[k] = v
			}
		}
		if m.Handle.NoScripts {
			noScripts = true
		}
	}

	var node g.Node
	for i := len(matches) - 1; i >= 0; i-- {
		el := matches[i].Route.Element
		if mods[i] != nil && mods[i].Page != nil {
			el = mods[i].Page
		}
		var ad any
		if i == len(matches)-1 {
			ad = actionData
		}
		c := route.NewContext(req, params, data[i], ad, node)
		c.Dev = dev
		node = el(c)
	}

	page := render.PageData{Lang: s.lang, Body: node}
	applyMeta(&page, meta)
	if !noScripts {
		addAssets(&page, args, matches, params)
	}

	var buf bytes.Buffer
	if err := render.RenderPage(&buf, page); err != nil {
		return nil, err
	}

	body := buf.Bytes()
	if req.Method == http.MethodHead {
		body = nil
	}
	return fetch.NewResponse(http.StatusOK, body, header), nil
}

// resolve loads the module behind every match. Layout-only matches get nil.
func (s *Server) resolve(ctx context.Context, args Args, matches []router.Match) ([]*route.Module, error) {
	mods := make([]*route.Module, len(matches))
	for i, m := range matches {
		id := m.Route.RouteFile
		if id == "" {
			continue
		}
		if args.Dev != nil {
			mod, err := args.Dev.LoadModule(ctx, id)
			if err != nil {
				return nil, err
			}
			mods[i] = mod
			continue
		}
		mods[i] = s.modules[id]
	}
	return mods, nil
}

// load runs every loader concurrently. A loader returning a response
// short-circuits; the first one in match order wins.
func load(ctx context.Context, mods []*route.Module, args route.DataArgs) ([]any, *fetch.Response, error) {
	data := make([]any, len(mods))

	grp, gctx := errgroup.WithContext(ctx)
	for i, m := range mods {
		if m == nil || m.Loader == nil {
			continue
		}
		grp.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = errors.FromPanic(r)
				}
			}()
			v, err := m.Loader(gctx, args)
			if err != nil {
				return fmt.Errorf("loader %s: %w", m.ID, err)
			}
			data[i] = v
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, nil, err
	}

	for _, v := range data {
		if resp, ok := v.(*fetch.Response); ok {
			return nil, resp, nil
		}
	}
	return data, nil, nil
}

func applyMeta(page *render.PageData, meta route.MetaDescriptor) {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := meta[k]
		switch {
		case k == "title":
			page.Title = v
		case strings.HasPrefix(k, "og:"):
			page.Meta = append(page.Meta, render.MetaTag{Property: k, Content: v})
		default:
			page.Meta = append(page.Meta, render.MetaTag{Name: k, Content: v})
		}
	}
}

func addAssets(page *render.PageData, args Args, matches []router.Match, params route.Params) {
	var ids []string
	for _, m := range matches {
		if m.Route.RouteFile != "" {
			ids = append(ids, m.Route.RouteFile)
		}
	}

	if chunk, ok := args.ClientManifest.Entry(); ok {
		for _, imp := range chunk.Imports {
			if dep, ok := args.ClientManifest[imp]; ok {
				page.Links = append(page.Links, render.LinkTag{Rel: "modulepreload", Href: assetURL(dep.File)})
			}
		}
		for _, css := range chunk.CSS {
			page.Links = append(page.Links, render.LinkTag{Rel: "stylesheet", Href: assetURL(css)})
		}
		page.Scripts = append(page.Scripts, render.ScriptTag{Src: assetURL(chunk.File), Module: true})
		page.State = map[string]any{"routes": ids, "params": params}
	}

	for _, href := range args.Manifest.Preloads(ids...) {
		switch {
		case strings.HasSuffix(href, ".css"):
			page.Links = append(page.Links, render.LinkTag{Rel: "stylesheet", Href: href})
		case strings.HasSuffix(href, ".wasm"):
			page.Links = append(page.Links, render.LinkTag{Rel: "preload", Href: href, As: "fetch", CrossOrigin: "anonymous"})
		default:
			page.Links = append(page.Links, render.LinkTag{Rel: "modulepreload", Href: href})
		}
	}
}

func assetURL(file string) string {
	return "/" + strings.TrimPrefix(file, "/")
}

func (s *Server) notFound(req *fetch.Request) (*fetch.Response, error) {
	var buf bytes.Buffer
	err := render.RenderPage(&buf, render.PageData{
		Lang:  s.lang,
		Title: "Not Found",
		Body:  h.Main(h.H1(g.Text("404 Not Found")), h.P(g.Text(req.URL.Path))),
	})
	if err != nil {
		return nil, err
	}
	return fetch.HTML(http.StatusNotFound, buf.Bytes()), nil
}
