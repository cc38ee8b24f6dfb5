package middleware

import (
	"context"

	"github.com/remastered-go/remastered/pkg/fetch"
)

// Handler renders a request. Implementations never return nil.
type Handler interface {
	Serve(ctx context.Context, req *fetch.Request) *fetch.Response
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req *fetch.Request) *fetch.Response

// Serve calls f.
func (f HandlerFunc) Serve(ctx context.Context, req *fetch.Request) *fetch.Response {
	return f(ctx, req)
}

// Middleware decorates a Handler.
type Middleware func(next Handler) Handler

// Chain wraps h so that mws[0] is the outermost middleware.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}
