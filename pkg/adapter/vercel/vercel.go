// Package vercel exposes a pipeline as a Vercel Go function.
//
//	// api/serverless.go
//	var handler = vercel.MustFunction(context.Background(), adapter.Options{
//	    RootDir: ".",
//	    Entry:   app.Entry,
//	})
//
//	func Handler(w http.ResponseWriter, r *http.Request) { handler(w, r) }
package vercel

import (
	"context"
	"net/http"

	"github.com/remastered-go/remastered/pkg/adapter"
)

// NewFunction builds the pipeline and returns a handler with the signature
// Vercel's Go runtime invokes.
func NewFunction(ctx context.Context, opts adapter.Options) (http.HandlerFunc, error) {
	p, err := adapter.New(ctx, opts)
	if err != nil {
		return nil, err
	}
	return p.ServeHTTP, nil
}

// MustFunction is like NewFunction but panics on error, so a broken
// deployment fails at cold start.
func MustFunction(ctx context.Context, opts adapter.Options) http.HandlerFunc {
	h, err := NewFunction(ctx, opts)
	if err != nil {
		panic(err)
	}
	return h
}
