// Package handler is the example app deployed as a Vercel Go function.
package handler

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/remastered-go/remastered/example/site"
	"github.com/remastered-go/remastered/pkg/adapter/vercel"
)

// Built at package initialization so missing build artifacts fail the cold
// start instead of the first request.
var function = newFunction()

func newFunction() http.HandlerFunc {
	ctx := context.Background()
	opts, err := site.Serverless(ctx, filepath.Join(".", "example"))
	if err != nil {
		panic(err)
	}
	return vercel.MustFunction(ctx, opts)
}

// Handler is invoked by the Vercel Go runtime.
func Handler(w http.ResponseWriter, r *http.Request) {
	function(w, r)
}
