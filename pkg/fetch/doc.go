// Package fetch defines the normalized request and response values that flow
// between hosts (net/http, serverless events) and the render pipeline.
//
// Header names are case-insensitive and stored lower-cased. Neither type
// depends on a particular host, so adapters convert at the edges:
//
//	req := fetch.FromHTTP(r)
//	resp := pipeline.Serve(r.Context(), req)
//	resp.WriteTo(w)
package fetch
