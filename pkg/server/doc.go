// Package server runs the request pipeline behind an HTTP listener.
//
// The router is chi. Every request gets a request id, the client address
// from proxy headers, an access log line and panic recovery. In production
// the hashed client assets are served from the build output under
// /assets/. Everything else goes to the pipeline with its body unparsed.
//
//	p, err := adapter.New(ctx, adapter.Options{RootDir: ".", Entry: app.Entry})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv := server.New(p, server.DefaultConfig())
//	log.Fatal(srv.Run())
package server
