// Package dev implements development mode.
//
// Two pieces live here. Service is the in-process compile service behind
// entry.DevCompiler: it scans the route files, keeps the current route
// tree behind an atomic pointer, rebuilds it when files change and hands
// out a fresh server entry on every request.
//
// Supervisor drives `remastered dev`. It watches the project with
// fsnotify, regenerates routes_gen.go when route files change, rebuilds
// and restarts the app binary, proxies HTTP to it and pushes reload
// messages to browsers over a WebSocket.
//
// # Hot Reload Protocol
//
// The browser connects to /_remastered/hmr. Messages are JSON:
//
//	{"type": "reload"}                                   // full page reload
//	{"type": "css", "file": "..."}                       // stylesheet refresh
//	{"type": "update", "file": "app/routes/index.go"}    // self-accepting module changed
//	{"type": "remastered:server-module-updated"}         // server code changed
//	{"type": "error", "error": "..."}                    // show the error overlay
//	{"type": "clear"}                                    // hide the error overlay
package dev
