package dev

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

// HMRPath is where browsers connect for hot reload messages.
const HMRPath = "/_remastered/hmr"

// ReloadMessageType represents the type of reload message.
type ReloadMessageType string

const (
	ReloadTypeFull   ReloadMessageType = "reload"
	ReloadTypeCSS    ReloadMessageType = "css"
	ReloadTypeUpdate ReloadMessageType = "update"
	ReloadTypeServer ReloadMessageType = "remastered:server-module-updated"
	ReloadTypeError  ReloadMessageType = "error"
	ReloadTypeClear  ReloadMessageType = "clear"
)

// ReloadMessage is sent to browsers via WebSocket.
type ReloadMessage struct {
	Type  ReloadMessageType `json:"type"`
	Error string            `json:"error,omitempty"`
	File  string            `json:"file,omitempty"`
}

// ReloadServer fans reload messages out to connected browsers.
type ReloadServer struct {
	clients  map[*websocket.Conn]*sync.Mutex
	mu       sync.RWMutex
	upgrader websocket.Upgrader
}

// NewReloadServer creates a new reload server.
func NewReloadServer() *ReloadServer {
	return &ReloadServer{
		clients: make(map[*websocket.Conn]*sync.Mutex),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     sameOrigin,
		},
	}
}

// sameOrigin accepts requests without an Origin header and those whose
// origin host matches the request host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || r.Host == "" {
		return false
	}
	return u.Host == r.Host
}

// ServeHTTP upgrades the connection and holds it until the client leaves.
func (r *ReloadServer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	r.mu.Lock()
	r.clients[conn] = &sync.Mutex{}
	r.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	r.drop(conn)
}

// NotifyReload sends a full page reload message to all clients.
func (r *ReloadServer) NotifyReload() {
	r.Broadcast(ReloadMessage{Type: ReloadTypeFull})
}

// NotifyCSS sends a stylesheet refresh to all clients.
func (r *ReloadServer) NotifyCSS(file string) {
	r.Broadcast(ReloadMessage{Type: ReloadTypeCSS, File: file})
}

// NotifyUpdate tells clients a self-accepting module changed.
func (r *ReloadServer) NotifyUpdate(file string) {
	r.Broadcast(ReloadMessage{Type: ReloadTypeUpdate, File: file})
}

// NotifyServerModule tells clients server code changed and loader data
// should be refetched.
func (r *ReloadServer) NotifyServerModule() {
	r.Broadcast(ReloadMessage{Type: ReloadTypeServer})
}

// NotifyError sends an error message to all clients.
func (r *ReloadServer) NotifyError(errMsg string) {
	r.Broadcast(ReloadMessage{Type: ReloadTypeError, Error: errMsg})
}

// ClearError clears the error overlay on all clients.
func (r *ReloadServer) ClearError() {
	r.Broadcast(ReloadMessage{Type: ReloadTypeClear})
}

// Broadcast sends msg to every client. Clients that fail to receive it are
// dropped.
func (r *ReloadServer) Broadcast(msg ReloadMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	r.mu.RLock()
	type client struct {
		conn *websocket.Conn
		mu   *sync.Mutex
	}
	clients := make([]client, 0, len(r.clients))
	for conn, mu := range r.clients {
		clients = append(clients, client{conn, mu})
	}
	r.mu.RUnlock()

	for _, c := range clients {
		c.mu.Lock()
		err := c.conn.WriteMessage(websocket.TextMessage, data)
		c.mu.Unlock()
		if err != nil {
			r.drop(c.conn)
		}
	}
}

func (r *ReloadServer) drop(conn *websocket.Conn) {
	r.mu.Lock()
	delete(r.clients, conn)
	r.mu.Unlock()
	conn.Close()
}

// ClientCount returns the number of connected clients.
func (r *ReloadServer) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Close closes all client connections.
func (r *ReloadServer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for conn := range r.clients {
		conn.Close()
		delete(r.clients, conn)
	}
}

// DevClientScript is injected into HTML pages served by the dev proxy.
// Modules that called hmr.AcceptSelf register through
// window.__remastered_hmr and are re-imported in place; everything else
// falls back to a full reload.
const DevClientScript = `
<script>
(function() {
    'use strict';

    var accepted = {};
    window.__remastered_hmr = {
        accept: function(file) { accepted[file] = true; }
    };

    function isAccepted(file) {
        for (var k in accepted) {
            if (k === file || k.slice(-file.length - 1) === '/' + file) {
                return true;
            }
        }
        return false;
    }

    var reconnectDelay = 1000;
    var maxReconnectDelay = 30000;

    function connect() {
        var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
        var ws = new WebSocket(protocol + '//' + location.host + '` + HMRPath + `');

        ws.onopen = function() {
            console.log('[remastered] hot reload connected');
            reconnectDelay = 1000;
            clearErrorOverlay();
        };

        ws.onmessage = function(e) {
            var msg;
            try {
                msg = JSON.parse(e.data);
            } catch (err) {
                return;
            }

            switch (msg.type) {
                case 'reload':
                    location.reload();
                    break;
                case 'css':
                    reloadCSS();
                    break;
                case 'update':
                    if (!isAccepted(msg.file)) {
                        location.reload();
                        return;
                    }
                    document.dispatchEvent(new CustomEvent('remastered:module-updated', {detail: msg}));
                    break;
                case 'remastered:server-module-updated':
                    document.dispatchEvent(new CustomEvent(msg.type));
                    break;
                case 'error':
                    console.error('[remastered] build error:', msg.error);
                    showErrorOverlay(msg.error);
                    break;
                case 'clear':
                    clearErrorOverlay();
                    break;
            }
        };

        ws.onclose = function() {
            setTimeout(function() {
                reconnectDelay = Math.min(reconnectDelay * 2, maxReconnectDelay);
                connect();
            }, reconnectDelay);
        };

        ws.onerror = function() {
            ws.close();
        };
    }

    function reloadCSS() {
        document.querySelectorAll('link[rel="stylesheet"]').forEach(function(link) {
            var url = new URL(link.href);
            url.searchParams.set('_reload', Date.now());
            link.href = url.toString();
        });
    }

    function showErrorOverlay(error) {
        clearErrorOverlay();
        var overlay = document.createElement('div');
        overlay.id = 'remastered-error-overlay';
        overlay.style.cssText = 'position:fixed;inset:0;background:rgba(0,0,0,0.9);color:#fff;font-family:monospace;font-size:14px;padding:20px;overflow:auto;z-index:999999;';
        var pre = document.createElement('pre');
        pre.style.cssText = 'max-width:800px;margin:0 auto;white-space:pre-wrap;';
        pre.textContent = error;
        overlay.appendChild(pre);
        document.body.appendChild(overlay);
    }

    function clearErrorOverlay() {
        var overlay = document.getElementById('remastered-error-overlay');
        if (overlay) {
            overlay.remove();
        }
    }

    if (document.readyState === 'loading') {
        document.addEventListener('DOMContentLoaded', connect);
    } else {
        connect();
    }
})();
</script>
`
