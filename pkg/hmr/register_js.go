//go:build js && wasm

package hmr

import "syscall/js"

// GlobalName is the browser global the hot-reload client installs.
const GlobalName = "__remastered_hmr"

func register(file string) {
	client := js.Global().Get(GlobalName)
	if client.IsUndefined() || client.IsNull() {
		return
	}
	if accept := client.Get("accept"); accept.Type() == js.TypeFunction {
		accept.Invoke(file)
	}
}
