//go:build !(js && wasm)

package hmr

func register(string) {}
