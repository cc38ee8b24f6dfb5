package fetch

import (
	"net/http"
	"sort"
	"strings"
)

// Header is a case-insensitive multimap of header fields.
type Header map[string][]string

// NewHeader builds a Header from name/value pairs.
func NewHeader(pairs ...string) Header {
	h := make(Header, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		h.Add(pairs[i], pairs[i+1])
	}
	return h
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Get returns the first value for name, or "".
func (h Header) Get(name string) string {
	if v := h[key(name)]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Values returns every value for name.
func (h Header) Values(name string) []string {
	return h[key(name)]
}

// Has reports whether name is present, even with an empty value.
func (h Header) Has(name string) bool {
	_, ok := h[key(name)]
	return ok
}

// Set replaces all values for name.
func (h Header) Set(name, value string) {
	h[key(name)] = []string{value}
}

// Add appends a value for name.
func (h Header) Add(name, value string) {
	k := key(name)
	h[k] = append(h[k], value)
}

// Del removes name.
func (h Header) Del(name string) {
	delete(h, key(name))
}

// Keys returns the header names in sorted order.
func (h Header) Keys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy.
func (h Header) Clone() Header {
	out := make(Header, len(h))
	for k, v := range h {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Merge sets every field of other on h, replacing existing values.
func (h Header) Merge(other Header) {
	for k, v := range other {
		h[k] = append([]string(nil), v...)
	}
}

// HTTP converts to a net/http header, canonicalizing names.
func (h Header) HTTP() http.Header {
	out := make(http.Header, len(h))
	for k, v := range h {
		out[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
	}
	return out
}
