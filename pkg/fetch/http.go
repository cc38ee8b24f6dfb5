package fetch

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// FromHTTP converts a net/http request. Headers are copied verbatim with
// repeated fields joined by ", ". The body is passed through unparsed.
func FromHTTP(r *http.Request) *Request {
	u := &url.URL{
		Scheme:   "http",
		Host:     r.Host,
		Path:     r.URL.Path,
		RawPath:  r.URL.RawPath,
		RawQuery: r.URL.RawQuery,
	}
	if r.TLS != nil {
		u.Scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		u.Scheme = proto
	}

	req := &Request{
		Method: strings.ToUpper(r.Method),
		URL:    u,
		Header: make(Header, len(r.Header)),
	}
	for name, values := range r.Header {
		req.Header.Set(name, strings.Join(values, ", "))
	}
	if r.Host != "" && !req.Header.Has("host") {
		req.Header.Set("host", r.Host)
	}
	if HasBody(req.Method) && r.Body != nil && r.Body != http.NoBody {
		req.Body = r.Body
	}
	return req
}

// WriteTo writes status, headers and body to w.
func (r *Response) WriteTo(w http.ResponseWriter) error {
	dst := w.Header()
	for name, values := range r.Header {
		canonical := http.CanonicalHeaderKey(name)
		dst.Del(canonical)
		for _, v := range values {
			dst.Add(canonical, v)
		}
	}

	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if r.Stream != nil {
		if c, ok := r.Stream.(io.Closer); ok {
			defer c.Close()
		}
		if _, err := io.Copy(w, r.Stream); err != nil {
			return fmt.Errorf("fetch: stream response: %w", err)
		}
		return nil
	}
	if len(r.Body) > 0 {
		if _, err := w.Write(r.Body); err != nil {
			return fmt.Errorf("fetch: write response: %w", err)
		}
	}
	return nil
}

// FromHTTPResponse reads a net/http response into a Response and closes
// its body.
func FromHTTPResponse(resp *http.Response) (*Response, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch: read response: %w", err)
	}
	h := make(Header, len(resp.Header))
	for name, values := range resp.Header {
		for _, v := range values {
			h.Add(name, v)
		}
	}
	return NewResponse(resp.StatusCode, body, h), nil
}
