package fetch

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/url"
	"strings"
)

// Request is a host-independent HTTP request.
type Request struct {
	// Method is always upper-case.
	Method string
	URL    *url.URL
	Header Header

	// Body is nil for GET and HEAD requests.
	Body io.ReadCloser

	read []byte
	done bool
}

// NewRequest creates a request. The body is dropped for GET and HEAD.
func NewRequest(method, rawURL string, body io.Reader) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: parse url %q: %w", rawURL, err)
	}
	req := &Request{
		Method: strings.ToUpper(method),
		URL:    u,
		Header: make(Header),
	}
	if body != nil && HasBody(req.Method) {
		rc, ok := body.(io.ReadCloser)
		if !ok {
			rc = io.NopCloser(body)
		}
		req.Body = rc
	}
	return req, nil
}

// HasBody reports whether requests with method may carry a body.
func HasBody(method string) bool {
	switch strings.ToUpper(method) {
	case "GET", "HEAD":
		return false
	}
	return true
}

// Bytes reads the whole body. Later calls return the same bytes.
func (r *Request) Bytes() ([]byte, error) {
	if r.done {
		return r.read, nil
	}
	r.done = true
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch: read body: %w", err)
	}
	r.read = data
	r.Body = io.NopCloser(bytes.NewReader(data))
	return data, nil
}

// Text reads the whole body as a string.
func (r *Request) Text() (string, error) {
	b, err := r.Bytes()
	return string(b), err
}

// Form parses an application/x-www-form-urlencoded body.
func (r *Request) Form() (url.Values, error) {
	ct := r.Header.Get("content-type")
	if ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return nil, fmt.Errorf("fetch: content-type: %w", err)
		}
		if mt != "application/x-www-form-urlencoded" {
			return nil, fmt.Errorf("fetch: unsupported form content-type %q", mt)
		}
	}
	body, err := r.Text()
	if err != nil {
		return nil, err
	}
	return url.ParseQuery(body)
}
