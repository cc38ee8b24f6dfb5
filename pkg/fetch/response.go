package fetch

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Response is a host-independent HTTP response. When Stream is set it takes
// precedence over Body.
type Response struct {
	Status int
	Header Header
	Body   []byte
	Stream io.Reader
}

// NewResponse creates a response with the given status and body.
func NewResponse(status int, body []byte, header Header) *Response {
	if header == nil {
		header = make(Header)
	}
	return &Response{Status: status, Header: header, Body: body}
}

// Text creates a text/plain response.
func Text(status int, body string) *Response {
	return NewResponse(status, []byte(body), NewHeader("content-type", "text/plain; charset=utf-8"))
}

// HTML creates a text/html response.
func HTML(status int, body []byte) *Response {
	return NewResponse(status, body, NewHeader("content-type", "text/html; charset=utf-8"))
}

// JSON encodes v as an application/json response.
func JSON(status int, v any) (*Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("fetch: encode json: %w", err)
	}
	return NewResponse(status, data, NewHeader("content-type", "application/json")), nil
}

// Redirect creates a redirect to location. A zero status means 302.
func Redirect(location string, status ...int) *Response {
	code := http.StatusFound
	if len(status) > 0 && status[0] != 0 {
		code = status[0]
	}
	return NewResponse(code, nil, NewHeader("location", location))
}

// Bytes returns the full body, draining Stream if present.
func (r *Response) Bytes() ([]byte, error) {
	if r.Stream == nil {
		return r.Body, nil
	}
	data, err := io.ReadAll(r.Stream)
	if c, ok := r.Stream.(io.Closer); ok {
		c.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("fetch: read response stream: %w", err)
	}
	r.Stream = nil
	r.Body = data
	return data, nil
}
