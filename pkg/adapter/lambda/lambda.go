// Package lambda serves a pipeline from AWS Lambda behind API Gateway HTTP
// APIs or a function URL (payload format 2.0).
//
//	func main() {
//	    h, err := lambda.NewHandler(ctx, adapter.Options{RootDir: "/var/task", Entry: app.Entry})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    awslambda.Start(h.Handle)
//	}
package lambda

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"

	"github.com/remastered-go/remastered/pkg/adapter"
	"github.com/remastered-go/remastered/pkg/fetch"
)

// Handler converts Lambda events.
type Handler struct {
	pipeline *adapter.Pipeline
}

// NewHandler builds the pipeline.
func NewHandler(ctx context.Context, opts adapter.Options) (*Handler, error) {
	p, err := adapter.New(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Handler{pipeline: p}, nil
}

// Handle serves one event. Errors are only returned for malformed events;
// render failures are 500 responses.
func (h *Handler) Handle(ctx context.Context, ev events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	req, err := Request(ev)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	resp := h.pipeline.Serve(ctx, req)
	return Response(resp)
}

// Request converts an API Gateway v2 event.
func Request(ev events.APIGatewayV2HTTPRequest) (*fetch.Request, error) {
	method := ev.RequestContext.HTTP.Method
	host := ev.RequestContext.DomainName
	if host == "" {
		host = ev.Headers["host"]
	}
	u := &url.URL{Scheme: "https", Host: host, Path: ev.RawPath, RawQuery: ev.RawQueryString}
	if u.Path == "" {
		u.Path = "/"
	}
	if proto := ev.Headers["x-forwarded-proto"]; proto != "" {
		u.Scheme = proto
	}

	var body io.Reader
	if ev.Body != "" {
		raw := ev.Body
		if ev.IsBase64Encoded {
			b, err := base64.StdEncoding.DecodeString(ev.Body)
			if err != nil {
				return nil, fmt.Errorf("lambda: decode body: %w", err)
			}
			raw = string(b)
		}
		body = strings.NewReader(raw)
	}

	req, err := fetch.NewRequest(method, u.String(), body)
	if err != nil {
		return nil, err
	}

	for name, value := range ev.Headers {
		req.Header.Set(name, value)
	}
	if len(ev.Cookies) > 0 {
		req.Header.Set("cookie", strings.Join(ev.Cookies, "; "))
	}
	return req, nil
}

// Response converts a response. Bodies that are not valid UTF-8 are base64
// encoded; set-cookie values go to Cookies.
func Response(resp *fetch.Response) (events.APIGatewayV2HTTPResponse, error) {
	body, err := resp.Bytes()
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}

	out := events.APIGatewayV2HTTPResponse{
		StatusCode: resp.Status,
		Headers:    make(map[string]string, len(resp.Header)),
	}
	for _, name := range resp.Header.Keys() {
		values := resp.Header.Values(name)
		if name == "set-cookie" {
			out.Cookies = append(out.Cookies, values...)
			continue
		}
		out.Headers[name] = strings.Join(values, ", ")
	}

	if utf8.Valid(body) {
		out.Body = string(body)
	} else {
		out.Body = base64.StdEncoding.EncodeToString(body)
		out.IsBase64Encoded = true
	}
	return out, nil
}
