package fetch

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderCaseInsensitive(t *testing.T) {
	h := make(Header)
	h.Set("Content-Type", "text/html")
	h.Set("CONTENT-TYPE", "text/plain")
	h.Add("Set-Cookie", "a=1")
	h.Add("set-cookie", "b=2")

	assert.Equal(t, "text/plain", h.Get("content-type"))
	assert.Equal(t, []string{"a=1", "b=2"}, h.Values("Set-Cookie"))
	assert.True(t, h.Has("SET-COOKIE"))
	assert.Equal(t, []string{"content-type", "set-cookie"}, h.Keys())

	h.Del("Set-Cookie")
	assert.False(t, h.Has("set-cookie"))
}

func TestNewRequestDropsBodyForGet(t *testing.T) {
	req, err := NewRequest("get", "http://localhost/users?x=1", strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "GET", req.Method)
	assert.Nil(t, req.Body)
	assert.Equal(t, "/users", req.URL.Path)

	req, err = NewRequest("post", "http://localhost/users", strings.NewReader("name=Ada"))
	require.NoError(t, err)
	assert.Equal(t, "POST", req.Method)
	body, err := req.Text()
	require.NoError(t, err)
	assert.Equal(t, "name=Ada", body)

	again, err := req.Text()
	require.NoError(t, err)
	assert.Equal(t, "name=Ada", again)
}

func TestRequestForm(t *testing.T) {
	req, err := NewRequest("POST", "http://localhost/users", strings.NewReader("name=Ada+Lovelace"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	form, err := req.Form()
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", form.Get("name"))

	req.Header.Set("Content-Type", "application/json")
	_, err = req.Form()
	assert.Error(t, err)
}

func TestFromHTTP(t *testing.T) {
	r := httptest.NewRequest("post", "http://example.com/docs/a%2Fb?q=1", strings.NewReader("raw body"))
	r.Header.Add("X-Multi", "one")
	r.Header.Add("X-Multi", "two")
	r.Header.Set("X-Debug", "")

	req := FromHTTP(r)
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "example.com", req.URL.Host)
	assert.Equal(t, "q=1", req.URL.RawQuery)
	assert.Equal(t, "one, two", req.Header.Get("x-multi"))
	assert.True(t, req.Header.Has("x-debug"))

	body, err := req.Text()
	require.NoError(t, err)
	assert.Equal(t, "raw body", body)

	get := FromHTTP(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Nil(t, get.Body)
}

func TestResponseWriteTo(t *testing.T) {
	resp := Redirect("/users")
	resp.Header.Add("set-cookie", "a=1")
	resp.Header.Add("set-cookie", "b=2")

	rec := httptest.NewRecorder()
	require.NoError(t, resp.WriteTo(rec))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/users", rec.Header().Get("Location"))
	assert.Equal(t, []string{"a=1", "b=2"}, rec.Header().Values("Set-Cookie"))

	rec = httptest.NewRecorder()
	stream := &Response{Status: 201, Header: NewHeader("content-type", "text/plain"), Stream: strings.NewReader("streamed")}
	require.NoError(t, stream.WriteTo(rec))
	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, "streamed", rec.Body.String())
}

func TestResponseBytesDrainsStream(t *testing.T) {
	resp := &Response{Status: 200, Header: make(Header), Stream: strings.NewReader("hello")}
	b, err := resp.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
	assert.Nil(t, resp.Stream)
	assert.Equal(t, "hello", string(resp.Body))
}

func TestConstructors(t *testing.T) {
	assert.Equal(t, 307, Redirect("/x", 307).Status)
	assert.Equal(t, "text/plain; charset=utf-8", Text(500, "boom").Header.Get("Content-Type"))

	j, err := JSON(200, map[string]int{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(j.Body))
}

func TestFromHTTPResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.Header().Add("Set-Cookie", "a=1")
	rec.Header().Add("Set-Cookie", "b=2")
	rec.WriteHeader(http.StatusCreated)
	_, _ = rec.WriteString("made")

	resp, err := FromHTTPResponse(rec.Result())
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, []string{"a=1", "b=2"}, resp.Header.Values("set-cookie"))
	assert.Equal(t, "made", string(resp.Body))
}
