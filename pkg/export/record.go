package export

import (
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/remastered-go/remastered/pkg/fetch"
)

var (
	// ErrNotFound reports that no record is stored under a key.
	ErrNotFound = stderrors.New("export: record not found")

	// ErrCorrupt reports a stored record that cannot be decoded.
	ErrCorrupt = stderrors.New("export: corrupt record")
)

// Record is the persisted form of a response. Headers keep every value and
// their order; Body is base64 in JSON.
type Record struct {
	Status  int         `json:"status"`
	Headers [][2]string `json:"headers"`
	Body    []byte      `json:"body"`
}

// FromResponse captures resp. A streamed body is drained.
func FromResponse(resp *fetch.Response) (Record, error) {
	body, err := resp.Bytes()
	if err != nil {
		return Record{}, fmt.Errorf("export: read body: %w", err)
	}

	rec := Record{Status: resp.Status, Body: body, Headers: [][2]string{}}
	for _, k := range resp.Header.Keys() {
		for _, v := range resp.Header.Values(k) {
			rec.Headers = append(rec.Headers, [2]string{k, v})
		}
	}
	return rec, nil
}

// Response rebuilds the response.
func (r Record) Response() *fetch.Response {
	h := make(fetch.Header, len(r.Headers))
	for _, kv := range r.Headers {
		h.Add(kv[0], kv[1])
	}
	return fetch.NewResponse(r.Status, r.Body, h)
}

// Encode serializes a record.
func Encode(r Record) ([]byte, error) {
	return json.Marshal(r)
}

// Decode parses a record. Malformed input or an impossible status yields an
// error wrapping ErrCorrupt.
func Decode(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if r.Status < 100 || r.Status > 599 {
		return Record{}, fmt.Errorf("%w: status %d", ErrCorrupt, r.Status)
	}
	return r, nil
}
