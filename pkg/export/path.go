package export

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/remastered-go/remastered/pkg/fetch"
)

// Key derives the storage key for a (method, URL) pair. The path is
// cleaned so ".." cannot escape the export root; a query string adds a
// short hash to the file name.
func Key(method string, u *url.URL) string {
	p := strings.Trim(path.Clean("/"+u.Path), "/")

	name := "index.json"
	if u.RawQuery != "" {
		sum := sha256.Sum256([]byte(u.RawQuery))
		name = "index." + hex.EncodeToString(sum[:8]) + ".json"
	}

	parts := []string{strings.ToUpper(method)}
	if p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, name)
	return strings.Join(parts, "/")
}

// ResponsePath returns the on-disk location of req's record under dir.
func ResponsePath(dir string, req *fetch.Request) string {
	return filepath.Join(dir, filepath.FromSlash(Key(req.Method, req.URL)))
}
