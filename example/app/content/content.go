// Package content reads the documentation pages bundled with the example.
package content

import (
	"embed"
	"errors"
	"io/fs"
	"path"
	"strings"
)

//go:embed docs/*.txt
var docs embed.FS

// ErrNotFound is returned for unknown documents.
var ErrNotFound = errors.New("content: document not found")

// Doc is one documentation page. The first line of the file is its title;
// blank lines separate paragraphs.
type Doc struct {
	Slug       string
	Title      string
	Paragraphs []string
}

// ReadDoc reads docs/<slug>.txt.
func ReadDoc(slug string) (Doc, error) {
	if slug == "" || strings.ContainsAny(slug, `/\.`) {
		return Doc{}, ErrNotFound
	}
	data, err := docs.ReadFile(path.Join("docs", slug+".txt"))
	if errors.Is(err, fs.ErrNotExist) {
		return Doc{}, ErrNotFound
	}
	if err != nil {
		return Doc{}, err
	}

	title, body, _ := strings.Cut(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	doc := Doc{Slug: slug, Title: strings.TrimSpace(title)}
	for _, p := range strings.Split(body, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			doc.Paragraphs = append(doc.Paragraphs, strings.Join(strings.Fields(p), " "))
		}
	}
	return doc, nil
}

// Slugs lists the available documents in order.
func Slugs() []string {
	entries, _ := fs.ReadDir(docs, "docs")
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".txt"))
	}
	return out
}
