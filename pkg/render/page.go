package render

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	g "maragu.dev/gomponents"
)

// PageData contains all data needed to render a complete HTML page.
type PageData struct {
	// Body is the rendered route tree
	Body g.Node

	Title string

	Meta []MetaTag

	// Links contains link tags (stylesheets, modulepreload, favicon)
	Links []LinkTag

	Scripts []ScriptTag

	// State is serialized as JSON for the client runtime. Nil omits it.
	State any

	// Lang defaults to "en"
	Lang string
}

// StateElementID is the id of the script element carrying PageData.State.
const StateElementID = "__remastered_state"

// MetaTag represents a meta element in the document head.
type MetaTag struct {
	Name      string // name attribute
	Content   string // content attribute
	Property  string // property attribute (for OpenGraph)
	HTTPEquiv string // http-equiv attribute
}

// LinkTag represents a link element in the document head.
type LinkTag struct {
	Rel         string
	Href        string
	As          string
	Type        string
	CrossOrigin string
	Media       string
}

// ScriptTag represents a script element.
type ScriptTag struct {
	Src    string
	Type   string
	Defer  bool
	Async  bool
	Module bool   // type="module"
	Inline string // inline script content
}

// pageWriter keeps the first write error so rendering code stays linear.
type pageWriter struct {
	w   *bufio.Writer
	err error
}

func (p *pageWriter) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *pageWriter) write(s string) {
	if p.err != nil {
		return
	}
	_, p.err = p.w.WriteString(s)
}

// RenderPage renders a complete HTML document to w.
func RenderPage(w io.Writer, page PageData) error {
	lang := page.Lang
	if lang == "" {
		lang = "en"
	}

	p := &pageWriter{w: bufio.NewWriter(w)}
	p.write("<!DOCTYPE html>\n")
	p.printf(`<html lang="%s">`+"\n", escapeAttr(lang))

	renderHead(p, page)

	p.write("<body>\n")
	if page.Body != nil && p.err == nil {
		p.err = page.Body.Render(p.w)
	}
	p.write("\n")

	if page.State != nil {
		data, err := json.Marshal(page.State)
		if err != nil {
			return fmt.Errorf("render: encode page state: %w", err)
		}
		p.printf(`  <script id="%s" type="application/json">%s</script>`+"\n", StateElementID, data)
	}

	for _, script := range page.Scripts {
		if !script.Defer && !script.Async {
			renderScriptTag(p, script)
		}
	}

	p.write("</body>\n</html>\n")
	if p.err != nil {
		return p.err
	}
	return p.w.Flush()
}

func renderHead(p *pageWriter, page PageData) {
	p.write("<head>\n")
	p.write(`  <meta charset="utf-8">` + "\n")
	p.write(`  <meta name="viewport" content="width=device-width, initial-scale=1">` + "\n")

	if page.Title != "" {
		p.printf("  <title>%s</title>\n", escapeHTML(page.Title))
	}

	for _, meta := range page.Meta {
		p.write("  <meta")
		attr(p, "name", meta.Name)
		attr(p, "property", meta.Property)
		attr(p, "http-equiv", meta.HTTPEquiv)
		attr(p, "content", meta.Content)
		p.write(">\n")
	}

	for _, link := range page.Links {
		p.write("  <link")
		attr(p, "rel", link.Rel)
		attr(p, "href", link.Href)
		attr(p, "as", link.As)
		attr(p, "type", link.Type)
		attr(p, "crossorigin", link.CrossOrigin)
		attr(p, "media", link.Media)
		p.write(">\n")
	}

	for _, script := range page.Scripts {
		if script.Defer || script.Async {
			renderScriptTag(p, script)
		}
	}

	p.write("</head>\n")
}

func attr(p *pageWriter, name, value string) {
	if value != "" {
		p.printf(` %s="%s"`, name, escapeAttr(value))
	}
}

func renderScriptTag(p *pageWriter, script ScriptTag) {
	p.write("  <script")
	attr(p, "src", script.Src)
	if script.Module {
		p.write(` type="module"`)
	} else {
		attr(p, "type", script.Type)
	}
	if script.Defer {
		p.write(" defer")
	}
	if script.Async {
		p.write(" async")
	}
	p.write(">")
	p.write(script.Inline)
	p.write("</script>\n")
}
