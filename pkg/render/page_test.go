package render

import (
	"bytes"
	"strings"
	"testing"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

func TestRenderPage(t *testing.T) {
	var buf bytes.Buffer
	err := RenderPage(&buf, PageData{
		Title: "Users & friends",
		Meta: []MetaTag{
			{Name: "description", Content: `say "hi"`},
		},
		Links: []LinkTag{
			{Rel: "modulepreload", Href: "/assets/app.js"},
		},
		Scripts: []ScriptTag{
			{Src: "/assets/entry.client.js", Module: true},
			{Src: "/assets/analytics.js", Defer: true},
		},
		Body: h.Main(g.Text("hello")),
	})
	if err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}

	html := buf.String()
	checks := []string{
		"<!DOCTYPE html>",
		`<html lang="en">`,
		"<title>Users &amp; friends</title>",
		`<meta name="description" content="say &quot;hi&quot;">`,
		`<link rel="modulepreload" href="/assets/app.js">`,
		"<main>hello</main>",
		`<script src="/assets/entry.client.js" type="module"></script>`,
	}
	for _, want := range checks {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q\n%s", want, html)
		}
	}

	head := html[:strings.Index(html, "</head>")]
	if !strings.Contains(head, "analytics.js") {
		t.Error("deferred script should be in head")
	}
	if strings.Contains(head, "entry.client.js") {
		t.Error("module script should be at the end of body")
	}
}

func TestRenderPageNoScripts(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderPage(&buf, PageData{Lang: "fr", Body: g.Text("x")}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "<script") {
		t.Errorf("unexpected script tag:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), `<html lang="fr">`) {
		t.Error("lang not applied")
	}
}

func TestRenderPageState(t *testing.T) {
	var buf bytes.Buffer
	err := RenderPage(&buf, PageData{State: map[string]string{"x": "</script>"}})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), `"</script>"`) {
		t.Error("state must not close the script element")
	}
	if !strings.Contains(buf.String(), `id="`+StateElementID+`"`) {
		t.Error("state element missing")
	}
}
