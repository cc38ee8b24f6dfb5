package render

import "strings"

// markupEscapes neutralize characters that could open or close markup.
var markupEscapes = []string{
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
}

var (
	textReplacer = strings.NewReplacer(markupEscapes...)

	// Attribute values keep line breaks and tabs as character references.
	attrReplacer = strings.NewReplacer(append(markupEscapes,
		"\n", "&#10;",
		"\r", "&#13;",
		"\t", "&#9;",
	)...)
)

// escapeHTML escapes text content such as the document title.
func escapeHTML(s string) string { return textReplacer.Replace(s) }

// escapeAttr escapes a double-quoted attribute value.
func escapeAttr(s string) string { return attrReplacer.Replace(s) }
