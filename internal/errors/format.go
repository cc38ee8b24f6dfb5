package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// sgr holds the escape sequences used in terminal reports.
type sgr string

const (
	sgrReset sgr = "\033[0m"
	sgrError sgr = "\033[1;31m"
	sgrCode  sgr = "\033[1;37m"
	sgrPath  sgr = "\033[36m"
	sgrDim   sgr = "\033[90m"
	sgrLink  sgr = "\033[34m"
)

var colorEnabled = true

// DisableColors turns ANSI escapes off in Format and PrintError.
func DisableColors() { colorEnabled = false }

// EnableColors turns ANSI escapes back on.
func EnableColors() { colorEnabled = true }

func paint(s sgr, text string) string {
	if !colorEnabled || text == "" {
		return text
	}
	return string(s) + text + string(sgrReset)
}

// Format renders the error as a multi-line terminal report: the coded
// header, the source excerpt around Location, then the detail, cause,
// hint and documentation link.
func (e *Error) Format() string {
	var b strings.Builder
	b.WriteString("\n")
	e.writeHeader(&b)
	e.writeSource(&b)
	if e.Detail != "" {
		for _, line := range wrapText(e.Detail, 70) {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		b.WriteString("\n")
	}
	if e.Wrapped != nil {
		fmt.Fprintf(&b, "  %s%s\n\n", paint(sgrDim, "Cause: "), e.Wrapped.Error())
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s%s\n\n", paint(sgrPath, "Hint: "), e.Suggestion)
	}
	if e.DocURL != "" {
		fmt.Fprintf(&b, "  %s%s\n", paint(sgrDim, "Learn more: "), paint(sgrLink, e.DocURL))
	}
	return b.String()
}

func (e *Error) writeHeader(w io.Writer) {
	label := "ERROR: "
	code := ""
	if e.Code != "" {
		label = "ERROR "
		code = paint(sgrCode, e.Code+": ")
	}
	fmt.Fprintf(w, "%s%s%s\n\n", paint(sgrError, label), code, e.Message)
}

// writeSource prints Location and the Context lines centered on it, with
// an arrow on the failing line and a caret under the column.
func (e *Error) writeSource(w io.Writer) {
	if e.Location == nil {
		return
	}
	fmt.Fprintf(w, "  %s\n\n", paint(sgrPath, e.Location.String()))
	if len(e.Context) == 0 {
		return
	}
	first := e.Location.Line - len(e.Context)/2
	bar := paint(sgrDim, " │ ")
	for i, text := range e.Context {
		n := first + i
		if n != e.Location.Line {
			fmt.Fprintf(w, "    %4d%s%s\n", n, bar, text)
			continue
		}
		fmt.Fprintf(w, "  %s%4d%s%s\n", paint(sgrError, "→ "), n, bar, text)
		if col := e.Location.Column; col > 0 {
			fmt.Fprintf(w, "       %s%s%s\n", paint(sgrDim, "│ "), strings.Repeat(" ", col-1), paint(sgrError, "^"))
		}
	}
	fmt.Fprintln(w)
}

// Summary returns err on one line, prefixed with its source location when
// err carries one. Log records use it in place of the full report.
func Summary(err error) string {
	if err == nil {
		return ""
	}
	var re *Error
	if !stderrors.As(err, &re) || re.Location == nil {
		return err.Error()
	}
	return re.Location.String() + ": " + re.Error()
}

// wrapText splits text into lines of at most width bytes at word
// boundaries. A single longer word gets a line of its own.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	lines := []string{words[0]}
	for _, word := range words[1:] {
		last := &lines[len(lines)-1]
		if len(*last)+1+len(word) > width {
			lines = append(lines, word)
			continue
		}
		*last += " " + word
	}
	return lines
}

// PrintError writes err to stderr, as a full report when it is coded.
func PrintError(err error) {
	var re *Error
	if stderrors.As(err, &re) {
		fmt.Fprint(os.Stderr, re.Format())
		return
	}
	fmt.Fprintf(os.Stderr, "\n%s %s\n\n", paint(sgrError, "ERROR:"), err.Error())
}
