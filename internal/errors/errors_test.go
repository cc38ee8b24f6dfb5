package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{"route error", "R100", "Duplicate route", CategoryRoute},
		{"build error", "R110", "Route module could not be parsed", CategoryBuild},
		{"render error", "R130", "Production build artifact not found", CategoryRender},
		{"unknown error code", "R999", "Unknown error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestError_Error(t *testing.T) {
	if got, want := New("R100").Error(), "R100: Duplicate route"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got := (&Error{Message: "plain"}).Error(); got != "plain" {
		t.Errorf("Error() = %q, want %q", got, "plain")
	}
	wrapped := New("R130").Wrap(io.EOF)
	if got, want := wrapped.Error(), "R130: Production build artifact not found: EOF"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !stderrors.Is(wrapped, io.EOF) {
		t.Error("wrapped error should match io.EOF")
	}
}

func TestWithLocation(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "index.go")
	src := "package routes\n\nfunc IndexPage() {\n\tbroken(\n}\n"
	if err := os.WriteFile(file, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	err := New("R110").WithLocation(file, 4, 2)
	if err.Location.String() != file+":4:2" {
		t.Errorf("Location = %q", err.Location.String())
	}
	if len(err.Context) == 0 {
		t.Fatal("expected context lines")
	}

	DisableColors()
	defer EnableColors()
	out := err.Format()
	if !strings.Contains(out, "→    4") {
		t.Errorf("Format() missing highlighted line:\n%s", out)
	}
}

func TestWithLocationFromError(t *testing.T) {
	err := New("R120").WithLocationFromError(stderrors.New("main.go:12:5: undefined: foo"))
	if err.Location == nil || err.Location.Line != 12 || err.Location.Column != 5 {
		t.Fatalf("Location = %+v", err.Location)
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "R120") != nil {
		t.Error("FromError(nil) should be nil")
	}
	orig := New("R100")
	if FromError(orig, "R120") != orig {
		t.Error("FromError should return an existing *Error unchanged")
	}
	if got := FromError(io.EOF, "R120"); got.Code != "R120" || got.Wrapped != io.EOF {
		t.Errorf("FromError = %+v", got)
	}
}

func TestSummary(t *testing.T) {
	located := New("R100")
	located.Location = &Location{File: "app/routes/a.go", Line: 1}

	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{io.EOF, "EOF"},
		{New("R100"), "R100: Duplicate route"},
		{located, "app/routes/a.go:1: R100: Duplicate route"},
		{fmt.Errorf("scan: %w", located), "app/routes/a.go:1: R100: Duplicate route"},
	}
	for _, tt := range tests {
		if got := Summary(tt.err); got != tt.want {
			t.Errorf("Summary(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestWrapText(t *testing.T) {
	long := strings.Repeat("a", 80)
	tests := []struct {
		text  string
		width int
		want  []string
	}{
		{"", 10, nil},
		{"one two", 10, []string{"one two"}},
		{"one two three", 7, []string{"one two", "three"}},
		{"x " + long + " y", 10, []string{"x", long, "y"}},
	}
	for _, tt := range tests {
		got := wrapText(tt.text, tt.width)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
			t.Errorf("wrapText(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestFormatPlain(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("R120").WithSuggestion("Run go vet").Wrap(io.ErrUnexpectedEOF)
	out := err.Format()
	for _, want := range []string{"ERROR R120: ", "Cause: unexpected EOF", "Hint: Run go vet"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("Format() has escapes with colors disabled:\n%s", out)
	}
}

func TestDetail(t *testing.T) {
	if got, want := Detail(stderrors.New("boom")), "*errors.errorString: boom"; got != want {
		t.Errorf("Detail() = %q, want %q", got, want)
	}

	d := Detail(New("R130").Wrap(io.EOF))
	if !strings.Contains(d, "caused by *errors.errorString: EOF") {
		t.Errorf("Detail() missing cause:\n%s", d)
	}
}

func TestFromPanic(t *testing.T) {
	var p *PanicError
	func() {
		defer func() { p = FromPanic(recover()) }()
		panic(io.ErrUnexpectedEOF)
	}()

	if p.Error() != "panic: unexpected EOF" {
		t.Errorf("Error() = %q", p.Error())
	}
	if !stderrors.Is(p, io.ErrUnexpectedEOF) {
		t.Error("panic error should unwrap to the panicked error")
	}
	if !strings.Contains(Detail(p), "goroutine") {
		t.Error("Detail() should include the stack")
	}
}

func TestGetAllCodesSorted(t *testing.T) {
	codes := GetAllCodes()
	for i := 1; i < len(codes); i++ {
		if codes[i-1] > codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
	if _, ok := GetTemplate("R140"); !ok {
		t.Error("R140 should be registered")
	}
}
