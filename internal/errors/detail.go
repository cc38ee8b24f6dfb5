package errors

import (
	stderrors "errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// PanicError is a recovered panic together with the goroutine stack at the
// point of recovery.
type PanicError struct {
	Value any
	Stack []byte
}

// FromPanic converts a recovered value into an error. Errors are wrapped so
// errors.Is and errors.As still see them.
func FromPanic(v any) *PanicError {
	return &PanicError{Value: v, Stack: debug.Stack()}
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", p.Value)
}

func (p *PanicError) Unwrap() error {
	if err, ok := p.Value.(error); ok {
		return err
	}
	return nil
}

// StackTrace returns the captured stack.
func (p *PanicError) StackTrace() string {
	return string(p.Stack)
}

// Detail renders an error with its type, every wrapped cause and, when one
// was captured, a stack trace. It is meant for debug output, not end users.
func Detail(err error) string {
	if err == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%T: %s", err, err.Error())
	for cause := stderrors.Unwrap(err); cause != nil; cause = stderrors.Unwrap(cause) {
		fmt.Fprintf(&b, "\ncaused by %T: %s", cause, cause.Error())
	}

	var st interface{ StackTrace() string }
	if stderrors.As(err, &st) {
		if s := st.StackTrace(); s != "" {
			b.WriteString("\n\n")
			b.WriteString(strings.TrimRight(s, "\n"))
		}
	}
	return b.String()
}
