package route

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError represents a route tree validation error.
type ValidationError struct {
	Type ValidationErrorType

	// Message is the human-readable error message
	Message string

	// Files are the module ids involved
	Files []string

	// Path is the conflicting URL signature
	Path string

	Details string
}

func (e ValidationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ValidationErrorType categorizes validation errors.
type ValidationErrorType string

const (
	// ErrorDuplicateRoute indicates multiple files resolve to the same segments.
	ErrorDuplicateRoute ValidationErrorType = "DUPLICATE_ROUTE"

	// ErrorAmbiguousDynamic indicates more than one dynamic or catch-all
	// segment among siblings.
	// Example: id_.go and slug_.go in the same directory
	ErrorAmbiguousDynamic ValidationErrorType = "AMBIGUOUS_DYNAMIC"

	// ErrorMixedSegment indicates a dynamic marker inside static text.
	// Example: post-id_.go
	ErrorMixedSegment ValidationErrorType = "MIXED_SEGMENT"

	// ErrorCatchAllNotLast indicates a catch-all with nested routes below it.
	ErrorCatchAllNotLast ValidationErrorType = "CATCH_ALL_NOT_LAST"

	// ErrorAmbiguousExport indicates two bindings for one role in a file.
	// Example: both Loader and UsersLoader exported from users.go
	ErrorAmbiguousExport ValidationErrorType = "AMBIGUOUS_EXPORT"

	// ErrorUnbuildableName indicates a route file or directory the go tool
	// would reject or skip.
	// Example: @slug.go, _id.go, page_js.go
	ErrorUnbuildableName ValidationErrorType = "UNBUILDABLE_NAME"
)

// Code returns the error registry code for the type.
func (t ValidationErrorType) Code() string {
	switch t {
	case ErrorDuplicateRoute:
		return "R100"
	case ErrorAmbiguousDynamic:
		return "R101"
	case ErrorMixedSegment, ErrorCatchAllNotLast:
		return "R102"
	case ErrorAmbiguousExport:
		return "R103"
	case ErrorUnbuildableName:
		return "R104"
	}
	return ""
}

// MultiValidationError wraps multiple validation errors.
type MultiValidationError struct {
	Errors []ValidationError
}

func (e *MultiValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d route validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Has reports whether any contained error is of type t.
func (e *MultiValidationError) Has(t ValidationErrorType) bool {
	for _, err := range e.Errors {
		if err.Type == t {
			return true
		}
	}
	return false
}

func newMultiError(errs []ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	sort.SliceStable(errs, func(i, j int) bool {
		if errs[i].Type != errs[j].Type {
			return errs[i].Type < errs[j].Type
		}
		return errs[i].Path < errs[j].Path
	})
	return &MultiValidationError{Errors: errs}
}

// validateSiblings checks every sibling set for ambiguous dynamic segments
// and catch-alls that have children.
func validateSiblings(n *Node, sig string) []ValidationError {
	var errs []ValidationError

	var dynamic []*Node
	for _, child := range n.Children {
		switch child.Kind() {
		case SegmentParam, SegmentCatchAll:
			dynamic = append(dynamic, child)
		}
	}
	if len(dynamic) > 1 {
		var files, segs []string
		for _, d := range dynamic {
			segs = append(segs, d.Segment)
			files = append(files, firstFiles(d)...)
		}
		errs = append(errs, ValidationError{
			Type:    ErrorAmbiguousDynamic,
			Message: fmt.Sprintf("Ambiguous dynamic segments under %s", sig),
			Path:    sig,
			Files:   files,
			Details: fmt.Sprintf("Segments: %s", strings.Join(segs, ", ")),
		})
	}

	for _, child := range n.Children {
		childSig := signature(sig, child.Segment)
		if child.Kind() == SegmentCatchAll && len(child.Children) > 0 {
			errs = append(errs, ValidationError{
				Type:    ErrorCatchAllNotLast,
				Message: fmt.Sprintf("Catch-all %s has nested routes", childSig),
				Path:    childSig,
				Files:   firstFiles(child),
			})
		}
		errs = append(errs, validateSiblings(child, childSig)...)
	}
	return errs
}

// firstFiles returns the node's own id, or the ids found below a layout-only
// node.
func firstFiles(n *Node) []string {
	if n.ID != "" {
		return []string{n.ID}
	}
	var out []string
	for _, child := range n.Children {
		out = append(out, firstFiles(child)...)
	}
	return out
}

// FormatValidationError formats a validation error for display.
//
//	ERROR R101: Ambiguous dynamic segments under /users
//	  app/routes/users/id_.go → /users
//	  app/routes/users/slug_.go → /users
func FormatValidationError(err ValidationError) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("ERROR %s: %s\n", err.Type.Code(), err.Message))

	for _, file := range err.Files {
		sb.WriteString(fmt.Sprintf("  %s → %s\n", file, err.Path))
	}

	if err.Details != "" {
		sb.WriteString(fmt.Sprintf("  Details: %s\n", err.Details))
	}

	return sb.String()
}
