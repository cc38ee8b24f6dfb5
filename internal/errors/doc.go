// Package errors provides structured, actionable error messages for remastered.
//
// Errors carry a code, a category, an optional source location with the
// surrounding lines, and a hint on how to fix the problem:
//
//	err := errors.New("R110").
//	    WithLocation("app/routes/users/index.go", 12, 3).
//	    Wrap(parseErr)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR R110: Route module could not be parsed
//	//
//	//   app/routes/users/index.go:12:3
//	//   ...
//
// # Error Categories
//
//   - route: route discovery and tree validation
//   - build: splitting, code generation, compilation and bundling
//   - render: request rendering and artifact loading
//   - export: static export records
//   - config: configuration and project root
//   - cli: command line usage
//
// Codes map to a short message, a longer explanation and a documentation URL.
package errors
