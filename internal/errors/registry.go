package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

var registry = map[string]ErrorTemplate{
	// ============================================
	// Route Errors (R100-R109)
	// ============================================

	"R100": {
		Category: CategoryRoute,
		Message:  "Duplicate route",
		Detail:   "Two route files resolve to the same URL segments. Rename or remove one of them.",
		DocURL:   "https://remastered.dev/docs/errors/R100",
	},
	"R101": {
		Category: CategoryRoute,
		Message:  "Ambiguous dynamic segments",
		Detail:   "A directory may contain at most one dynamic or catch-all segment at the same level.",
		DocURL:   "https://remastered.dev/docs/errors/R101",
	},
	"R102": {
		Category: CategoryRoute,
		Message:  "Dynamic segment collides with static text",
		Detail:   "A path segment must be either fully static or fully dynamic.",
		DocURL:   "https://remastered.dev/docs/errors/R102",
	},
	"R103": {
		Category: CategoryRoute,
		Message:  "Ambiguous route export",
		Detail:   "A route file exports more than one binding for the same role.",
		DocURL:   "https://remastered.dev/docs/errors/R103",
	},
	"R104": {
		Category: CategoryRoute,
		Message:  "Route file name cannot be built",
		Detail:   "Route files are compiled as Go. Use letters, digits and hyphens, with slug_ for a parameter and path__ for a catch-all.",
		DocURL:   "https://remastered.dev/docs/errors/R104",
	},

	// ============================================
	// Build Errors (R110-R129)
	// ============================================

	"R110": {
		Category: CategoryBuild,
		Message:  "Route module could not be parsed",
		Detail:   "The route file has a syntax error. Route modules are parsed without being executed.",
		DocURL:   "https://remastered.dev/docs/errors/R110",
	},
	"R111": {
		Category: CategoryBuild,
		Message:  "Route registry generation failed",
		Detail:   "The generated route registry could not be formatted or written.",
		DocURL:   "https://remastered.dev/docs/errors/R111",
	},
	"R120": {
		Category: CategoryBuild,
		Message:  "Go build failed",
		Detail:   "The Go compiler reported errors while building the app.",
		DocURL:   "https://remastered.dev/docs/errors/R120",
	},
	"R121": {
		Category: CategoryBuild,
		Message:  "Client bundle failed",
		Detail:   "The client bootstrap could not be bundled.",
		DocURL:   "https://remastered.dev/docs/errors/R121",
	},

	// ============================================
	// Render Errors (R130-R149)
	// ============================================

	"R130": {
		Category: CategoryRender,
		Message:  "Production build artifact not found",
		Detail:   "The server entry or a render manifest is missing. Run `remastered build` before serving in production.",
		DocURL:   "https://remastered.dev/docs/errors/R130",
	},
	"R131": {
		Category: CategoryRender,
		Message:  "Invalid render manifest",
		Detail:   "A manifest file exists but is not valid JSON of the expected shape.",
		DocURL:   "https://remastered.dev/docs/errors/R131",
	},
	"R132": {
		Category: CategoryRender,
		Message:  "Invalid server entry",
		Detail:   "The server entry plugin does not export an Entry symbol of the expected type.",
		DocURL:   "https://remastered.dev/docs/errors/R132",
	},
	"R140": {
		Category: CategoryRender,
		Message:  "Route module not compiled",
		Detail:   "The route file exists on disk but is not part of the compiled route registry. Regenerate routes_gen.go and restart.",
		DocURL:   "https://remastered.dev/docs/errors/R140",
	},

	// ============================================
	// Config Errors (R150-R159)
	// ============================================

	"R150": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration file could not be read or decoded.",
		DocURL:   "https://remastered.dev/docs/errors/R150",
	},
	"R151": {
		Category: CategoryConfig,
		Message:  "Project root already set",
		Detail:   "The project root is write-once per process and was already set to a different directory.",
		DocURL:   "https://remastered.dev/docs/errors/R151",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
