package dev

import (
	"regexp"
	"sort"
	"strings"

	"github.com/remastered-go/remastered/internal/build/codegen"
	"github.com/remastered-go/remastered/pkg/route"
)

var (
	undefinedInRegistry = regexp.MustCompile(regexp.QuoteMeta(route.GeneratedFile) + `:\d+(?::\d+)?:\s*undefined:\s*([\w.]+)`)
	missingRoutePackage = regexp.MustCompile(`(?:could not import|no required module provides package|package)\s+(\S+/routes/\S*)`)
)

// ErrorRecovery regenerates the route registry when a build fails because
// routes_gen.go went stale: a binding was renamed or a route package was
// deleted.
type ErrorRecovery struct {
	projectDir string
	routesDir  string
	modulePath string
}

// NewErrorRecovery creates a new error recovery handler.
func NewErrorRecovery(projectDir, routesDir, modulePath string) *ErrorRecovery {
	return &ErrorRecovery{projectDir: projectDir, routesDir: routesDir, modulePath: modulePath}
}

// RecoveryResult contains the result of an attempted recovery.
type RecoveryResult struct {
	Recovered bool
	Action    string
	Details   string
}

// AttemptRecovery regenerates routes_gen.go when buildOutput points at it.
// Recovered means the build should be retried.
func (r *ErrorRecovery) AttemptRecovery(buildOutput string) RecoveryResult {
	var reasons []string
	if syms := matches(undefinedInRegistry, buildOutput); len(syms) > 0 {
		reasons = append(reasons, "fixed undefined symbols: "+strings.Join(syms, ", "))
	}
	if pkgs := matches(missingRoutePackage, buildOutput); len(pkgs) > 0 {
		reasons = append(reasons, "removed deleted packages: "+strings.Join(pkgs, ", "))
	}
	if len(reasons) == 0 {
		return RecoveryResult{}
	}

	if _, err := r.Regenerate(); err != nil {
		return RecoveryResult{Details: "failed to regenerate routes: " + err.Error()}
	}
	return RecoveryResult{
		Recovered: true,
		Action:    "regenerated " + route.GeneratedFile,
		Details:   strings.Join(reasons, "; "),
	}
}

// Regenerate scans the routes and rewrites the registry if it changed.
func (r *ErrorRecovery) Regenerate() (bool, error) {
	files, err := route.NewScanner(r.projectDir, r.routesDir).Files()
	if err != nil {
		return false, err
	}
	return codegen.Write(r.projectDir, codegen.Options{
		ModulePath: r.modulePath,
		RoutesDir:  r.routesDir,
		Files:      files,
	})
}

// IsRecoverableError checks if a build error might be recoverable.
func IsRecoverableError(buildOutput string) bool {
	return undefinedInRegistry.MatchString(buildOutput) || missingRoutePackage.MatchString(buildOutput)
}

func matches(re *regexp.Regexp, s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		if len(m) > 1 && !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	sort.Strings(out)
	return out
}
