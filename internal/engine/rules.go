package engine

import (
	"regexp"
	"strings"
)

// Severity classifies an issue. Strict mode promotes warnings to errors
// uniformly; non-strict mode records everything as warnings.
type Severity string

// Issue severities
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is the uniform finding shape every gate and backend emits.
type Issue struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"` // 1-based; 0 when unknown
}

// Rule is one forbidden-construct pattern the anti-pattern gate scans for.
type Rule struct {
	ID       string
	Pattern  *regexp.Regexp
	Severity Severity
	Message  string
	// AllowFn, when set, suppresses a match (used for documented
	// exceptions such as allowlisted URLs).
	AllowFn func(line string, allow []string) bool
}

// DefaultRules returns the built-in anti-pattern catalog. The order is
// stable so reports are deterministic.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:       "antipattern/fixed-wait",
			Pattern:  regexp.MustCompile(`\.waitForTimeout\s*\(|wait_for_timeout\s*\(|\bcy\.wait\s*\(\s*\d|\bsleep\s*\(\s*\d|\btime\.Sleep\s*\(`),
			Severity: SeverityError,
			Message:  "fixed-duration wait; wait on a condition instead",
		},
		{
			ID:       "antipattern/forced-interaction",
			Pattern:  regexp.MustCompile(`\{\s*force\s*:\s*true\s*\}`),
			Severity: SeverityError,
			Message:  "forced interaction bypasses actionability checks",
		},
		{
			ID:       "antipattern/network-idle-wait",
			Pattern:  regexp.MustCompile(`['"]networkidle['"]`),
			Severity: SeverityWarning,
			Message:  "broad unconditional network wait; wait for the specific response",
		},
		{
			ID:       "antipattern/hardcoded-url",
			Pattern:  regexp.MustCompile(`https?://[^\s'"` + "`" + `]+`),
			Severity: SeverityWarning,
			Message:  "hardcoded absolute URL; use the configured base URL",
			AllowFn:  urlAllowed,
		},
		{
			ID:       "antipattern/focused-or-disabled-test",
			Pattern:  regexp.MustCompile(`\b(?:test|it|describe)\s*\.\s*(?:only|skip)\s*\(|\b(?:fdescribe|fit|xdescribe|xit)\s*\(`),
			Severity: SeverityError,
			Message:  "focused or disabled test marker must not be committed",
		},
		{
			ID:       "antipattern/positional-selector",
			Pattern:  regexp.MustCompile(`:nth-child\s*\(|:nth-of-type\s*\(|xpath=|//\w+\[\d+\]`),
			Severity: SeverityWarning,
			Message:  "brittle positional selector; prefer a role or test-id selector",
		},
	}
}

// DefaultURLAllowlist holds the documented hardcoded-URL exceptions.
var DefaultURLAllowlist = []string{"localhost", "127.0.0.1", "example.com"}

func urlAllowed(line string, allow []string) bool {
	for _, host := range allow {
		if strings.Contains(line, host) {
			return true
		}
	}
	return false
}
