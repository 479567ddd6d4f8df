package engine

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/journeykit/jk/internal/store"
	"github.com/journeykit/jk/internal/types"
)

// Autofix modes.
const (
	AutofixAuto = "auto"  // apply only when reported issues are fixable
	AutofixOn   = "true"  // always apply before validating
	AutofixOff  = "false" // never apply
)

// fixableRules are the issue rules the whitelisted fixes can address: a
// listed artifact missing its tag and a banned import with a sanctioned
// replacement. Everything else needs a human.
var fixableRules = map[string]bool{
	"traceability/untagged-artifact": true,
	"boundary/forbidden-import":      true,
}

// CanFix reports whether any of the issues is addressable by Autofix.
func CanFix(issues []Issue) bool {
	for _, issue := range issues {
		if fixableRules[issue.Rule] {
			return true
		}
	}
	return false
}

// Fix records one automatic edit applied to an artifact.
type Fix struct {
	Rule    string `json:"rule"`
	File    string `json:"file"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

// Autofix applies the whitelisted mechanical fixes to the journey's listed
// artifacts and writes the changed files atomically. Only three edits are
// ever made: inserting a missing journey tag, normalizing a wrong-case tag,
// and rewriting a banned import to the sanctioned wrapper. Anything that
// needs judgment stays a reported issue.
func Autofix(j *types.Journey, corpus *Corpus, opts Options) ([]Fix, error) {
	var fixes []Fix

	for _, ref := range j.Tests {
		f, ok := corpus.File(ref.Path)
		if !ok {
			continue
		}

		lines := append([]string(nil), f.Lines...)
		var fileFixes []Fix

		fileFixes = append(fileFixes, normalizeTagCase(lines, f.Rel, j.Tag())...)
		fileFixes = append(fileFixes, rewriteBannedImports(lines, f.Rel, opts)...)

		if !containsLine(lines, j.Tag()) {
			comment := tagComment(f.Rel, j.Tag())
			lines = append([]string{comment}, lines...)
			fileFixes = append(fileFixes, Fix{
				Rule:    "autofix/insert-tag",
				File:    f.Rel,
				Line:    1,
				Message: fmt.Sprintf("inserted tag comment %s", j.Tag()),
			})
		}

		if len(fileFixes) == 0 {
			continue
		}
		data := []byte(strings.Join(lines, "\n"))
		if err := store.WriteAtomic(f.Path, data); err != nil {
			return fixes, fmt.Errorf("writing %s: %w", f.Rel, err)
		}
		f.Lines = lines
		fixes = append(fixes, fileFixes...)
	}
	return fixes, nil
}

// normalizeTagCase rewrites case variants of the journey tag in place.
func normalizeTagCase(lines []string, rel, tag string) []Fix {
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(tag))
	var fixes []Fix
	for i, line := range lines {
		matches := re.FindAllString(line, -1)
		changed := false
		for _, m := range matches {
			if m != tag {
				changed = true
			}
		}
		if !changed {
			continue
		}
		lines[i] = re.ReplaceAllString(line, tag)
		fixes = append(fixes, Fix{
			Rule:    "autofix/normalize-tag",
			File:    rel,
			Line:    i + 1,
			Message: fmt.Sprintf("normalized tag case to %s", tag),
		})
	}
	return fixes
}

// rewriteBannedImports swaps banned import paths for the sanctioned wrapper
// on import lines only.
func rewriteBannedImports(lines []string, rel string, opts Options) []Fix {
	if opts.SanctionedImport == "" {
		return nil
	}
	var fixes []Fix
	for i, line := range lines {
		if !importLineRe.MatchString(line) {
			continue
		}
		for _, banned := range opts.BannedImports {
			for _, quote := range []string{"'", `"`} {
				old := quote + banned + quote
				if !strings.Contains(line, old) {
					continue
				}
				lines[i] = strings.ReplaceAll(lines[i], old, quote+opts.SanctionedImport+quote)
				fixes = append(fixes, Fix{
					Rule:    "autofix/rewrite-import",
					File:    rel,
					Line:    i + 1,
					Message: fmt.Sprintf("rewrote import %s to %s", banned, opts.SanctionedImport),
				})
			}
		}
	}
	return fixes
}

func containsLine(lines []string, s string) bool {
	for _, line := range lines {
		if strings.Contains(line, s) {
			return true
		}
	}
	return false
}

// tagComment renders the tag in the comment style of the artifact's language.
func tagComment(rel, tag string) string {
	switch path.Ext(rel) {
	case ".py", ".rb", ".sh", ".yaml", ".yml":
		return "# " + tag
	default:
		return "// " + tag
	}
}
