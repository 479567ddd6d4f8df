// Package report renders validation run outcomes and merges them back into
// the registry.
//
// A run produces three views of the same outcome: a terminal view for the
// CLI, a markdown file under <root>/reports/, and a compact summary written
// into the record's validation-status region. All three are deterministic
// given the report, so repeated rendering of one run is byte-stable.
package report

import (
	"fmt"
	"strings"

	"github.com/journeykit/jk/internal/engine"
	"github.com/journeykit/jk/internal/ui"
)

// Render returns the terminal view of a report. With styled=false the output
// is plain text suitable for pipes and files.
func Render(rep *engine.Report, styled bool) string {
	var b strings.Builder

	header := fmt.Sprintf("%s  %s", rep.JourneyID, settingsLine(rep))
	if styled {
		header = ui.RenderHeader(rep.JourneyID) + "  " + ui.RenderMuted(settingsLine(rep))
	}
	b.WriteString(header)
	b.WriteString("\n")

	nameWidth := 0
	for _, g := range rep.Gates {
		if len(g.Gate) > nameWidth {
			nameWidth = len(g.Gate)
		}
	}
	for _, g := range rep.Gates {
		icon := statusIcon(g.Status, styled)
		line := fmt.Sprintf("%s %-*s  %s", icon, nameWidth, g.Gate, g.Status)
		if n := len(g.Issues); n > 0 {
			line += fmt.Sprintf("  (%d)", n)
		}
		b.WriteString(line)
		b.WriteString("\n")
		for _, issue := range g.Issues {
			b.WriteString("    ")
			b.WriteString(issueLine(issue, styled))
			b.WriteString("\n")
		}
	}

	summary := fmt.Sprintf("%d errors, %d warnings", rep.Errors, rep.Warnings)
	verdict := "FAIL"
	if rep.Passed {
		verdict = "PASS"
	}
	if styled {
		summary = ui.RenderMuted(summary)
		if rep.Passed {
			verdict = ui.RenderPass(verdict)
		} else {
			verdict = ui.RenderFail(verdict)
		}
	}
	b.WriteString(summary)
	b.WriteString("\n")
	b.WriteString(verdict)
	b.WriteString("\n")
	return b.String()
}

// RenderMarkdown returns the report file body written under <root>/reports/.
func RenderMarkdown(rep *engine.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Validation Report: %s\n\n", rep.JourneyID)
	fmt.Fprintf(&b, "- run: %s\n", rep.RunID)
	fmt.Fprintf(&b, "- generated: %s\n", rep.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Fprintf(&b, "- backend: %s\n", rep.Backend)
	fmt.Fprintf(&b, "- settings: %s\n\n", settingsLine(rep))

	b.WriteString("| gate | status | issues |\n")
	b.WriteString("|------|--------|--------|\n")
	for _, g := range rep.Gates {
		fmt.Fprintf(&b, "| %s | %s | %d |\n", g.Gate, g.Status, len(g.Issues))
	}

	if issues := rep.AllIssues(); len(issues) > 0 {
		b.WriteString("\n## Issues\n\n")
		for _, issue := range issues {
			b.WriteString("- ")
			b.WriteString(issueLine(issue, false))
			b.WriteString("\n")
		}
	}

	verdict := "FAIL"
	if rep.Passed {
		verdict = "PASS"
	}
	fmt.Fprintf(&b, "\nResult: %s (%d errors, %d warnings)\n", verdict, rep.Errors, rep.Warnings)
	return b.String()
}

// StatusRegion returns the compact summary written into the record's
// validation-status region.
func StatusRegion(rep *engine.Report) string {
	verdict := "fail"
	if rep.Passed {
		verdict = "pass"
	}
	var gates []string
	for _, g := range rep.Gates {
		gates = append(gates, g.Gate+"="+g.Status)
	}
	lines := []string{
		"last-run: " + rep.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
		"run-id: " + rep.RunID,
		"result: " + verdict,
		fmt.Sprintf("errors: %d", rep.Errors),
		fmt.Sprintf("warnings: %d", rep.Warnings),
		"gates: " + strings.Join(gates, " "),
		"report: reports/" + rep.JourneyID + ".md",
	}
	return strings.Join(lines, "\n")
}

func settingsLine(rep *engine.Report) string {
	var parts []string
	for _, s := range rep.Settings {
		parts = append(parts, s.Key+"="+s.Value)
	}
	return strings.Join(parts, " ")
}

func statusIcon(status string, styled bool) string {
	switch status {
	case engine.StatusPass:
		if styled {
			return ui.RenderPass(ui.IconPass)
		}
		return ui.IconPass
	case engine.StatusWarn:
		if styled {
			return ui.RenderWarn(ui.IconWarn)
		}
		return ui.IconWarn
	case engine.StatusFail:
		if styled {
			return ui.RenderFail(ui.IconFail)
		}
		return ui.IconFail
	default:
		if styled {
			return ui.RenderMuted(ui.IconSkip)
		}
		return ui.IconSkip
	}
}

func issueLine(issue engine.Issue, styled bool) string {
	loc := ""
	if issue.File != "" {
		loc = issue.File
		if issue.Line > 0 {
			loc = fmt.Sprintf("%s:%d", issue.File, issue.Line)
		}
	}
	sev := string(issue.Severity)
	if styled {
		if issue.Severity == engine.SeverityError {
			sev = ui.RenderFail(sev)
		} else {
			sev = ui.RenderWarn(sev)
		}
	}
	if loc != "" {
		if styled {
			loc = ui.RenderAccent(loc)
		}
		loc += "  "
	}
	return fmt.Sprintf("%s%s [%s] %s", loc, issue.Rule, sev, issue.Message)
}
