package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"time"
)

// Backend names accepted in configuration.
const (
	BackendAuto     = "auto"
	BackendExternal = "external"
	BackendFallback = "fallback"
)

// ToolUnavailableError signals that the external lint backend is missing or
// timed out. It is always recoverable: callers degrade to the pattern-scan
// fallback instead of failing the run.
type ToolUnavailableError struct {
	Tool   string
	Reason string
}

func (e *ToolUnavailableError) Error() string {
	return fmt.Sprintf("lint tool %q unavailable: %s", e.Tool, e.Reason)
}

// Backend scans artifacts for rule violations. All backends emit the same
// issue shape so gates never care which one ran.
type Backend interface {
	Name() string
	Scan(ctx context.Context, files []*ArtifactFile, rules []Rule, urlAllow []string) ([]Issue, error)
}

// PatternBackend is the built-in regexp scanner. It needs nothing installed
// and is the fallback for every external-tool failure.
type PatternBackend struct{}

// Name implements Backend.
func (PatternBackend) Name() string { return "pattern-scan" }

// Scan implements Backend.
func (PatternBackend) Scan(ctx context.Context, files []*ArtifactFile, rules []Rule, urlAllow []string) ([]Issue, error) {
	var issues []Issue
	for _, f := range files {
		for lineNo, line := range f.Lines {
			for _, rule := range rules {
				if !rule.Pattern.MatchString(line) {
					continue
				}
				if rule.AllowFn != nil && rule.AllowFn(line, urlAllow) {
					continue
				}
				issues = append(issues, Issue{
					Rule:     rule.ID,
					Severity: rule.Severity,
					Message:  rule.Message,
					File:     f.Rel,
					Line:     lineNo + 1,
				})
			}
		}
	}
	sortIssues(issues)
	return issues, nil
}

// ExternalBackend shells out to a configured lint tool. The tool is invoked
// with the artifact paths appended to the configured argv and must print one
// JSON object per line: {"rule","severity","message","file","line"}.
type ExternalBackend struct {
	Command []string // argv; Command[0] is the binary
	Timeout time.Duration
}

// Name implements Backend.
func (b *ExternalBackend) Name() string { return "external:" + b.Command[0] }

// Scan implements Backend. Missing binaries, timeouts, and non-JSON output
// all surface as ToolUnavailableError.
func (b *ExternalBackend) Scan(ctx context.Context, files []*ArtifactFile, rules []Rule, urlAllow []string) ([]Issue, error) {
	if len(b.Command) == 0 {
		return nil, &ToolUnavailableError{Tool: "", Reason: "no lint command configured"}
	}
	if _, err := exec.LookPath(b.Command[0]); err != nil {
		return nil, &ToolUnavailableError{Tool: b.Command[0], Reason: "not found in PATH"}
	}

	timeout := b.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append([]string(nil), b.Command[1:]...)
	for _, f := range files {
		args = append(args, f.Path)
	}
	cmd := exec.CommandContext(ctx, b.Command[0], args...) // #nosec G204 - command comes from project config
	out, err := cmd.Output()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, &ToolUnavailableError{Tool: b.Command[0], Reason: "timed out"}
	}
	if err != nil {
		// Lint tools exit non-zero when they find issues; only treat the
		// run as failed when there is no parseable output at all.
		if len(bytes.TrimSpace(out)) == 0 {
			return nil, &ToolUnavailableError{Tool: b.Command[0], Reason: err.Error()}
		}
	}

	issues, perr := parseIssueLines(out)
	if perr != nil {
		return nil, &ToolUnavailableError{Tool: b.Command[0], Reason: perr.Error()}
	}
	sortIssues(issues)
	return issues, nil
}

func parseIssueLines(out []byte) ([]Issue, error) {
	var issues []Issue
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var issue Issue
		if err := json.Unmarshal(line, &issue); err != nil {
			return nil, fmt.Errorf("unparseable lint output line %q", string(line))
		}
		if issue.Severity != SeverityError && issue.Severity != SeverityWarning {
			issue.Severity = SeverityWarning
		}
		issues = append(issues, issue)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return issues, nil
}

// SelectBackend resolves the configured backend name. BackendAuto prefers
// the external tool when a command is configured, falling back at scan time
// if it turns out to be unusable.
func SelectBackend(name string, command []string, timeout time.Duration) (Backend, error) {
	switch name {
	case BackendFallback, "":
		return PatternBackend{}, nil
	case BackendExternal:
		if len(command) == 0 {
			return nil, &ToolUnavailableError{Reason: "backend=external but no lint command configured"}
		}
		return &ExternalBackend{Command: command, Timeout: timeout}, nil
	case BackendAuto:
		if len(command) > 0 {
			return &ExternalBackend{Command: command, Timeout: timeout}, nil
		}
		return PatternBackend{}, nil
	}
	return nil, fmt.Errorf("unknown lint backend %q (valid: auto, external, fallback)", name)
}

// IsToolUnavailable reports whether err is a recoverable backend failure.
func IsToolUnavailable(err error) bool {
	var tu *ToolUnavailableError
	return errors.As(err, &tu)
}

func sortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, k int) bool {
		a, b := issues[i], issues[k]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Rule < b.Rule
	})
}
