package engine

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/journeykit/jk/internal/types"
)

// schemaGate reuses the record-level schema and lifecycle checks. When it
// fails, the record's references cannot be trusted and the pipeline
// short-circuits.
type schemaGate struct{}

func (schemaGate) Name() string { return "schema" }

func (schemaGate) Run(_ context.Context, run *Run) GateResult {
	var issues []Issue
	for _, err := range types.CheckSchema(run.Journey, run.Opts.Schema) {
		issues = append(issues, Issue{
			Rule:     "schema/invalid-record",
			Severity: SeverityError,
			Message:  err.Error(),
		})
	}
	if run.Opts.TargetStatus != "" {
		if err := types.ValidateTransition(run.Journey, run.Opts.TargetStatus); err != nil {
			issues = append(issues, Issue{
				Rule:     "schema/illegal-transition",
				Severity: SeverityError,
				Message:  err.Error(),
			})
		}
	}
	return gateResult("schema", issues)
}

// traceabilityGate checks the record/artifact link in both directions:
// every tests[] entry must reference an artifact carrying the journey's
// tag, and every artifact carrying the tag must be listed in tests[].
type traceabilityGate struct{}

func (traceabilityGate) Name() string { return "traceability" }

func (traceabilityGate) Run(_ context.Context, run *Run) GateResult {
	j := run.Journey
	tag := j.Tag()
	var issues []Issue

	listed := make(map[string]bool, len(j.Tests))
	for _, ref := range j.Tests {
		listed[ref.Path] = true
		f, ok := run.Corpus.File(ref.Path)
		if !ok {
			issues = append(issues, Issue{
				Rule:     "traceability/missing-artifact",
				Severity: SeverityError,
				Message:  fmt.Sprintf("tests entry %s does not exist in the artifact corpus", ref),
				File:     ref.Path,
			})
			continue
		}
		if !f.Contains(tag) {
			issues = append(issues, Issue{
				Rule:     "traceability/untagged-artifact",
				Severity: SeverityError,
				Message:  fmt.Sprintf("artifact does not carry tag %s", tag),
				File:     ref.Path,
			})
		}
	}

	for _, f := range run.Corpus.Tagged(tag) {
		if !listed[f.Rel] {
			issues = append(issues, Issue{
				Rule:     "traceability/unlisted-artifact",
				Severity: SeverityError,
				Message:  fmt.Sprintf("artifact carries tag %s but is not listed in tests", tag),
				File:     f.Rel,
			})
		}
	}

	return gateResult("traceability", issues)
}

// boundaryGate flags direct use of low-level test-runner imports where the
// project mandates a wrapper module. With no sanctioned wrapper configured
// there is no boundary to enforce and the gate passes.
type boundaryGate struct{}

func (boundaryGate) Name() string { return "boundary" }

var importLineRe = regexp.MustCompile(`^\s*(?:import\b|.*\brequire\s*\()`)

func (boundaryGate) Run(_ context.Context, run *Run) GateResult {
	opts := run.Opts
	if opts.SanctionedImport == "" || len(opts.BannedImports) == 0 {
		return gateResult("boundary", nil)
	}

	var issues []Issue
	for _, f := range run.Artifacts() {
		for lineNo, line := range f.Lines {
			if !importLineRe.MatchString(line) {
				continue
			}
			for _, banned := range opts.BannedImports {
				if strings.Contains(line, "'"+banned+"'") || strings.Contains(line, `"`+banned+`"`) {
					issues = append(issues, Issue{
						Rule:     "boundary/forbidden-import",
						Severity: SeverityWarning,
						Message:  fmt.Sprintf("direct import of %s; use %s instead", banned, opts.SanctionedImport),
						File:     f.Rel,
						Line:     lineNo + 1,
					})
				}
			}
		}
	}
	return gateResult("boundary", issues)
}

// antipatternGate scans the journey's artifacts for forbidden constructs.
// It prefers the selected backend and degrades to the pattern scan when the
// external tool is unavailable, recording the degradation as a warning.
type antipatternGate struct{}

func (antipatternGate) Name() string { return "antipattern" }

func (antipatternGate) Run(ctx context.Context, run *Run) GateResult {
	files := run.Artifacts()

	issues, err := run.Backend.Scan(ctx, files, run.Opts.Rules, run.Opts.URLAllowlist)
	if err != nil {
		if !IsToolUnavailable(err) {
			return gateResult("antipattern", []Issue{{
				Rule:     "antipattern/scan-failed",
				Severity: SeverityError,
				Message:  err.Error(),
			}})
		}
		degraded := Issue{
			Rule:     "tool/unavailable",
			Severity: SeverityWarning,
			Message:  err.Error() + "; degraded to pattern scan",
		}
		issues, _ = PatternBackend{}.Scan(ctx, files, run.Opts.Rules, run.Opts.URLAllowlist)
		issues = append([]Issue{degraded}, issues...)
	}
	return gateResult("antipattern", issues)
}

// contractGate requires each declared acceptance-criterion id to be mapped
// by at least one structural marker (a test title citing the id) containing
// at least one verification call.
type contractGate struct{}

func (contractGate) Name() string { return "contract" }

var (
	markerRe = regexp.MustCompile("(?:\\b(?:test|it|describe|scenario)\\s*\\(|\\bt\\.Run\\s*\\()\\s*['\"`]([^'\"`]*)")
	acIDRe   = regexp.MustCompile(`\bAC-\d+\b`)
	verifyRe = regexp.MustCompile(`\bexpect\s*\(|\bassert\w*\s*[.(]|\.should\s*\(|\bverify\w*\s*\(`)
)

func (contractGate) Run(_ context.Context, run *Run) GateResult {
	j := run.Journey
	mode := run.Opts.Contract

	if len(j.AcceptanceCriteria) == 0 {
		switch mode {
		case ContractStrict:
			return gateResult("contract", []Issue{{
				Rule:     "contract/no-criteria",
				Severity: SeverityError,
				Message:  "journey declares no acceptance criteria",
			}})
		case ContractAuto:
			return gateResult("contract", []Issue{{
				Rule:     "contract/no-criteria",
				Severity: SeverityWarning,
				Message:  "journey declares no acceptance criteria; contract mapping skipped",
			}})
		default:
			return gateResult("contract", nil)
		}
	}

	gapSeverity := SeverityError
	if mode == ContractBasic {
		gapSeverity = SeverityWarning
	}

	verified := collectVerifiedCriteria(run.Artifacts())

	var issues []Issue
	for _, ac := range j.AcceptanceCriteria {
		state := verified[ac.LocalID]
		switch state {
		case criterionVerified:
			continue
		case criterionUnverified:
			issues = append(issues, Issue{
				Rule:     "contract/unverified",
				Severity: gapSeverity,
				Message:  fmt.Sprintf("%s is mapped but its block contains no verification call", ac.LocalID),
			})
		default:
			issues = append(issues, Issue{
				Rule:     "contract/gap",
				Severity: gapSeverity,
				Message:  fmt.Sprintf("no structural marker maps %s", ac.LocalID),
			})
		}
	}
	return gateResult("contract", issues)
}

type criterionState int

const (
	criterionUnmapped criterionState = iota
	criterionUnverified
	criterionVerified
)

// collectVerifiedCriteria walks each artifact, slicing it into blocks that
// start at a structural marker and end at the next one, and records for each
// cited AC id whether any of its blocks contains a verification call.
func collectVerifiedCriteria(files []*ArtifactFile) map[string]criterionState {
	states := make(map[string]criterionState)

	for _, f := range files {
		type block struct {
			ids   []string
			start int
		}
		var blocks []block
		for lineNo, line := range f.Lines {
			m := markerRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			ids := acIDRe.FindAllString(m[1], -1)
			if len(ids) > 0 {
				blocks = append(blocks, block{ids: ids, start: lineNo})
			} else {
				// Unrelated marker still terminates the previous block.
				blocks = append(blocks, block{start: lineNo})
			}
		}

		for i, blk := range blocks {
			if len(blk.ids) == 0 {
				continue
			}
			end := len(f.Lines)
			if i+1 < len(blocks) {
				end = blocks[i+1].start
			}
			hasVerify := false
			for _, line := range f.Lines[blk.start:end] {
				if verifyRe.MatchString(line) {
					hasVerify = true
					break
				}
			}
			for _, id := range blk.ids {
				switch {
				case hasVerify:
					states[id] = criterionVerified
				case states[id] != criterionVerified:
					states[id] = criterionUnverified
				}
			}
		}
	}
	return states
}

// gateResult derives the gate status from its issues' natural severities.
func gateResult(name string, issues []Issue) GateResult {
	status := StatusPass
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			status = StatusFail
			break
		}
		status = StatusWarn
	}
	// Deterministic issue order inside a gate.
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
	return GateResult{Gate: name, Status: status, Issues: issues}
}
