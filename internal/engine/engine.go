// Package engine runs the rule-based validation pipeline over a journey's
// implementation artifacts.
//
// The pipeline is a fixed sequence of independent gates. Each gate
// classifies its own findings into the shared issue shape; nothing escapes
// the pipeline boundary as an error except I/O conflicts during store
// mutation, which are not this package's concern. The schema gate runs
// first and short-circuits the rest when the record itself cannot be
// trusted.
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/journeykit/jk/internal/types"
)

// Validation modes select which gates run.
const (
	ModeQuick    = "quick"    // schema + traceability
	ModeStandard = "standard" // + boundary + anti-pattern
	ModeMax      = "max"      // + contract mapping
)

// Contract gate behaviors.
const (
	ContractBasic  = "basic"  // gaps are warnings; no declared criteria is clean
	ContractStrict = "strict" // gaps and missing criteria are errors
	ContractAuto   = "auto"   // strict when criteria are declared, warning when none
)

// Gate statuses.
const (
	StatusPass    = "pass"
	StatusFail    = "fail"
	StatusWarn    = "warn"
	StatusSkipped = "skipped"
)

// Options configures one validation run.
type Options struct {
	Mode     string
	Strict   bool
	Contract string

	// TargetStatus, when set, additionally checks that the journey may
	// legally transition there (used before promoting to implemented).
	TargetStatus types.Status

	Schema types.SchemaOptions

	Rules        []Rule // nil means DefaultRules
	URLAllowlist []string

	SanctionedImport string
	BannedImports    []string

	Backend     string // auto|external|fallback
	LintCommand []string
	LintTimeout time.Duration
}

// GateResult is the outcome of one gate.
type GateResult struct {
	Gate   string  `json:"gate"`
	Status string  `json:"status"`
	Issues []Issue `json:"issues,omitempty"`
}

// Report is the full outcome of a validation run.
type Report struct {
	RunID       string       `json:"run_id"`
	JourneyID   string       `json:"journey_id"`
	GeneratedAt time.Time    `json:"generated_at"`
	Backend     string       `json:"backend"`
	Settings    []Setting    `json:"settings"`
	Gates       []GateResult `json:"gates"`
	Passed      bool         `json:"passed"`
	Errors      int          `json:"errors"`
	Warnings    int          `json:"warnings"`
}

// Setting is one configuration knob as used by the run, recorded for
// reproducibility.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// AllIssues returns every issue across gates in gate order.
func (r *Report) AllIssues() []Issue {
	var out []Issue
	for _, g := range r.Gates {
		out = append(out, g.Issues...)
	}
	return out
}

// Gate is one independent check in the pipeline.
type Gate interface {
	Name() string
	Run(ctx context.Context, run *Run) GateResult
}

// Run carries the shared state of one pipeline execution.
type Run struct {
	Journey *types.Journey
	Corpus  *Corpus
	Opts    Options
	Backend Backend
}

// Artifacts returns the corpus files associated with this journey: those
// listed in tests[] plus any carrying its tag. Gates past traceability only
// inspect these.
func (r *Run) Artifacts() []*ArtifactFile {
	seen := make(map[string]bool)
	var out []*ArtifactFile
	for _, ref := range r.Journey.Tests {
		if f, ok := r.Corpus.File(ref.Path); ok && !seen[f.Rel] {
			seen[f.Rel] = true
			out = append(out, f)
		}
	}
	for _, f := range r.Corpus.Tagged(r.Journey.Tag()) {
		if !seen[f.Rel] {
			seen[f.Rel] = true
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Rel < out[k].Rel })
	return out
}

// Validate runs the pipeline and renders the report. It never returns an
// error: every failure mode is classified into the report itself.
func Validate(ctx context.Context, j *types.Journey, corpus *Corpus, opts Options) *Report {
	if opts.Mode == "" {
		opts.Mode = ModeStandard
	}
	if opts.Contract == "" {
		opts.Contract = ContractAuto
	}
	if opts.Rules == nil {
		opts.Rules = DefaultRules()
	}
	if opts.URLAllowlist == nil {
		opts.URLAllowlist = DefaultURLAllowlist
	}

	run := &Run{Journey: j, Corpus: corpus, Opts: opts}

	var preIssues []Issue
	backend, err := SelectBackend(opts.Backend, opts.LintCommand, opts.LintTimeout)
	if err != nil {
		// Recoverable by definition: degrade to the pattern scan.
		preIssues = append(preIssues, Issue{
			Rule:     "tool/unavailable",
			Severity: SeverityWarning,
			Message:  err.Error(),
		})
		backend = PatternBackend{}
	}
	run.Backend = backend

	rep := &Report{
		RunID:       uuid.NewString(),
		JourneyID:   j.ID,
		GeneratedAt: time.Now().UTC(),
		Backend:     backend.Name(),
		Settings:    settings(opts),
	}

	gates := gatesForMode(opts.Mode)
	shortCircuited := false
	for i, g := range gates {
		if shortCircuited {
			rep.Gates = append(rep.Gates, GateResult{Gate: g.Name(), Status: StatusSkipped})
			continue
		}
		result := g.Run(ctx, run)
		if i == 0 && len(preIssues) > 0 {
			result.Issues = append(preIssues, result.Issues...)
		}
		rep.Gates = append(rep.Gates, result)
		// Only the schema gate invalidates trust in the record's
		// references; later gate failures are independent findings.
		if i == 0 && result.Status == StatusFail {
			shortCircuited = true
		}
	}

	applyMode(rep, opts.Strict)
	return rep
}

// gatesForMode returns the pipeline for a mode, schema gate always first.
func gatesForMode(mode string) []Gate {
	gates := []Gate{schemaGate{}, traceabilityGate{}}
	if mode == ModeQuick {
		return gates
	}
	gates = append(gates, boundaryGate{}, antipatternGate{})
	if mode == ModeStandard {
		return gates
	}
	return append(gates, contractGate{})
}

// informationalRules are degradation notices, never findings about the
// artifacts themselves. They stay warnings even in strict mode: a missing
// lint tool is recoverable via the pattern-scan fallback, not fatal.
var informationalRules = map[string]bool{
	"tool/unavailable": true,
}

// applyMode enforces the strictness contract: strict promotes every finding
// to an error and fails on any error; non-strict records the same findings
// as warnings and reports success, enabling gradual adoption. Informational
// degradation notices are exempt from promotion either way.
func applyMode(rep *Report, strict bool) {
	for gi := range rep.Gates {
		g := &rep.Gates[gi]
		hasError := false
		for ii := range g.Issues {
			issue := &g.Issues[ii]
			if strict && !informationalRules[issue.Rule] {
				issue.Severity = SeverityError
			} else {
				issue.Severity = SeverityWarning
			}
			if issue.Severity == SeverityError {
				hasError = true
			}
		}
		if g.Status == StatusSkipped {
			continue
		}
		switch {
		case hasError:
			g.Status = StatusFail
		case len(g.Issues) > 0:
			g.Status = StatusWarn
		default:
			g.Status = StatusPass
		}
	}

	rep.Errors, rep.Warnings = 0, 0
	for _, issue := range rep.AllIssues() {
		if issue.Severity == SeverityError {
			rep.Errors++
		} else {
			rep.Warnings++
		}
	}
	rep.Passed = rep.Errors == 0
}

func settings(opts Options) []Setting {
	s := []Setting{
		{Key: "mode", Value: opts.Mode},
		{Key: "strict", Value: fmt.Sprintf("%t", opts.Strict)},
		{Key: "contract", Value: opts.Contract},
		{Key: "backend", Value: opts.Backend},
	}
	if opts.TargetStatus != "" {
		s = append(s, Setting{Key: "target_status", Value: string(opts.TargetStatus)})
	}
	return s
}
