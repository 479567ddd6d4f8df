package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/journeykit/jk/internal/types"
)

func testJourney() *types.Journey {
	j := &types.Journey{
		ID:     "JRN-0001",
		Title:  "checkout completes with saved card",
		Status: types.StatusDefined,
		Tier:   types.TierSmoke,
		Tests:  []types.TestRef{{Path: "checkout.spec.ts", Name: "saved card"}},
	}
	j.SetDefaults()
	return j
}

func corpusOf(files map[string]string) *Corpus {
	c := &Corpus{Dir: "/corpus"}
	for rel, content := range files {
		c.Files = append(c.Files, ArtifactFile{
			Path:  "/corpus/" + rel,
			Rel:   rel,
			Lines: strings.Split(content, "\n"),
		})
	}
	return c
}

func gateByName(t *testing.T, rep *Report, name string) GateResult {
	t.Helper()
	for _, g := range rep.Gates {
		if g.Gate == name {
			return g
		}
	}
	t.Fatalf("report has no %q gate (gates: %+v)", name, rep.Gates)
	return GateResult{}
}

func TestValidateCleanJourneyPasses(t *testing.T) {
	j := testJourney()
	corpus := corpusOf(map[string]string{
		"checkout.spec.ts": "// @JRN-0001\ntest('saved card', async () => {\n  await expect(page).toHaveURL(/done/);\n});",
	})

	rep := Validate(context.Background(), j, corpus, Options{Mode: ModeStandard, Strict: true})

	if !rep.Passed {
		t.Errorf("Passed = false, want true; issues: %+v", rep.AllIssues())
	}
	if rep.Errors != 0 {
		t.Errorf("Errors = %d, want 0", rep.Errors)
	}
	if got := len(rep.Gates); got != 4 {
		t.Errorf("len(Gates) = %d, want 4 for standard mode", got)
	}
	if rep.JourneyID != "JRN-0001" {
		t.Errorf("JourneyID = %q, want JRN-0001", rep.JourneyID)
	}
	if rep.RunID == "" {
		t.Error("RunID is empty")
	}
}

func TestValidateModeGateCounts(t *testing.T) {
	tests := []struct {
		mode string
		want int
	}{
		{ModeQuick, 2},
		{ModeStandard, 4},
		{ModeMax, 5},
	}
	j := testJourney()
	corpus := corpusOf(nil)
	for _, tt := range tests {
		rep := Validate(context.Background(), j, corpus, Options{Mode: tt.mode})
		if got := len(rep.Gates); got != tt.want {
			t.Errorf("mode %s: len(Gates) = %d, want %d", tt.mode, got, tt.want)
		}
	}
}

func TestValidateSchemaFailureShortCircuits(t *testing.T) {
	j := testJourney()
	j.Title = "" // schema violation
	corpus := corpusOf(nil)

	rep := Validate(context.Background(), j, corpus, Options{Mode: ModeMax, Strict: true})

	if rep.Passed {
		t.Error("Passed = true, want false")
	}
	schema := gateByName(t, rep, "schema")
	if schema.Status != StatusFail {
		t.Errorf("schema status = %q, want fail", schema.Status)
	}
	for _, name := range []string{"traceability", "boundary", "antipattern", "contract"} {
		g := gateByName(t, rep, name)
		if g.Status != StatusSkipped {
			t.Errorf("%s status = %q, want skipped after schema failure", name, g.Status)
		}
		if len(g.Issues) != 0 {
			t.Errorf("%s has %d issues, want none when skipped", name, len(g.Issues))
		}
	}
}

func TestValidateIllegalTargetTransition(t *testing.T) {
	j := testJourney()
	j.Status = types.StatusClarified
	corpus := corpusOf(map[string]string{
		"checkout.spec.ts": "// @JRN-0001\ntest('x', () => { expect(1).toBe(1); });",
	})

	rep := Validate(context.Background(), j, corpus, Options{
		Mode:         ModeQuick,
		Strict:       true,
		TargetStatus: types.StatusDefined,
	})

	schema := gateByName(t, rep, "schema")
	if schema.Status != StatusFail {
		t.Fatalf("schema status = %q, want fail for clarified -> defined", schema.Status)
	}
	found := false
	for _, issue := range schema.Issues {
		if issue.Rule == "schema/illegal-transition" {
			found = true
		}
	}
	if !found {
		t.Errorf("no schema/illegal-transition issue in %+v", schema.Issues)
	}
}

func TestStrictModeFlipsSeverity(t *testing.T) {
	// networkidle is a warning-severity rule by nature.
	j := testJourney()
	corpus := corpusOf(map[string]string{
		"checkout.spec.ts": "// @JRN-0001\ntest('x', () => {\n  page.waitForLoadState('networkidle');\n  expect(1).toBe(1);\n});",
	})

	strict := Validate(context.Background(), j, corpus, Options{Mode: ModeStandard, Strict: true})
	if strict.Passed {
		t.Error("strict: Passed = true, want false")
	}
	if strict.Errors == 0 {
		t.Error("strict: Errors = 0, want warning promoted to error")
	}
	anti := gateByName(t, strict, "antipattern")
	if anti.Status != StatusFail {
		t.Errorf("strict: antipattern status = %q, want fail", anti.Status)
	}

	soft := Validate(context.Background(), j, corpus, Options{Mode: ModeStandard, Strict: false})
	if !soft.Passed {
		t.Error("non-strict: Passed = false, want true")
	}
	if soft.Errors != 0 {
		t.Errorf("non-strict: Errors = %d, want 0", soft.Errors)
	}
	if soft.Warnings == 0 {
		t.Error("non-strict: Warnings = 0, want the same finding recorded as a warning")
	}
	anti = gateByName(t, soft, "antipattern")
	if anti.Status != StatusWarn {
		t.Errorf("non-strict: antipattern status = %q, want warn", anti.Status)
	}
}

func TestStrictModeToolFallbackIsNotFatal(t *testing.T) {
	j := testJourney()
	corpus := corpusOf(map[string]string{
		"checkout.spec.ts": "// @JRN-0001\ntest('saved card', async () => {\n  await expect(page).toHaveURL(/done/);\n});",
	})

	rep := Validate(context.Background(), j, corpus, Options{
		Mode:        ModeStandard,
		Strict:      true,
		Backend:     BackendExternal,
		LintCommand: []string{"jk-lint-that-does-not-exist"},
	})

	if !rep.Passed {
		t.Errorf("Passed = false, want true; a missing lint tool must degrade, not fail: %+v", rep.AllIssues())
	}
	if rep.Errors != 0 {
		t.Errorf("Errors = %d, want 0", rep.Errors)
	}
	found := false
	for _, issue := range rep.AllIssues() {
		if issue.Rule == "tool/unavailable" {
			found = true
			if issue.Severity != SeverityWarning {
				t.Errorf("tool/unavailable severity = %q, want warning in strict mode", issue.Severity)
			}
		}
	}
	if !found {
		t.Error("degradation to the pattern scan was not recorded as tool/unavailable")
	}
}

func TestStrictModeStillFailsOnRealFindingsAfterFallback(t *testing.T) {
	j := testJourney()
	corpus := corpusOf(map[string]string{
		"checkout.spec.ts": "// @JRN-0001\ntest('x', async () => {\n  await page.waitForTimeout(5000);\n});",
	})

	rep := Validate(context.Background(), j, corpus, Options{
		Mode:        ModeStandard,
		Strict:      true,
		Backend:     BackendExternal,
		LintCommand: []string{"jk-lint-that-does-not-exist"},
	})

	if rep.Passed {
		t.Error("Passed = true, want false: the fallback scan's findings still count")
	}
	if rep.Errors == 0 {
		t.Error("Errors = 0, want the fixed-wait finding promoted to error")
	}
	if rep.Warnings == 0 {
		t.Error("Warnings = 0, want the tool/unavailable notice kept as a warning")
	}
}

func TestNonStrictDemotesErrors(t *testing.T) {
	// A fixed-duration wait is an error-severity rule by nature.
	j := testJourney()
	corpus := corpusOf(map[string]string{
		"checkout.spec.ts": "// @JRN-0001\ntest('x', () => {\n  await page.waitForTimeout(5000);\n  expect(1).toBe(1);\n});",
	})

	rep := Validate(context.Background(), j, corpus, Options{Mode: ModeStandard, Strict: false})
	if !rep.Passed {
		t.Errorf("Passed = false, want true in non-strict mode; issues: %+v", rep.AllIssues())
	}
	for _, issue := range rep.AllIssues() {
		if issue.Severity != SeverityWarning {
			t.Errorf("issue %s severity = %q, want warning", issue.Rule, issue.Severity)
		}
	}
}

func TestRunArtifactsUnionAndOrder(t *testing.T) {
	j := testJourney()
	j.Tests = append(j.Tests, types.TestRef{Path: "b.spec.ts"})
	corpus := corpusOf(map[string]string{
		"checkout.spec.ts": "// @JRN-0001",
		"b.spec.ts":        "// no tag here",
		"a.spec.ts":        "// @JRN-0001 tagged but unlisted",
		"other.spec.ts":    "// unrelated",
	})

	run := &Run{Journey: j, Corpus: corpus, Opts: Options{}}
	files := run.Artifacts()

	var rels []string
	for _, f := range files {
		rels = append(rels, f.Rel)
	}
	want := []string{"a.spec.ts", "b.spec.ts", "checkout.spec.ts"}
	if len(rels) != len(want) {
		t.Fatalf("Artifacts() = %v, want %v", rels, want)
	}
	for i := range want {
		if rels[i] != want[i] {
			t.Errorf("Artifacts()[%d] = %q, want %q", i, rels[i], want[i])
		}
	}
}

func TestValidateRecordsSettings(t *testing.T) {
	j := testJourney()
	rep := Validate(context.Background(), j, corpusOf(nil), Options{
		Mode:         ModeQuick,
		Strict:       true,
		TargetStatus: types.StatusClarified,
	})

	keys := make(map[string]string)
	for _, s := range rep.Settings {
		keys[s.Key] = s.Value
	}
	if keys["mode"] != ModeQuick {
		t.Errorf("settings mode = %q, want quick", keys["mode"])
	}
	if keys["strict"] != "true" {
		t.Errorf("settings strict = %q, want true", keys["strict"])
	}
	if keys["target_status"] != "clarified" {
		t.Errorf("settings target_status = %q, want clarified", keys["target_status"])
	}
}
