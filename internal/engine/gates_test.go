package engine

import (
	"context"
	"testing"

	"github.com/journeykit/jk/internal/types"
)

func issueRules(issues []Issue) []string {
	var out []string
	for _, issue := range issues {
		out = append(out, issue.Rule)
	}
	return out
}

func hasRule(issues []Issue, rule string) bool {
	for _, issue := range issues {
		if issue.Rule == rule {
			return true
		}
	}
	return false
}

func TestTraceabilityGateBothDirections(t *testing.T) {
	j := testJourney()
	j.Tests = []types.TestRef{
		{Path: "missing.spec.ts"},
		{Path: "untagged.spec.ts"},
		{Path: "good.spec.ts"},
	}
	corpus := corpusOf(map[string]string{
		"untagged.spec.ts": "test('x', () => {});",
		"good.spec.ts":     "// @JRN-0001\ntest('x', () => {});",
		"stray.spec.ts":    "// @JRN-0001 carried but unlisted",
	})

	run := &Run{Journey: j, Corpus: corpus}
	result := traceabilityGate{}.Run(context.Background(), run)

	if result.Status != StatusFail {
		t.Errorf("status = %q, want fail", result.Status)
	}
	for _, want := range []string{
		"traceability/missing-artifact",
		"traceability/untagged-artifact",
		"traceability/unlisted-artifact",
	} {
		if !hasRule(result.Issues, want) {
			t.Errorf("missing issue %s in %v", want, issueRules(result.Issues))
		}
	}
	if got := len(result.Issues); got != 3 {
		t.Errorf("len(Issues) = %d, want 3", got)
	}
}

func TestTraceabilityGateCleanPasses(t *testing.T) {
	j := testJourney()
	corpus := corpusOf(map[string]string{
		"checkout.spec.ts": "// @JRN-0001\ntest('x', () => {});",
	})
	result := traceabilityGate{}.Run(context.Background(), &Run{Journey: j, Corpus: corpus})
	if result.Status != StatusPass {
		t.Errorf("status = %q, want pass; issues: %v", result.Status, issueRules(result.Issues))
	}
}

func TestBoundaryGate(t *testing.T) {
	j := testJourney()
	corpus := corpusOf(map[string]string{
		"checkout.spec.ts": "// @JRN-0001\nimport { test, expect } from '@playwright/test';\nimport { helper } from './util';",
	})
	run := &Run{Journey: j, Corpus: corpus, Opts: Options{
		SanctionedImport: "@acme/test-kit",
		BannedImports:    []string{"@playwright/test"},
	}}

	result := boundaryGate{}.Run(context.Background(), run)
	if result.Status != StatusWarn {
		t.Errorf("status = %q, want warn", result.Status)
	}
	if len(result.Issues) != 1 {
		t.Fatalf("len(Issues) = %d, want 1", len(result.Issues))
	}
	issue := result.Issues[0]
	if issue.Rule != "boundary/forbidden-import" {
		t.Errorf("rule = %q, want boundary/forbidden-import", issue.Rule)
	}
	if issue.Line != 2 {
		t.Errorf("line = %d, want 2", issue.Line)
	}
}

func TestBoundaryGateNoWrapperConfigured(t *testing.T) {
	j := testJourney()
	corpus := corpusOf(map[string]string{
		"checkout.spec.ts": "import { test } from '@playwright/test';",
	})
	run := &Run{Journey: j, Corpus: corpus, Opts: Options{}}
	result := boundaryGate{}.Run(context.Background(), run)
	if result.Status != StatusPass {
		t.Errorf("status = %q, want pass when no wrapper is configured", result.Status)
	}
}

func TestAntipatternGateFallsBackWhenToolUnavailable(t *testing.T) {
	j := testJourney()
	corpus := corpusOf(map[string]string{
		"checkout.spec.ts": "// @JRN-0001\nawait page.waitForTimeout(2000);",
	})
	run := &Run{
		Journey: j,
		Corpus:  corpus,
		Opts:    Options{Rules: DefaultRules(), URLAllowlist: DefaultURLAllowlist},
		Backend: &ExternalBackend{Command: []string{"jk-lint-that-does-not-exist"}},
	}

	result := antipatternGate{}.Run(context.Background(), run)

	if !hasRule(result.Issues, "tool/unavailable") {
		t.Errorf("missing tool/unavailable warning in %v", issueRules(result.Issues))
	}
	if !hasRule(result.Issues, "antipattern/fixed-wait") {
		t.Errorf("fallback scan did not run; issues: %v", issueRules(result.Issues))
	}
}

func TestContractGateAutoWithCriteria(t *testing.T) {
	j := testJourney()
	j.AcceptanceCriteria = []types.Criterion{
		{LocalID: "AC-1", Text: "order confirmation shown"},
		{LocalID: "AC-2", Text: "email receipt sent"},
		{LocalID: "AC-3", Text: "inventory decremented"},
	}
	corpus := corpusOf(map[string]string{
		"checkout.spec.ts": `// @JRN-0001
test('AC-1 confirmation page renders', async () => {
  await expect(page.locator('h1')).toHaveText('Thanks');
});
test('AC-2 receipt email is queued', async () => {
  console.log('no assertion yet');
});
`,
	})
	run := &Run{Journey: j, Corpus: corpus, Opts: Options{Contract: ContractAuto}}

	result := contractGate{}.Run(context.Background(), run)

	if result.Status != StatusFail {
		t.Errorf("status = %q, want fail (auto is strict when criteria exist)", result.Status)
	}
	if !hasRule(result.Issues, "contract/unverified") {
		t.Errorf("AC-2 block without verification not reported; issues: %v", issueRules(result.Issues))
	}
	if !hasRule(result.Issues, "contract/gap") {
		t.Errorf("unmapped AC-3 not reported; issues: %v", issueRules(result.Issues))
	}
	if hasRule(result.Issues, "contract/no-criteria") {
		t.Error("contract/no-criteria reported although criteria are declared")
	}
}

func TestContractGateAutoWithoutCriteria(t *testing.T) {
	j := testJourney()
	run := &Run{Journey: j, Corpus: corpusOf(nil), Opts: Options{Contract: ContractAuto}}

	result := contractGate{}.Run(context.Background(), run)

	if result.Status != StatusWarn {
		t.Errorf("status = %q, want warn (auto degrades with no criteria)", result.Status)
	}
	if !hasRule(result.Issues, "contract/no-criteria") {
		t.Errorf("missing contract/no-criteria in %v", issueRules(result.Issues))
	}
}

func TestContractGateBasicAndStrictWithoutCriteria(t *testing.T) {
	j := testJourney()

	basic := contractGate{}.Run(context.Background(), &Run{Journey: j, Corpus: corpusOf(nil), Opts: Options{Contract: ContractBasic}})
	if basic.Status != StatusPass {
		t.Errorf("basic: status = %q, want pass", basic.Status)
	}

	strict := contractGate{}.Run(context.Background(), &Run{Journey: j, Corpus: corpusOf(nil), Opts: Options{Contract: ContractStrict}})
	if strict.Status != StatusFail {
		t.Errorf("strict: status = %q, want fail", strict.Status)
	}
}

func TestContractGateBasicGapsAreWarnings(t *testing.T) {
	j := testJourney()
	j.AcceptanceCriteria = []types.Criterion{{LocalID: "AC-1", Text: "x"}}
	run := &Run{Journey: j, Corpus: corpusOf(nil), Opts: Options{Contract: ContractBasic}}

	result := contractGate{}.Run(context.Background(), run)

	if result.Status != StatusWarn {
		t.Errorf("status = %q, want warn", result.Status)
	}
	if len(result.Issues) != 1 || result.Issues[0].Severity != SeverityWarning {
		t.Errorf("issues = %+v, want one warning-severity gap", result.Issues)
	}
}

func TestContractGateMarkerCanCiteSeveralCriteria(t *testing.T) {
	j := testJourney()
	j.AcceptanceCriteria = []types.Criterion{
		{LocalID: "AC-1", Text: "x"},
		{LocalID: "AC-2", Text: "y"},
	}
	corpus := corpusOf(map[string]string{
		"checkout.spec.ts": `// @JRN-0001
it('covers AC-1 and AC-2 together', () => {
  assert.equal(total, 42);
});
`,
	})
	run := &Run{Journey: j, Corpus: corpus, Opts: Options{Contract: ContractStrict}}

	result := contractGate{}.Run(context.Background(), run)
	if result.Status != StatusPass {
		t.Errorf("status = %q, want pass; issues: %v", result.Status, issueRules(result.Issues))
	}
}

func TestContractGateBlockEndsAtNextMarker(t *testing.T) {
	j := testJourney()
	j.AcceptanceCriteria = []types.Criterion{{LocalID: "AC-1", Text: "x"}}
	// The expect sits in the next test's block, so AC-1 stays unverified.
	corpus := corpusOf(map[string]string{
		"checkout.spec.ts": `// @JRN-0001
test('AC-1 something', () => {
});
test('unrelated', () => {
  expect(1).toBe(1);
});
`,
	})
	run := &Run{Journey: j, Corpus: corpus, Opts: Options{Contract: ContractStrict}}

	result := contractGate{}.Run(context.Background(), run)
	if !hasRule(result.Issues, "contract/unverified") {
		t.Errorf("expected contract/unverified, got %v", issueRules(result.Issues))
	}
}

func TestSchemaGateCollectsAllProblems(t *testing.T) {
	j := &types.Journey{
		ID:     "JRN-0009",
		Title:  "",
		Status: "bogus",
		Tier:   types.TierRegression,
	}
	run := &Run{Journey: j, Corpus: corpusOf(nil), Opts: Options{}}

	result := schemaGate{}.Run(context.Background(), run)
	if result.Status != StatusFail {
		t.Fatalf("status = %q, want fail", result.Status)
	}
	if len(result.Issues) < 2 {
		t.Errorf("len(Issues) = %d, want both the title and status problems", len(result.Issues))
	}
}
