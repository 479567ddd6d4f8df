package regions

import (
	"strings"
	"testing"
)

const sampleBody = `# Login journey

Prose the machine must never touch.

<!-- jk:begin intent -->
Verify a registered user can sign in.
<!-- jk:end intent -->

Hand-written analysis between regions stays put.

<!-- jk:begin acceptance-criteria -->
- AC-1: dashboard is shown
- AC-2: session cookie is set
<!-- jk:end acceptance-criteria -->
`

func TestParseRoundTrip(t *testing.T) {
	doc, err := Parse(sampleBody)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if got := doc.Render(); got != sampleBody {
		t.Errorf("Render() not byte-identical to input:\ngot:\n%q\nwant:\n%q", got, sampleBody)
	}
}

func TestParseNames(t *testing.T) {
	doc, err := Parse(sampleBody)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	names := doc.Names()
	if len(names) != 2 || names[0] != "intent" || names[1] != "acceptance-criteria" {
		t.Errorf("Names() = %v, want [intent acceptance-criteria]", names)
	}
}

func TestReplaceTouchesOnlyRegion(t *testing.T) {
	doc, err := Parse(sampleBody)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if err := doc.Replace("acceptance-criteria", "- AC-1: dashboard is shown"); err != nil {
		t.Fatalf("Replace() error: %v", err)
	}
	out := doc.Render()

	if !strings.Contains(out, "Prose the machine must never touch.") {
		t.Error("human prose before regions was altered")
	}
	if !strings.Contains(out, "Hand-written analysis between regions stays put.") {
		t.Error("human prose between regions was altered")
	}
	if strings.Contains(out, "AC-2") {
		t.Error("replaced region still contains old content")
	}
	if got, _ := doc.Region("intent"); got != "Verify a registered user can sign in." {
		t.Errorf("intent region changed: %q", got)
	}
}

func TestReplaceUnknownRegion(t *testing.T) {
	doc, _ := Parse(sampleBody)
	if err := doc.Replace("no-such-region", "x"); err == nil {
		t.Error("Replace() on missing region should fail")
	}
}

func TestEnsureAppendsWhenAbsent(t *testing.T) {
	doc, _ := Parse(sampleBody)
	doc.Ensure("validation-status", "result: pass")
	out := doc.Render()
	want := BeginMarker("validation-status") + "\nresult: pass\n" + EndMarker("validation-status")
	if !strings.Contains(out, want) {
		t.Errorf("Ensure() did not append region:\n%s", out)
	}

	// Second Ensure replaces in place, no duplicate.
	doc.Ensure("validation-status", "result: fail")
	out = doc.Render()
	if strings.Count(out, BeginMarker("validation-status")) != 1 {
		t.Error("Ensure() duplicated the region")
	}
	if !strings.Contains(out, "result: fail") {
		t.Error("Ensure() did not replace content")
	}
}

func TestParseMalformed(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"unclosed", "<!-- jk:begin intent -->\ntext"},
		{"end without begin", "<!-- jk:end intent -->"},
		{"nested begin", "<!-- jk:begin a -->\n<!-- jk:begin b -->\n<!-- jk:end b -->\n<!-- jk:end a -->"},
		{"mismatched end", "<!-- jk:begin a -->\n<!-- jk:end b -->"},
		{"duplicate region", "<!-- jk:begin a -->\n<!-- jk:end a -->\n<!-- jk:begin a -->\n<!-- jk:end a -->"},
	}
	for _, tc := range cases {
		if _, err := Parse(tc.body); err == nil {
			t.Errorf("Parse(%s) = nil error, want failure", tc.name)
		}
	}
}

func TestParseIndentedMarkerIsContent(t *testing.T) {
	body := "<!-- jk:begin a -->\n  <!-- jk:begin b -->\n<!-- jk:end a -->"
	doc, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	content, ok := doc.Region("a")
	if !ok || !strings.Contains(content, "jk:begin b") {
		t.Errorf("indented marker should stay inside region content, got %q", content)
	}
	if got := doc.Render(); got != body {
		t.Errorf("Render() = %q, want %q", got, body)
	}
}

func TestEmptyRegionRoundTrip(t *testing.T) {
	body := "<!-- jk:begin a -->\n<!-- jk:end a -->"
	doc, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if got := doc.Render(); got != body {
		t.Errorf("Render() = %q, want %q", got, body)
	}
}
