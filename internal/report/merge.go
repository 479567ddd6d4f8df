package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/journeykit/jk/internal/engine"
	"github.com/journeykit/jk/internal/regions"
	"github.com/journeykit/jk/internal/store"
)

// WriteFile writes the markdown report under <root>/reports/<id>.md and
// returns the path. The write is atomic; a crashed run never leaves a
// truncated report.
func WriteFile(root string, rep *engine.Report) (string, error) {
	path := filepath.Join(root, "reports", rep.JourneyID+".md")
	if err := store.WriteAtomic(path, []byte(RenderMarkdown(rep))); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

// MergeStatus writes the run summary into the record's validation-status
// region and returns a line diff of the region change. Only the region
// interior moves; every other byte of the record is preserved.
func MergeStatus(s *store.Store, snap *store.Snapshot, rep *engine.Report) (string, error) {
	rec, ok := snap.Records[rep.JourneyID]
	if !ok {
		return "", fmt.Errorf("no journey %s in registry", rep.JourneyID)
	}

	doc, err := regions.Parse(rec.Body)
	if err != nil {
		return "", fmt.Errorf("record %s: %w", rec.Path, err)
	}
	old, _ := doc.Region(regions.RegionValidationStatus)
	next := StatusRegion(rep)

	if err := s.UpdateRegion(snap, rep.JourneyID, regions.RegionValidationStatus, next); err != nil {
		return "", err
	}
	return DiffPreview(old, next), nil
}

// DiffPreview renders a +/- line diff between two region interiors.
func DiffPreview(old, next string) string {
	if old == next {
		return ""
	}
	if old == "" {
		return prefixLines("+ ", next)
	}
	if next == "" {
		return prefixLines("- ", old)
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(old, next)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		}
		out.WriteString(prefixLines(prefix, strings.TrimSuffix(d.Text, "\n")))
	}
	return out.String()
}

func prefixLines(prefix, text string) string {
	var out strings.Builder
	for _, line := range strings.Split(text, "\n") {
		out.WriteString(prefix)
		out.WriteString(line)
		out.WriteString("\n")
	}
	return out.String()
}
