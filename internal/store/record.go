package store

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/journeykit/jk/internal/regions"
	"github.com/journeykit/jk/internal/types"
)

const headerFence = "---"

// SplitRecord separates a record file into its YAML header bytes and the
// markdown body. Header bytes are returned verbatim so that rewriting the
// body never reformats a hand-edited header.
func SplitRecord(data string) (header, body string, err error) {
	if !strings.HasPrefix(data, headerFence+"\n") {
		return "", "", fmt.Errorf("record does not start with a %s header fence", headerFence)
	}
	rest := data[len(headerFence)+1:]
	idx := strings.Index(rest, "\n"+headerFence+"\n")
	if idx < 0 {
		return "", "", fmt.Errorf("record header fence is not closed")
	}
	header = rest[:idx]
	body = rest[idx+len(headerFence)+2:]
	return header, body, nil
}

// DecodeHeader parses the YAML header of a record into a journey.
func DecodeHeader(header string) (*types.Journey, error) {
	var j types.Journey
	if err := yaml.Unmarshal([]byte(header), &j); err != nil {
		return nil, fmt.Errorf("parsing record header: %w", err)
	}
	j.SetDefaults()
	j.ContentHash = j.ComputeContentHash()
	return &j, nil
}

// DecodeRecord parses a record file into its journey and region document.
func DecodeRecord(data string) (*types.Journey, *regions.Doc, error) {
	header, body, err := SplitRecord(data)
	if err != nil {
		return nil, nil, err
	}
	j, err := DecodeHeader(header)
	if err != nil {
		return nil, nil, err
	}
	doc, err := regions.Parse(body)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing record body: %w", err)
	}
	return j, doc, nil
}

// EncodeRecord renders a journey and body document into record file bytes.
func EncodeRecord(j *types.Journey, doc *regions.Doc) (string, error) {
	header, err := yaml.Marshal(j)
	if err != nil {
		return "", fmt.Errorf("marshaling record header: %w", err)
	}
	var b strings.Builder
	b.WriteString(headerFence)
	b.WriteString("\n")
	b.Write(header)
	b.WriteString(headerFence)
	b.WriteString("\n")
	b.WriteString(doc.Render())
	return b.String(), nil
}

// SyncRegions rewrites the machine-owned regions of a record body from the
// journey's structured fields. Human regions (intent, preconditions) and all
// prose outside markers are untouched.
func SyncRegions(j *types.Journey, doc *regions.Doc) {
	doc.Ensure(regions.RegionCriteria, renderCriteria(j.AcceptanceCriteria))
	doc.Ensure(regions.RegionSteps, renderSteps(j.Steps))
	doc.Ensure(regions.RegionOpenQuestions, renderQuestions(j.OpenQuestions))
}

// NewBody builds the default body for a freshly created record: the human
// regions empty and ready for prose, the machine regions populated.
func NewBody(j *types.Journey) *regions.Doc {
	doc, _ := regions.Parse(fmt.Sprintf("# %s\n", j.Title)) // plain text never fails to parse
	doc.Ensure(regions.RegionIntent, "")
	doc.Ensure(regions.RegionPreconditions, "")
	SyncRegions(j, doc)
	return doc
}

func renderCriteria(criteria []types.Criterion) string {
	if len(criteria) == 0 {
		return ""
	}
	lines := make([]string, 0, len(criteria))
	for _, ac := range criteria {
		lines = append(lines, fmt.Sprintf("- %s: %s", ac.LocalID, ac.Text))
	}
	return strings.Join(lines, "\n")
}

func renderSteps(steps []string) string {
	if len(steps) == 0 {
		return ""
	}
	lines := make([]string, 0, len(steps))
	for i, step := range steps {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, step))
	}
	return strings.Join(lines, "\n")
}

func renderQuestions(questions []string) string {
	if len(questions) == 0 {
		return ""
	}
	lines := make([]string, 0, len(questions))
	for _, q := range questions {
		lines = append(lines, "- "+q)
	}
	return strings.Join(lines, "\n")
}
