// Package types defines core data structures for the jk journey registry.
package types

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// Journey represents one tracked end-to-end test scenario.
type Journey struct {
	ID                 string      `yaml:"id" json:"id"`
	ContentHash        string      `yaml:"-" json:"-"` // Internal: SHA256 of canonical content (excludes ID, timestamps) - NOT persisted
	Title              string      `yaml:"title" json:"title"`
	Status             Status      `yaml:"status,omitempty" json:"status,omitempty"`
	Tier               Tier        `yaml:"tier,omitempty" json:"tier,omitempty"`
	Actor              string      `yaml:"actor,omitempty" json:"actor,omitempty"`
	Scope              string      `yaml:"scope,omitempty" json:"scope,omitempty"`
	AcceptanceCriteria []Criterion `yaml:"acceptance_criteria,omitempty" json:"acceptance_criteria,omitempty"`
	Steps              []string    `yaml:"steps,omitempty" json:"steps,omitempty"`
	Tests              []TestRef   `yaml:"tests,omitempty" json:"tests,omitempty"`
	OpenQuestions      []string    `yaml:"open_questions,omitempty" json:"open_questions,omitempty"`

	// Side-exit metadata: quarantined journeys need an owner and an issue,
	// deprecated journeys need a replacement or a rationale.
	Owner      string `yaml:"owner,omitempty" json:"owner,omitempty"`
	IssueRef   string `yaml:"issue_ref,omitempty" json:"issue_ref,omitempty"`
	ReplacedBy string `yaml:"replaced_by,omitempty" json:"replaced_by,omitempty"`
	Rationale  string `yaml:"rationale,omitempty" json:"rationale,omitempty"`

	Provenance Provenance `yaml:"provenance,omitempty" json:"provenance,omitempty"`
}

// Criterion is one individually identified acceptance criterion (e.g. AC-1).
type Criterion struct {
	LocalID string `yaml:"id" json:"id"`
	Text    string `yaml:"text" json:"text"`
}

// TestRef points at an implementation artifact expected to carry the
// journey's tag. Serialized as "path" or "path#name".
type TestRef struct {
	Path string `json:"path"`
	Name string `json:"name,omitempty"`
}

// String renders the ref in its wire form.
func (r TestRef) String() string {
	if r.Name == "" {
		return r.Path
	}
	return r.Path + "#" + r.Name
}

// ParseTestRef parses "path" or "path#name".
func ParseTestRef(s string) TestRef {
	if idx := strings.LastIndex(s, "#"); idx >= 0 {
		return TestRef{Path: s[:idx], Name: s[idx+1:]}
	}
	return TestRef{Path: s}
}

// MarshalYAML serializes a TestRef as its compact string form.
func (r TestRef) MarshalYAML() (interface{}, error) {
	return r.String(), nil
}

// UnmarshalYAML accepts the compact string form.
func (r *TestRef) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	*r = ParseTestRef(s)
	return nil
}

// Provenance records who or what produced and last touched a journey.
type Provenance struct {
	CreatedBy  string    `yaml:"created_by,omitempty" json:"created_by,omitempty"`
	UpdatedBy  string    `yaml:"updated_by,omitempty" json:"updated_by,omitempty"`
	CreatedAt  time.Time `yaml:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt  time.Time `yaml:"updated_at,omitempty" json:"updated_at,omitempty"`
	Confidence float64   `yaml:"confidence,omitempty" json:"confidence,omitempty"`
}

// Tag returns the stable marker implementation artifacts must carry to be
// linked to this journey, e.g. "@JRN-0042".
func (j *Journey) Tag() string {
	return "@" + j.ID
}

// ComputeContentHash creates a deterministic hash of the journey's content.
// Uses all substantive fields (excluding ID and timestamps) so that identical
// content produces identical hashes regardless of where the record lives.
func (j *Journey) ComputeContentHash() string {
	h := sha256.New()

	h.Write([]byte(j.Title))
	h.Write([]byte{0}) // separator
	h.Write([]byte(j.Status))
	h.Write([]byte{0})
	h.Write([]byte(j.Tier))
	h.Write([]byte{0})
	h.Write([]byte(j.Actor))
	h.Write([]byte{0})
	h.Write([]byte(j.Scope))
	h.Write([]byte{0})
	for _, ac := range j.AcceptanceCriteria {
		h.Write([]byte(ac.LocalID))
		h.Write([]byte{0})
		h.Write([]byte(ac.Text))
		h.Write([]byte{0})
	}
	for _, s := range j.Steps {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	for _, t := range j.Tests {
		h.Write([]byte(t.String()))
		h.Write([]byte{0})
	}
	for _, q := range j.OpenQuestions {
		h.Write([]byte(q))
		h.Write([]byte{0})
	}
	h.Write([]byte(j.Owner))
	h.Write([]byte{0})
	h.Write([]byte(j.IssueRef))
	h.Write([]byte{0})
	h.Write([]byte(j.ReplacedBy))
	h.Write([]byte{0})
	h.Write([]byte(j.Rationale))

	return fmt.Sprintf("%x", h.Sum(nil))
}

// SetDefaults applies default values for fields omitted in record headers:
//   - Status: defaults to StatusProposed if empty
//   - Tier: defaults to TierRegression if empty
func (j *Journey) SetDefaults() {
	if j.Status == "" {
		j.Status = StatusProposed
	}
	if j.Tier == "" {
		j.Tier = TierRegression
	}
}

// Status represents where a journey is in its lifecycle.
type Status string

// Journey status constants
const (
	StatusProposed    Status = "proposed"
	StatusDefined     Status = "defined"
	StatusClarified   Status = "clarified"
	StatusImplemented Status = "implemented"
	StatusQuarantined Status = "quarantined" // Side-exit: flaky or failing, parked with an owner
	StatusDeprecated  Status = "deprecated"  // Side-exit: superseded or retired
)

// IsValid checks if the status value is valid (built-in statuses only)
func (s Status) IsValid() bool {
	switch s {
	case StatusProposed, StatusDefined, StatusClarified, StatusImplemented, StatusQuarantined, StatusDeprecated:
		return true
	}
	return false
}

// IsValidWithCustom checks if the status is valid, including custom statuses
// configured via the project config file.
func (s Status) IsValidWithCustom(customStatuses []string) bool {
	if s.IsValid() {
		return true
	}
	for _, custom := range customStatuses {
		if string(s) == custom {
			return true
		}
	}
	return false
}

// IsTerminal returns true for side-exit statuses that no journey leaves.
func (s Status) IsTerminal() bool {
	return s == StatusQuarantined || s == StatusDeprecated
}

// Tier classifies a journey's run priority.
type Tier string

// Journey tier constants
const (
	TierSmoke      Tier = "smoke"
	TierRelease    Tier = "release"
	TierRegression Tier = "regression"
)

// IsValid checks if the tier value is valid (built-in tiers only)
func (t Tier) IsValid() bool {
	switch t {
	case TierSmoke, TierRelease, TierRegression:
		return true
	}
	return false
}

// IsValidWithCustom checks if the tier is valid, including custom tiers.
func (t Tier) IsValidWithCustom(customTiers []string) bool {
	if t.IsValid() {
		return true
	}
	for _, custom := range customTiers {
		if string(t) == custom {
			return true
		}
	}
	return false
}

// TierRank orders tiers for generated listings: smoke first, then release,
// then regression; custom tiers sort after the built-ins.
func TierRank(t Tier) int {
	switch t {
	case TierSmoke:
		return 0
	case TierRelease:
		return 1
	case TierRegression:
		return 2
	}
	return 3
}

// StatusRank orders statuses for generated listings, lifecycle order first,
// side-exits last.
func StatusRank(s Status) int {
	switch s {
	case StatusProposed:
		return 0
	case StatusDefined:
		return 1
	case StatusClarified:
		return 2
	case StatusImplemented:
		return 3
	case StatusQuarantined:
		return 4
	case StatusDeprecated:
		return 5
	}
	return 6
}
