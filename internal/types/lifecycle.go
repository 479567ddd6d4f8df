package types

import "fmt"

// forward is the single legal forward path through the lifecycle.
var forward = map[Status]Status{
	StatusProposed:  StatusDefined,
	StatusDefined:   StatusClarified,
	StatusClarified: StatusImplemented,
}

// CanTransition reports whether moving a journey from one status to another
// is legal. The lifecycle is monotonic forward through
// proposed -> defined -> clarified -> implemented; any non-terminal status
// may side-exit to quarantined or deprecated, and side-exits are terminal.
// Custom statuses have no transition rules and are always allowed between
// themselves and into side-exits.
func CanTransition(from, to Status) bool {
	if from == to {
		return true // no-op update
	}
	if from.IsTerminal() {
		return false
	}
	if to.IsTerminal() {
		return true
	}
	// Walk the forward chain: to must be strictly ahead of from.
	for cur := from; ; {
		next, ok := forward[cur]
		if !ok {
			break
		}
		if next == to {
			return true
		}
		cur = next
	}
	// Custom statuses sit outside the built-in chain; allow moves between
	// them so configured workflows are not bricked.
	if !from.IsValid() || !to.IsValid() {
		return true
	}
	return false
}

// ValidateTransition returns a LifecycleError when the move is illegal or
// when the target status lacks its required metadata on the journey.
func ValidateTransition(j *Journey, to Status) error {
	if !CanTransition(j.Status, to) {
		reason := "statuses only move forward"
		if j.Status.IsTerminal() {
			reason = fmt.Sprintf("%s is terminal", j.Status)
		}
		return &LifecycleError{From: j.Status, To: to, Reason: reason}
	}
	switch to {
	case StatusQuarantined:
		if j.Owner == "" {
			return &LifecycleError{From: j.Status, To: to, Reason: "quarantined requires an owner"}
		}
		if j.IssueRef == "" {
			return &LifecycleError{From: j.Status, To: to, Reason: "quarantined requires an issue reference"}
		}
	case StatusDeprecated:
		if j.ReplacedBy == "" && j.Rationale == "" {
			return &LifecycleError{From: j.Status, To: to, Reason: "deprecated requires a replacement reference or a rationale"}
		}
	}
	return nil
}

// SchemaOptions carries the custom status/tier vocabularies from config.
type SchemaOptions struct {
	CustomStatuses []string
	CustomTiers    []string
}

// CheckSchema returns every schema problem with the journey for its current
// status. An empty slice means the record is trustworthy.
func CheckSchema(j *Journey, opts SchemaOptions) []error {
	var errs []error

	if j.Title == "" {
		errs = append(errs, &SchemaError{Field: "title", Reason: "title is required"})
	}
	if len(j.Title) > 500 {
		errs = append(errs, &SchemaError{Field: "title", Reason: fmt.Sprintf("title must be 500 characters or less (got %d)", len(j.Title))})
	}
	if !j.Status.IsValidWithCustom(opts.CustomStatuses) {
		errs = append(errs, &SchemaError{Field: "status", Reason: fmt.Sprintf("invalid status: %s", j.Status)})
	}
	if !j.Tier.IsValidWithCustom(opts.CustomTiers) {
		errs = append(errs, &SchemaError{Field: "tier", Reason: fmt.Sprintf("invalid tier: %s", j.Tier)})
	}
	if j.Provenance.Confidence < 0 || j.Provenance.Confidence > 1 {
		errs = append(errs, &SchemaError{Field: "provenance.confidence", Reason: "confidence must be between 0 and 1"})
	}

	// AC ids must be unique within one record.
	seen := make(map[string]bool, len(j.AcceptanceCriteria))
	for _, ac := range j.AcceptanceCriteria {
		if ac.LocalID == "" {
			errs = append(errs, &SchemaError{Field: "acceptance_criteria", Reason: "criterion is missing an id"})
			continue
		}
		if seen[ac.LocalID] {
			errs = append(errs, &SchemaError{Field: "acceptance_criteria", Reason: fmt.Sprintf("duplicate criterion id %s", ac.LocalID)})
		}
		seen[ac.LocalID] = true
	}

	// Status-specific required fields.
	switch j.Status {
	case StatusImplemented:
		if len(j.Tests) == 0 {
			errs = append(errs, &SchemaError{Field: "tests", Reason: "implemented journeys must list at least one test"})
		}
	case StatusQuarantined:
		if j.Owner == "" {
			errs = append(errs, &SchemaError{Field: "owner", Reason: "quarantined journeys must name an owner"})
		}
		if j.IssueRef == "" {
			errs = append(errs, &SchemaError{Field: "issue_ref", Reason: "quarantined journeys must reference an issue"})
		}
	case StatusDeprecated:
		if j.ReplacedBy == "" && j.Rationale == "" {
			errs = append(errs, &SchemaError{Field: "replaced_by", Reason: "deprecated journeys must reference a replacement or give a rationale"})
		}
	}

	for i, t := range j.Tests {
		if t.Path == "" {
			errs = append(errs, &SchemaError{Field: "tests", Reason: fmt.Sprintf("tests[%d] has an empty path", i)})
		}
	}

	return errs
}

// Validate checks the journey and returns the first schema problem, if any.
// Use CheckSchema when all problems are wanted.
func (j *Journey) Validate(opts SchemaOptions) error {
	if errs := CheckSchema(j, opts); len(errs) > 0 {
		return errs[0]
	}
	return nil
}
