package types

import "fmt"

// SchemaError reports a missing or invalid field for a journey's current
// status. Gates and the store both surface it; downstream components must
// not trust a record that produced one.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema: %s", e.Reason)
	}
	return fmt.Sprintf("schema: field %q: %s", e.Field, e.Reason)
}

// LifecycleError reports an illegal status transition or missing
// status-required metadata.
type LifecycleError struct {
	From   Status
	To     Status
	Reason string
}

func (e *LifecycleError) Error() string {
	if e.From == "" && e.To == "" {
		return fmt.Sprintf("lifecycle: %s", e.Reason)
	}
	return fmt.Sprintf("lifecycle: %s -> %s: %s", e.From, e.To, e.Reason)
}
