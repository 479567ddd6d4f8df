// Package idgen allocates stable journey identifiers.
//
// IDs have the form <prefix>-<number> with the number zero-padded to a fixed
// width, e.g. JRN-0042. Allocation is strictly monotonic: the next id is
// always max(existing)+1 and gaps left by quarantined or deprecated journeys
// are never refilled, so a dead journey's number can never be inherited by a
// new one.
package idgen

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatID renders a numeric id with the configured prefix and width.
func FormatID(prefix string, width, n int) string {
	return fmt.Sprintf("%s-%0*d", prefix, width, n)
}

// ParseNumber extracts the numeric suffix of an id for the given prefix.
// Returns false for ids with a different prefix or a non-numeric suffix.
func ParseNumber(prefix, id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, prefix+"-")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Allocate returns the next unused id for the prefix, padded to width digits.
// existing is the full id set of the snapshot the caller read; ids under
// other prefixes are ignored. Fails when the next number no longer fits the
// width, since widening would destabilize sort order of already-issued ids.
func Allocate(prefix string, width int, existing []string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("id prefix is required")
	}
	if width < 1 {
		return "", fmt.Errorf("id width must be at least 1 (got %d)", width)
	}

	max := 0
	for _, id := range existing {
		if n, ok := ParseNumber(prefix, id); ok && n > max {
			max = n
		}
	}

	next := max + 1
	if len(strconv.Itoa(next)) > width {
		return "", fmt.Errorf("id space exhausted: %d does not fit in %d digits for prefix %q", next, width, prefix)
	}
	return FormatID(prefix, width, next), nil
}
