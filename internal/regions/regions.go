// Package regions implements the marked-region editing discipline for
// journey record bodies.
//
// A record body is plain markdown divided into named sections delimited by
// explicit begin/end marker lines:
//
//	<!-- jk:begin acceptance-criteria -->
//	...machine-writable content...
//	<!-- jk:end acceptance-criteria -->
//
// Programmatic updates may only rewrite content between a matching marker
// pair. Every byte outside markers is human content and is preserved exactly.
package regions

import (
	"fmt"
	"strings"
)

// Canonical region names used by journey records.
const (
	RegionIntent           = "intent"
	RegionCriteria         = "acceptance-criteria"
	RegionSteps            = "procedural-steps"
	RegionPreconditions    = "preconditions"
	RegionOpenQuestions    = "open-questions"
	RegionProvenance       = "provenance"
	RegionValidationStatus = "validation-status"
)

// BeginMarker returns the begin marker line for a region name.
func BeginMarker(name string) string {
	return fmt.Sprintf("<!-- jk:begin %s -->", name)
}

// EndMarker returns the end marker line for a region name.
func EndMarker(name string) string {
	return fmt.Sprintf("<!-- jk:end %s -->", name)
}

// segment is one slice of the document: either raw human text or a named
// region including its markers.
type segment struct {
	name     string // empty for raw text
	content  string // region interior, without markers; raw text verbatim
	interior bool   // region had interior lines (distinguishes "" from none)
}

// Doc is a parsed record body.
type Doc struct {
	segments []segment
}

// Parse splits a body into raw text and named regions. It errors on an end
// marker without a begin, a begin without an end, a nested begin, or a
// duplicate region name: a malformed document must never be rewritten.
func Parse(body string) (*Doc, error) {
	doc := &Doc{}
	seen := make(map[string]bool)

	lines := strings.Split(body, "\n")
	var raw []string
	var region []string
	current := ""

	flushRaw := func() {
		if len(raw) > 0 {
			doc.segments = append(doc.segments, segment{content: strings.Join(raw, "\n")})
			raw = raw[:0]
		}
	}

	for _, line := range lines {
		// Markers are only recognized at column zero; indented marker-like
		// lines are ordinary content.
		trimmed := strings.TrimRight(line, " \t\r")
		switch {
		case strings.HasPrefix(trimmed, "<!-- jk:begin ") && strings.HasSuffix(trimmed, " -->"):
			name := strings.TrimSuffix(strings.TrimPrefix(trimmed, "<!-- jk:begin "), " -->")
			if current != "" {
				return nil, fmt.Errorf("region %q: begin marker for %q before end marker", current, name)
			}
			if seen[name] {
				return nil, fmt.Errorf("duplicate region %q", name)
			}
			seen[name] = true
			flushRaw()
			current = name
			region = region[:0]
		case strings.HasPrefix(trimmed, "<!-- jk:end ") && strings.HasSuffix(trimmed, " -->"):
			name := strings.TrimSuffix(strings.TrimPrefix(trimmed, "<!-- jk:end "), " -->")
			if current == "" {
				return nil, fmt.Errorf("end marker for %q without begin", name)
			}
			if name != current {
				return nil, fmt.Errorf("end marker for %q closes region %q", name, current)
			}
			doc.segments = append(doc.segments, segment{
				name:     current,
				content:  strings.Join(region, "\n"),
				interior: len(region) > 0,
			})
			current = ""
		default:
			if current != "" {
				region = append(region, line)
			} else {
				raw = append(raw, line)
			}
		}
	}
	if current != "" {
		return nil, fmt.Errorf("region %q is missing its end marker", current)
	}
	flushRaw()

	return doc, nil
}

// Names returns the region names in document order.
func (d *Doc) Names() []string {
	var names []string
	for _, s := range d.segments {
		if s.name != "" {
			names = append(names, s.name)
		}
	}
	return names
}

// Region returns the interior content of a named region.
func (d *Doc) Region(name string) (string, bool) {
	for _, s := range d.segments {
		if s.name == name {
			return s.content, true
		}
	}
	return "", false
}

// Replace rewrites the interior of the named region. Content outside the
// region is untouched. Returns an error when the region does not exist.
func (d *Doc) Replace(name, content string) error {
	for i, s := range d.segments {
		if s.name == name {
			d.segments[i].content = content
			d.segments[i].interior = content != ""
			return nil
		}
	}
	return fmt.Errorf("no region named %q", name)
}

// Ensure replaces the named region, appending a new one at the end of the
// document when it is absent.
func (d *Doc) Ensure(name, content string) {
	if err := d.Replace(name, content); err == nil {
		return
	}
	d.segments = append(d.segments, segment{name: name, content: content, interior: content != ""})
}

// Render reassembles the document. For an unmodified document the output is
// byte-identical to the parsed input.
func (d *Doc) Render() string {
	var b strings.Builder
	for i, s := range d.segments {
		if s.name == "" {
			b.WriteString(s.content)
			if i < len(d.segments)-1 {
				b.WriteString("\n")
			}
			continue
		}
		b.WriteString(BeginMarker(s.name))
		b.WriteString("\n")
		if s.interior {
			b.WriteString(s.content)
			b.WriteString("\n")
		}
		b.WriteString(EndMarker(s.name))
		if i < len(d.segments)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
