package filing

import "fmt"

// DiagKind enumerates the non-fatal conditions a parse can accumulate.
type DiagKind string

const (
	DiagUnclassifiedHeading DiagKind = "unclassified_heading"
	DiagCellParseFailure    DiagKind = "table_cell_parse_failure"
	DiagDuplicateSection    DiagKind = "duplicate_section_ambiguity"
)

// Diagnostic is one warning raised while parsing a document. Warnings
// never abort a parse; they ride along with the result.
type Diagnostic struct {
	Kind    DiagKind `json:"kind"`
	Section string   `json:"section,omitempty"`
	Detail  string   `json:"detail"`
}

// Diagnostics accumulates parse warnings in occurrence order.
type Diagnostics []Diagnostic

// Add records a warning. Section may be empty when the condition is not
// tied to a section.
func (d *Diagnostics) Add(kind DiagKind, section, format string, args ...any) {
	*d = append(*d, Diagnostic{
		Kind:    kind,
		Section: section,
		Detail:  fmt.Sprintf(format, args...),
	})
}

// Count returns the number of warnings of the given kind.
func (d Diagnostics) Count(kind DiagKind) int {
	n := 0
	for _, item := range d {
		if item.Kind == kind {
			n++
		}
	}
	return n
}
