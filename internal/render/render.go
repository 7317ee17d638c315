// Package render serializes an assembled filing into its *_notes.md
// artifact: YAML front matter followed by ## SECTION: blocks. Rendering
// is a pure function of the filing; the same input always produces
// byte-identical output, which the regression suite diffs against.
package render

import (
	"strconv"
	"strings"

	"github.com/dgunning/filingnotes/internal/filing"
)

// Artifact renders the complete textual artifact for a filing.
func Artifact(f *filing.Filing) string {
	var b strings.Builder

	b.WriteString("---\n")
	writeField(&b, "filing_type", f.FilingType)
	writeField(&b, "accession_number", f.AccessionNumber)
	writeField(&b, "filing_date", f.FilingDate)
	writeField(&b, "company", f.Company)
	writeField(&b, "ticker", f.Ticker)
	if len(f.Sections) == 0 {
		b.WriteString("sections: []\n")
	} else {
		b.WriteString("sections:\n")
		for _, s := range f.Sections {
			b.WriteString("  - ")
			b.WriteString(scalar(s.Name))
			b.WriteByte('\n')
		}
	}
	writeField(&b, "format", f.Format)
	b.WriteString("---\n")

	for _, s := range f.Sections {
		b.WriteString("\n## SECTION: ")
		b.WriteString(s.Name)
		b.WriteByte('\n')
		if s.Source != "" {
			b.WriteString("\n<!-- Source: ")
			b.WriteString(s.Source)
			b.WriteString(" -->\n")
		}
		for _, u := range s.Units {
			switch u.Kind {
			case filing.UnitParagraph:
				b.WriteByte('\n')
				b.WriteString(u.Text)
				b.WriteByte('\n')
			case filing.UnitSubheading:
				b.WriteString("\n### ")
				b.WriteString(u.Text)
				b.WriteByte('\n')
			case filing.UnitTable:
				writeTable(&b, u.Table)
			}
		}
	}

	return b.String()
}

// writeField emits one front-matter line. Empty optional values degrade
// to an explicit null rather than an empty string.
func writeField(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteString(": ")
	if value == "" {
		b.WriteString("null")
	} else {
		b.WriteString(scalar(value))
	}
	b.WriteByte('\n')
}

// writeTable emits the title heading, header row, alignment row, and
// data rows. Cell text goes out verbatim, bold markers included, in the
// original column order.
func writeTable(b *strings.Builder, t *filing.Table) {
	if t == nil {
		return
	}
	if t.Title != "" {
		b.WriteString("\n#### Table: ")
		b.WriteString(t.Title)
		b.WriteByte('\n')
	}
	if t.Width() == 0 {
		return
	}

	b.WriteByte('\n')
	writeRow(b, t.Columns)

	aligns := make([]string, t.Width())
	for i := range aligns {
		if numericColumn(t, i) {
			aligns[i] = "---:"
		} else {
			aligns[i] = "---"
		}
	}
	writeRow(b, aligns)

	cells := make([]string, t.Width())
	for _, row := range t.Rows {
		for i := range cells {
			cells[i] = ""
		}
		for i, c := range row.Cells {
			if i < len(cells) {
				cells[i] = c.Raw
			}
		}
		writeRow(b, cells)
	}
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("| ")
	b.WriteString(strings.Join(cells, " | "))
	b.WriteString(" |\n")
}

// numericColumn reports whether a column's populated cells are mostly
// numbers (dash placeholders included); those columns get right-aligned
// separators. Label columns stay left-aligned.
func numericColumn(t *filing.Table, col int) bool {
	numeric, text := 0, 0
	for _, row := range t.Rows {
		if col >= len(row.Cells) {
			continue
		}
		c := row.Cells[col]
		switch c.Kind {
		case filing.CellNumeric, filing.CellCurrency, filing.CellPercent, filing.CellNull:
			numeric++
		default:
			if c.Raw != "" {
				text++
			}
		}
	}
	return numeric > 0 && numeric >= text
}

// scalar renders a YAML plain scalar, double-quoting values that would
// change type or break parsing otherwise.
func scalar(s string) string {
	if plainSafe(s) {
		return s
	}
	return strconv.Quote(s)
}

// plainSafe reports whether s survives as a YAML plain scalar unquoted
// and unretyped. Deliberately conservative.
func plainSafe(s string) bool {
	if s == "" || s != strings.TrimSpace(s) {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune(" .,&()'/_$%+-", r):
			if i == 0 && (r == '-' || r == '&' || r == '%' || r == '\'') {
				return false
			}
		default:
			return false
		}
	}
	if strings.Contains(s, ": ") || strings.HasSuffix(s, ":") || strings.Contains(s, " #") {
		return false
	}
	switch strings.ToLower(s) {
	case "null", "~", "true", "false", "yes", "no", "on", "off":
		return false
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return false
	}
	return true
}
