package filing

import "github.com/dgunning/filingnotes/internal/taxonomy"

// Identity carries the filing-level metadata supplied by the caller.
// FilingType and AccessionNumber are mandatory; the rest may be empty
// and degrade to null in the serialized front matter.
type Identity struct {
	FilingType      string // "10-K", "10-Q"
	AccessionNumber string // EDGAR accession number, e.g. "0001628280-25-004968"
	FilingDate      string // date as filed, e.g. "2025-02-28"
	Company         string
	Ticker          string
}

// Filing is one fully parsed document: identity plus ordered sections.
// A Filing is immutable once assembled.
type Filing struct {
	Identity
	Sections []*Section
	Format   string // output format marker, always "markdown"
}

// SectionNames returns the canonical section names in first-occurrence order.
func (f *Filing) SectionNames() []string {
	names := make([]string, len(f.Sections))
	for i, s := range f.Sections {
		names[i] = s.Name
	}
	return names
}

// Section is one canonical disclosure section with its ordered content.
type Section struct {
	Name   string // canonical taxonomy name, or the literal heading text if unmatched
	Region string // document region the section was opened in ("" when none applies)
	Source string // provenance kind inherited from the nearest preceding tag ("" = narrative)
	Units  []Unit

	// Entry points back at the taxonomy entry the heading classified to.
	// Nil for sections created from unmatched headings.
	Entry *taxonomy.Entry
}

// Append adds a content unit to the section.
func (s *Section) Append(u Unit) {
	s.Units = append(s.Units, u)
}

// UnitKind tags a section content unit.
type UnitKind int

const (
	UnitParagraph UnitKind = iota
	UnitSubheading
	UnitTable
)

// Unit is one ordered piece of section content: a prose paragraph, a
// nested subheading, or a normalized table.
type Unit struct {
	Kind  UnitKind
	Text  string // paragraph or subheading text
	Table *Table
}

// CellKind classifies a table cell's parsed content.
type CellKind string

const (
	CellText     CellKind = "text"
	CellNumeric  CellKind = "numeric"
	CellCurrency CellKind = "currency"
	CellPercent  CellKind = "percent"
	CellNull     CellKind = "null" // explicit dash placeholder, distinct from missing
)

// Cell is one table cell. Raw always holds the source text verbatim,
// including any bold markers; Value is meaningful only when Parsed is true.
type Cell struct {
	Raw         string
	Kind        CellKind
	Value       float64
	Parsed      bool
	ParseFailed bool // numeric-looking cell that did not parse; Raw is kept as-is
	Bold        bool
}

// Row is one table data row. The first cell is the row label.
type Row struct {
	Cells []Cell
	Total bool // bolded subtotal/total row, not an ordinary line item
}

// Label returns the row label text (first cell's raw value).
func (r Row) Label() string {
	if len(r.Cells) == 0 {
		return ""
	}
	return r.Cells[0].Raw
}

// Table is a normalized rectangular grid: an expanded header row, a label
// column, and typed data cells. Rows all have len(Columns) cells.
type Table struct {
	Title   string
	Columns []string
	Rows    []Row
}

// Width returns the column count of the normalized grid.
func (t *Table) Width() int {
	return len(t.Columns)
}
