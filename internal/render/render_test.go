package render

import (
	"strings"
	"testing"

	"github.com/dgunning/filingnotes/internal/extract"
	"github.com/dgunning/filingnotes/internal/filing"
	"github.com/dgunning/filingnotes/internal/segment"
)

func row(total bool, raws ...string) filing.Row {
	r := filing.Row{Total: total}
	for _, raw := range raws {
		r.Cells = append(r.Cells, extract.ParseCell(raw))
	}
	return r
}

func sampleFiling() *filing.Filing {
	return &filing.Filing{
		Identity: filing.Identity{
			FilingType:      "10-K",
			AccessionNumber: "0001628280-25-004968",
			FilingDate:      "2025-02-28",
			Company:         "Butterfly Network, Inc.",
			Ticker:          "BFLY",
		},
		Format: "markdown",
		Sections: []*filing.Section{
			{
				Name:   "Accrued Expenses and Other Current Liabilities",
				Source: "XBRL",
				Units: []filing.Unit{
					{Kind: filing.UnitParagraph, Text: "Accrued expenses consisted of the following:"},
					{Kind: filing.UnitTable, Table: &filing.Table{
						Title:   "Accrued Expenses",
						Columns: []string{"Item", "2024", "2023"},
						Rows: []filing.Row{
							row(false, "Compensation", "$12,000", "$11,500"),
							row(true, "**Total accrued expenses**", "**$27,695**", "**$23,425**"),
						},
					}},
				},
			},
			{
				Name: "Leases",
				Units: []filing.Unit{
					{Kind: filing.UnitParagraph, Text: "Operating lease costs were flat year over year."},
					{Kind: filing.UnitSubheading, Text: "Lease Maturities"},
				},
			},
		},
	}
}

const wantArtifact = `---
filing_type: 10-K
accession_number: 0001628280-25-004968
filing_date: 2025-02-28
company: Butterfly Network, Inc.
ticker: BFLY
sections:
  - Accrued Expenses and Other Current Liabilities
  - Leases
format: markdown
---

## SECTION: Accrued Expenses and Other Current Liabilities

<!-- Source: XBRL -->

Accrued expenses consisted of the following:

#### Table: Accrued Expenses

| Item | 2024 | 2023 |
| --- | ---: | ---: |
| Compensation | $12,000 | $11,500 |
| **Total accrued expenses** | **$27,695** | **$23,425** |

## SECTION: Leases

Operating lease costs were flat year over year.

### Lease Maturities
`

func TestArtifact_Format(t *testing.T) {
	got := Artifact(sampleFiling())
	if got != wantArtifact {
		t.Errorf("artifact mismatch\n--- expected ---\n%s\n--- got ---\n%s", wantArtifact, got)
	}
}

func TestArtifact_Deterministic(t *testing.T) {
	f := sampleFiling()
	a, b := Artifact(f), Artifact(f)
	if a != b {
		t.Error("expected byte-identical output across runs")
	}
}

func TestArtifact_MissingOptionalFieldsAreNull(t *testing.T) {
	f := &filing.Filing{
		Identity: filing.Identity{FilingType: "10-Q", AccessionNumber: "0000000000-25-000001"},
		Format:   "markdown",
	}
	got := Artifact(f)

	for _, want := range []string{"filing_date: null\n", "company: null\n", "ticker: null\n", "sections: []\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in artifact, got:\n%s", want, got)
		}
	}
}

func TestArtifact_QuotesAwkwardSectionNames(t *testing.T) {
	f := &filing.Filing{
		Identity: filing.Identity{FilingType: "10-K", AccessionNumber: "1"},
		Format:   "markdown",
		Sections: []*filing.Section{
			{Name: "Table: Orphan", Units: []filing.Unit{{Kind: filing.UnitParagraph, Text: "x"}}},
		},
	}
	got := Artifact(f)
	if !strings.Contains(got, "  - \"Table: Orphan\"\n") {
		t.Errorf("expected quoted section name, got:\n%s", got)
	}
	// The body heading stays literal.
	if !strings.Contains(got, "## SECTION: Table: Orphan\n") {
		t.Errorf("expected literal body heading, got:\n%s", got)
	}
}

func TestParseFrontMatter_RoundTrip(t *testing.T) {
	artifact := Artifact(sampleFiling())

	fm, body, err := ParseFrontMatter(artifact)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if fm.FilingType != "10-K" || fm.AccessionNumber != "0001628280-25-004968" {
		t.Errorf("identity mismatch: %+v", fm)
	}
	if fm.Company != "Butterfly Network, Inc." {
		t.Errorf("expected company preserved, got %q", fm.Company)
	}
	if len(fm.Sections) != 2 || fm.Sections[0] != "Accrued Expenses and Other Current Liabilities" {
		t.Errorf("sections mismatch: %v", fm.Sections)
	}
	if fm.Format != "markdown" {
		t.Errorf("expected markdown format, got %q", fm.Format)
	}
	if !strings.HasPrefix(body, "\n## SECTION: ") {
		t.Errorf("expected body after delimiter, got %q", body[:40])
	}
}

func TestParseFrontMatter_NullsComeBackEmpty(t *testing.T) {
	f := &filing.Filing{
		Identity: filing.Identity{FilingType: "10-Q", AccessionNumber: "2"},
		Format:   "markdown",
	}
	fm, _, err := ParseFrontMatter(Artifact(f))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if fm.Ticker != "" || fm.Company != "" || fm.FilingDate != "" {
		t.Errorf("expected empty optional fields, got %+v", fm)
	}
}

func TestParseFrontMatter_RejectsPlainMarkdown(t *testing.T) {
	if _, _, err := ParseFrontMatter("## SECTION: Leases\n"); err == nil {
		t.Fatal("expected error for missing front matter")
	}
}

func TestArtifact_TableRoundTrip(t *testing.T) {
	// Cells reproduce their source text exactly, parsed or failed.
	lines := []string{
		"| Item | 2024 | 2023 |",
		"| Fair value adjustment | (187) | — |",
		"| Odd | $12x4 | 1,250 |",
		"| **Total** | **$(72,492)** | **$23,425** |",
	}
	block := segment.Block{Kind: segment.KindTable, Lines: lines}
	tbl, _ := extract.Normalize(block)

	f := &filing.Filing{
		Identity: filing.Identity{FilingType: "10-K", AccessionNumber: "3"},
		Format:   "markdown",
		Sections: []*filing.Section{
			{Name: "Warrants", Units: []filing.Unit{{Kind: filing.UnitTable, Table: tbl}}},
		},
	}
	got := Artifact(f)

	for _, line := range lines {
		if !strings.Contains(got, line+"\n") {
			t.Errorf("expected line %q reproduced, got:\n%s", line, got)
		}
	}
}

func TestArtifact_AlignmentRow(t *testing.T) {
	block := segment.Block{Kind: segment.KindTable, Lines: []string{
		"| Item | 2024 |",
		"| Revenue | $100 |",
		"| Cost | — |",
	}}
	tbl, _ := extract.Normalize(block)
	f := &filing.Filing{
		Identity: filing.Identity{FilingType: "10-K", AccessionNumber: "4"},
		Format:   "markdown",
		Sections: []*filing.Section{
			{Name: "Revenue", Units: []filing.Unit{{Kind: filing.UnitTable, Table: tbl}}},
		},
	}
	got := Artifact(f)
	if !strings.Contains(got, "| --- | ---: |\n") {
		t.Errorf("expected left label and right numeric alignment, got:\n%s", got)
	}
}
