package segment

import (
	"strings"
	"testing"
)

func TestBlocks_HeadingLevels(t *testing.T) {
	src := "# One\n\n## Two\n\n###### Six"
	blocks := Collect(src)

	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	wantLevels := []int{1, 2, 6}
	wantText := []string{"One", "Two", "Six"}
	for i, b := range blocks {
		if b.Kind != KindHeading {
			t.Errorf("block %d: expected heading, got %s", i, b.Kind)
		}
		if b.Level != wantLevels[i] {
			t.Errorf("block %d: expected level %d, got %d", i, wantLevels[i], b.Level)
		}
		if b.Text != wantText[i] {
			t.Errorf("block %d: expected text %q, got %q", i, wantText[i], b.Text)
		}
	}
}

func TestBlocks_ClosingHashesStripped(t *testing.T) {
	blocks := Collect("## Income Taxes ##")
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Text != "Income Taxes" {
		t.Errorf("expected %q, got %q", "Income Taxes", blocks[0].Text)
	}
}

func TestBlocks_MalformedMarkersBecomeParagraphs(t *testing.T) {
	// Seven hashes, hash without a space, and an unclosed comment are all
	// plain text, never errors.
	cases := []string{
		"####### Too Deep",
		"#NoSpace",
		"<!-- Source: XBRL",
	}
	for _, src := range cases {
		blocks := Collect(src)
		if len(blocks) != 1 {
			t.Fatalf("%q: expected 1 block, got %d", src, len(blocks))
		}
		if blocks[0].Kind != KindParagraph {
			t.Errorf("%q: expected paragraph, got %s", src, blocks[0].Kind)
		}
		if blocks[0].Text != src {
			t.Errorf("%q: expected text preserved, got %q", src, blocks[0].Text)
		}
	}
}

func TestBlocks_ProvenanceTag(t *testing.T) {
	blocks := Collect("<!-- Source: XBRL -->")
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Kind != KindProvenance {
		t.Fatalf("expected provenance, got %s", blocks[0].Kind)
	}
	if blocks[0].Source != "XBRL" {
		t.Errorf("expected source XBRL, got %q", blocks[0].Source)
	}
}

func TestBlocks_OtherCommentsAreParagraphs(t *testing.T) {
	blocks := Collect("<!-- generated by tooling -->")
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Kind != KindParagraph {
		t.Errorf("expected paragraph, got %s", blocks[0].Kind)
	}
}

func TestBlocks_ParagraphsSplitOnBlankLines(t *testing.T) {
	src := "First line\ncontinues here.\n\nSecond paragraph."
	blocks := Collect(src)

	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Text != "First line\ncontinues here." {
		t.Errorf("expected joined lines, got %q", blocks[0].Text)
	}
	if blocks[1].Text != "Second paragraph." {
		t.Errorf("expected %q, got %q", "Second paragraph.", blocks[1].Text)
	}
}

func TestBlocks_TableRunCapturedWhole(t *testing.T) {
	src := strings.Join([]string{
		"| Label | 2024 | 2023 |",
		"| Revenue | $100 | $90 |",
		"| **Total** | **$100** | **$90** |",
	}, "\n")
	blocks := Collect(src)

	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	b := blocks[0]
	if b.Kind != KindTable {
		t.Fatalf("expected table, got %s", b.Kind)
	}
	if len(b.Lines) != 3 {
		t.Fatalf("expected 3 raw lines, got %d", len(b.Lines))
	}
	if b.Lines[2] != "| **Total** | **$100** | **$90** |" {
		t.Errorf("expected verbatim line, got %q", b.Lines[2])
	}
}

func TestBlocks_LonePipeLineIsParagraph(t *testing.T) {
	blocks := Collect("revenue | growth")
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Kind != KindParagraph {
		t.Errorf("expected paragraph, got %s", blocks[0].Kind)
	}
}

func TestBlocks_ProseWithStrayPipesStaysParagraph(t *testing.T) {
	src := "Costs rose | mainly on fuel.\nMargins narrowed | in the second half."
	blocks := Collect(src)

	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Kind != KindParagraph {
		t.Errorf("expected paragraph, got %s", blocks[0].Kind)
	}
}

func TestBlocks_UnfencedRowsWithTwoPipesFormTable(t *testing.T) {
	src := "Segment | Revenue | Margin\nRetail | $420 | 12%"
	blocks := Collect(src)

	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Kind != KindTable {
		t.Errorf("expected table, got %s", blocks[0].Kind)
	}
}

func TestBlocks_TableTitleFromHeading(t *testing.T) {
	src := "#### Table: Accrued Expenses\n\n| A | B |\n| 1 | 2 |"
	blocks := Collect(src)

	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Kind != KindTable {
		t.Fatalf("expected table, got %s", blocks[0].Kind)
	}
	if blocks[0].Title != "Accrued Expenses" {
		t.Errorf("expected title %q, got %q", "Accrued Expenses", blocks[0].Title)
	}
}

func TestBlocks_TableTitleFromAdjacentLine(t *testing.T) {
	// A single line touching the run becomes its title.
	src := "Depreciation by segment\n| A | B |\n| 1 | 2 |"
	blocks := Collect(src)

	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Title != "Depreciation by segment" {
		t.Errorf("expected adjacent-line title, got %q", blocks[0].Title)
	}
}

func TestBlocks_MultiLineParagraphAboveTableKept(t *testing.T) {
	// Prose running into a table stays a paragraph; the table gets no title.
	src := "The following summarizes\nthe balances:\n| A | B |\n| 1 | 2 |"
	blocks := Collect(src)

	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Kind != KindParagraph {
		t.Fatalf("expected paragraph first, got %s", blocks[0].Kind)
	}
	if blocks[1].Kind != KindTable {
		t.Fatalf("expected table second, got %s", blocks[1].Kind)
	}
	if blocks[1].Title != "" {
		t.Errorf("expected empty title, got %q", blocks[1].Title)
	}
}

func TestBlocks_SeparatedLineAboveTableStaysParagraph(t *testing.T) {
	// A blank line between text and table breaks title adjacency.
	src := "Not a title\n\n| A | B |\n| 1 | 2 |"
	blocks := Collect(src)

	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Kind != KindParagraph || blocks[0].Text != "Not a title" {
		t.Errorf("expected paragraph %q, got %s %q", "Not a title", blocks[0].Kind, blocks[0].Text)
	}
	if blocks[1].Title != "" {
		t.Errorf("expected untitled table, got %q", blocks[1].Title)
	}
}

func TestBlocks_TableTitleHeadingSurvivesBlankLine(t *testing.T) {
	src := "#### Table: Lease Maturities\n\n\n| A | B |\n| 1 | 2 |"
	blocks := Collect(src)

	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Title != "Lease Maturities" {
		t.Errorf("expected title %q, got %q", "Lease Maturities", blocks[0].Title)
	}
}

func TestBlocks_DanglingTableHeadingEmittedAsHeading(t *testing.T) {
	// A "Table:" heading with no run after it is an ordinary heading.
	src := "#### Table: Orphan\n\nJust prose."
	blocks := Collect(src)

	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Kind != KindHeading {
		t.Fatalf("expected heading, got %s", blocks[0].Kind)
	}
	if blocks[0].Text != "Table: Orphan" {
		t.Errorf("expected original heading text, got %q", blocks[0].Text)
	}
}

func TestBlocks_SourceOrderPreserved(t *testing.T) {
	src := strings.Join([]string{
		"## Leases",
		"",
		"<!-- Source: XBRL -->",
		"",
		"Operating lease costs were flat.",
		"",
		"| Year | Amount |",
		"| 2025 | $1,200 |",
		"",
		"## Income Taxes",
	}, "\n")
	blocks := Collect(src)

	wantKinds := []Kind{KindHeading, KindProvenance, KindParagraph, KindTable, KindHeading}
	if len(blocks) != len(wantKinds) {
		t.Fatalf("expected %d blocks, got %d", len(wantKinds), len(blocks))
	}
	for i, k := range wantKinds {
		if blocks[i].Kind != k {
			t.Errorf("block %d: expected %s, got %s", i, k, blocks[i].Kind)
		}
	}
}

func TestBlocks_Lazy(t *testing.T) {
	// The iterator stops producing when the consumer stops.
	src := "# A\n\n# B\n\n# C"
	var got []string
	for b := range Blocks(src) {
		got = append(got, b.Text)
		if len(got) == 2 {
			break
		}
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 blocks consumed, got %d", len(got))
	}
	if got[0] != "A" || got[1] != "B" {
		t.Errorf("expected [A B], got %v", got)
	}
}

func TestBlocks_EmptyInput(t *testing.T) {
	if blocks := Collect(""); len(blocks) != 0 {
		t.Errorf("expected 0 blocks, got %d", len(blocks))
	}
	if blocks := Collect("\n\n\n"); len(blocks) != 0 {
		t.Errorf("expected 0 blocks for blank input, got %d", len(blocks))
	}
}

func TestBlocks_CRLFTolerated(t *testing.T) {
	blocks := Collect("## Warrants\r\n\r\nSome text.\r\n")
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Text != "Warrants" {
		t.Errorf("expected %q, got %q", "Warrants", blocks[0].Text)
	}
	if blocks[1].Text != "Some text." {
		t.Errorf("expected %q, got %q", "Some text.", blocks[1].Text)
	}
}
