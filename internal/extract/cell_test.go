package extract

import (
	"testing"

	"github.com/dgunning/filingnotes/internal/filing"
)

func TestParseCell_Numbers(t *testing.T) {
	cases := []struct {
		raw   string
		kind  filing.CellKind
		value float64
	}{
		{"187", filing.CellNumeric, 187},
		{"(187)", filing.CellNumeric, -187},
		{"-187", filing.CellNumeric, -187},
		{"1,234,567", filing.CellNumeric, 1234567},
		{"0.43", filing.CellNumeric, 0.43},
		{"$27,695", filing.CellCurrency, 27695},
		{"$(72,492)", filing.CellCurrency, -72492},
		{"($72,492)", filing.CellCurrency, -72492},
		{"$0.01", filing.CellCurrency, 0.01},
		{"12.5%", filing.CellPercent, 12.5},
		{"(3.2)%", filing.CellPercent, -3.2},
	}
	for _, c := range cases {
		got := ParseCell(c.raw)
		if !got.Parsed {
			t.Errorf("%q: expected parsed, got parse failure=%v kind=%s", c.raw, got.ParseFailed, got.Kind)
			continue
		}
		if got.Kind != c.kind {
			t.Errorf("%q: expected kind %s, got %s", c.raw, c.kind, got.Kind)
		}
		if got.Value != c.value {
			t.Errorf("%q: expected value %v, got %v", c.raw, c.value, got.Value)
		}
		if got.Raw != c.raw {
			t.Errorf("%q: raw text not preserved, got %q", c.raw, got.Raw)
		}
	}
}

func TestParseCell_DashIsExplicitNull(t *testing.T) {
	for _, raw := range []string{"—", "–", "$—", "——"} {
		got := ParseCell(raw)
		if got.Kind != filing.CellNull {
			t.Errorf("%q: expected null, got %s", raw, got.Kind)
		}
		if got.Parsed || got.ParseFailed {
			t.Errorf("%q: null must be neither parsed nor failed", raw)
		}
	}
}

func TestParseCell_EmptyIsMissingNotNull(t *testing.T) {
	got := ParseCell("")
	if got.Kind != filing.CellText {
		t.Errorf("expected text kind for empty cell, got %s", got.Kind)
	}
	if got.Parsed || got.ParseFailed {
		t.Error("empty cell must be neither parsed nor failed")
	}
	// The two states must be distinguishable.
	if got.Kind == ParseCell("—").Kind {
		t.Error("empty cell and dash cell must have different kinds")
	}
}

func TestParseCell_Text(t *testing.T) {
	for _, raw := range []string{"Revenue", "Due after one year", "2025-02-28", "N/A"} {
		got := ParseCell(raw)
		if got.Kind != filing.CellText {
			t.Errorf("%q: expected text, got %s", raw, got.Kind)
		}
		if got.Parsed {
			t.Errorf("%q: expected unparsed", raw)
		}
		if got.ParseFailed {
			t.Errorf("%q: prose must not be flagged as a parse failure", raw)
		}
	}
}

func TestParseCell_NumericIntentFailureFlagged(t *testing.T) {
	// Currency/percent/paren markers promise a number; when the number
	// does not parse the cell keeps its text and gets flagged.
	for _, raw := range []string{"$12x4", "4..5%", "(12a)", "1.2.3"} {
		got := ParseCell(raw)
		if !got.ParseFailed {
			t.Errorf("%q: expected parse failure flag", raw)
		}
		if got.Parsed {
			t.Errorf("%q: expected no parsed value", raw)
		}
		if got.Kind != filing.CellText {
			t.Errorf("%q: failed cell stays text, got %s", raw, got.Kind)
		}
		if got.Raw != raw {
			t.Errorf("%q: raw text must be preserved, got %q", raw, got.Raw)
		}
	}
}

func TestParseCell_Bold(t *testing.T) {
	got := ParseCell("**$27,695**")
	if !got.Bold {
		t.Error("expected bold flag")
	}
	if !got.Parsed || got.Value != 27695 {
		t.Errorf("expected parsed 27695, got parsed=%v value=%v", got.Parsed, got.Value)
	}
	if got.Kind != filing.CellCurrency {
		t.Errorf("expected currency, got %s", got.Kind)
	}
	if got.Raw != "**$27,695**" {
		t.Errorf("expected raw with markers, got %q", got.Raw)
	}

	label := ParseCell("**Total revenue**")
	if !label.Bold || label.Kind != filing.CellText {
		t.Errorf("expected bold text label, got bold=%v kind=%s", label.Bold, label.Kind)
	}
}
