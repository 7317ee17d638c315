package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dgunning/filingnotes/internal/filing"
)

var numberRe = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// ParseCell classifies one raw cell and parses its numeric value. The
// raw string is kept verbatim, bold markers included; Value is set only
// when parsing succeeds.
//
// Pattern rules: parenthesized numerals are negative, a leading "$"
// marks currency, a trailing "%" marks percentage, an em or en dash is
// an explicit null placeholder distinct from an empty (missing) cell.
// A cell that signals numeric intent but fails to parse keeps its raw
// text with ParseFailed set; it is never coerced to zero or dropped.
func ParseCell(raw string) filing.Cell {
	cell := filing.Cell{Raw: raw, Kind: filing.CellText}

	core := strings.TrimSpace(raw)
	if inner, ok := stripBold(core); ok {
		cell.Bold = true
		core = inner
	}
	if core == "" {
		return cell // missing, not null
	}

	currency := strings.HasPrefix(core, "$")
	if currency {
		core = strings.TrimSpace(strings.TrimPrefix(core, "$"))
	}
	percent := strings.HasSuffix(core, "%")
	if percent {
		core = strings.TrimSpace(strings.TrimSuffix(core, "%"))
	}

	if isDash(core) {
		cell.Kind = filing.CellNull
		return cell
	}

	negative := false
	hadParens := false
	if strings.HasPrefix(core, "(") && strings.HasSuffix(core, ")") && len(core) > 2 {
		hadParens = true
		negative = true
		core = strings.TrimSpace(core[1 : len(core)-1])
		// "$(72,492)" and "($72,492)" both occur in the wild.
		if strings.HasPrefix(core, "$") {
			currency = true
			core = strings.TrimSpace(strings.TrimPrefix(core, "$"))
		}
	}

	candidate := strings.ReplaceAll(core, ",", "")
	if numberRe.MatchString(candidate) {
		v, err := strconv.ParseFloat(candidate, 64)
		if err == nil {
			if negative {
				v = -v
			}
			cell.Value = v
			cell.Parsed = true
			switch {
			case currency:
				cell.Kind = filing.CellCurrency
			case percent:
				cell.Kind = filing.CellPercent
			default:
				cell.Kind = filing.CellNumeric
			}
			return cell
		}
	}

	// Numeric intent without a parse: flag it, keep the text.
	if currency || percent || hadParens || digitsOnlyish(candidate) {
		cell.ParseFailed = true
	}
	return cell
}

// stripBold removes a surrounding "**" pair. Returns the inner text and
// whether markers were present.
func stripBold(s string) (string, bool) {
	if len(s) >= 4 && strings.HasPrefix(s, "**") && strings.HasSuffix(s, "**") {
		return strings.TrimSpace(s[2 : len(s)-2]), true
	}
	return s, false
}

// isDash reports an explicit null placeholder: an em dash, an en dash,
// or a run of them.
func isDash(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '—' && r != '–' {
			return false
		}
	}
	return true
}

// digitsOnlyish reports whether a failed candidate was clearly meant to
// be a number (digits with stray decimal points), as opposed to prose or
// a date. Those get the parse-failure flag; prose does not.
func digitsOnlyish(s string) bool {
	hasDigit := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r == '.':
		default:
			return false
		}
	}
	return hasDigit
}
