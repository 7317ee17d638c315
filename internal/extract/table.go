// Package extract converts raw pipe-table runs into normalized Table
// records: a rectangular grid of typed cells under an expanded header.
package extract

import (
	"regexp"
	"strings"

	"github.com/dgunning/filingnotes/internal/filing"
	"github.com/dgunning/filingnotes/internal/segment"
)

var (
	separatorCellRe = regexp.MustCompile(`^:?-{3,}:?$`)
	spanSepRe       = regexp.MustCompile(`\s+-\s+`)
)

// Normalize converts a raw table block into a Table. The first
// non-separator row is the header; merged header cells spanning several
// columns ("2025 - Effective Interest Rate - $86,781") are expanded to
// the grid width; short rows are padded with missing cells. Cells are
// never dropped. Returned diagnostics carry one entry per cell that
// failed numeric parsing, with the section left blank for the caller to
// stamp.
func Normalize(b segment.Block) (*filing.Table, filing.Diagnostics) {
	var diags filing.Diagnostics

	var rows [][]string
	for _, line := range b.Lines {
		cells := splitRow(line)
		if len(cells) == 0 || isSeparatorRow(cells) {
			continue
		}
		rows = append(rows, cells)
	}

	t := &filing.Table{Title: strings.TrimSpace(b.Title)}
	if len(rows) == 0 {
		return t, diags
	}

	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}

	header := expandHeader(rows[0], width)
	if len(header) > width {
		width = len(header)
	}
	t.Columns = pad(header, width)

	for i, raw := range rows[1:] {
		raw = pad(raw, width)
		row := filing.Row{Cells: make([]filing.Cell, 0, width)}
		for _, rc := range raw {
			row.Cells = append(row.Cells, ParseCell(rc))
		}
		row.Total = row.Cells[0].Bold
		for j, c := range row.Cells {
			if c.ParseFailed {
				diags.Add(filing.DiagCellParseFailure, "",
					"row %d, column %d: %q did not parse", i+1, j+1, c.Raw)
			}
		}
		t.Rows = append(t.Rows, row)
	}

	return t, diags
}

// splitRow splits one pipe line into trimmed cell strings. Boundary
// pipes are optional.
func splitRow(line string) []string {
	s := strings.TrimSpace(line)
	if s == "" {
		return nil
	}
	s = strings.TrimPrefix(s, "|")
	s = strings.TrimSuffix(s, "|")
	parts := strings.Split(s, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// isSeparatorRow reports a markdown alignment row ("| --- | ---: |").
// Those carry no data; the serializer re-emits its own.
func isSeparatorRow(cells []string) bool {
	seen := false
	for _, c := range cells {
		if c == "" {
			continue
		}
		if !separatorCellRe.MatchString(c) {
			return false
		}
		seen = true
	}
	return seen
}

// expandHeader widens a header that is narrower than its data rows by
// splitting combined cells on embedded " - " separators, left to right,
// until the grid width is reached or no combined cells remain.
func expandHeader(header []string, width int) []string {
	out := make([]string, len(header))
	copy(out, header)

	for len(out) < width {
		split := false
		for i, c := range out {
			parts := spanSepRe.Split(c, -1)
			if len(parts) < 2 {
				continue
			}
			expanded := make([]string, 0, len(out)+len(parts)-1)
			expanded = append(expanded, out[:i]...)
			for _, p := range parts {
				expanded = append(expanded, strings.TrimSpace(p))
			}
			expanded = append(expanded, out[i+1:]...)
			out = expanded
			split = true
			break
		}
		if !split {
			break
		}
	}

	return pad(out, width)
}

// pad extends cells with empty strings up to width.
func pad(cells []string, width int) []string {
	for len(cells) < width {
		cells = append(cells, "")
	}
	return cells
}
