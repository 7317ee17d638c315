// Package segment splits raw filing text into an ordered stream of typed
// blocks: headings, paragraphs, pipe-table runs, and provenance tags.
// Anything it cannot recognize stays paragraph text; segmentation never
// fails on malformed input.
package segment

import (
	"iter"
	"regexp"
	"strings"
)

// Kind tags a block variant.
type Kind string

const (
	KindHeading    Kind = "heading"
	KindParagraph  Kind = "paragraph"
	KindTable      Kind = "table"
	KindProvenance Kind = "provenance"
)

// Block is one structural unit of a document. Only the fields for its
// Kind are set: Level and Text for headings, Text for paragraphs, Lines
// and Title for tables, Source for provenance tags.
type Block struct {
	Kind   Kind
	Level  int      // heading level, 1-6
	Text   string   // heading text (markers stripped) or paragraph text (lines joined with \n)
	Lines  []string // raw pipe-delimited rows of a table run, verbatim
	Title  string   // table title captured from an adjacent title line, "" if none
	Source string   // provenance kind, e.g. "XBRL"
}

var (
	headingRe    = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	provenanceRe = regexp.MustCompile(`^<!--\s*Source:\s*(.+?)\s*-->$`)
	tableTitleRe = regexp.MustCompile(`(?i)^table\s*:\s*(\S.*)$`)
)

// Blocks returns a lazy, ordered iterator over the blocks of src. Blocks
// are produced in strict source order and never reordered.
//
// Recognition rules:
//   - 1-6 '#' markers followed by a space open a heading; the marker and
//     any closing '#' run are stripped.
//   - An exact single-line <!-- Source: X --> comment is a provenance tag.
//   - Two or more consecutive lines containing '|' form one table run,
//     captured verbatim. A "Table: <title>" heading directly above the
//     run, or a single unseparated line directly above it, becomes the
//     run's title instead of its own block.
//   - Everything else accumulates into paragraphs split on blank lines.
//
// Malformed structural markers (seven-hash runs, '#' without a space,
// unclosed comments) fall through as paragraph text.
func Blocks(src string) iter.Seq[Block] {
	return func(yield func(Block) bool) {
		lines := strings.Split(src, "\n")

		// para holds pending paragraph lines (always blank-free); pending
		// holds a "Table: ..." heading waiting for a run to claim it.
		var para []string
		var pending Block
		pendingTitle := ""
		havePending := false

		flushPending := func() bool {
			if !havePending {
				return true
			}
			havePending = false
			return yield(pending)
		}
		flushPara := func() bool {
			if len(para) == 0 {
				return true
			}
			text := strings.Join(para, "\n")
			para = nil
			return yield(Block{Kind: KindParagraph, Text: text})
		}

		for i := 0; i < len(lines); i++ {
			line := strings.TrimRight(lines[i], "\r")
			trimmed := strings.TrimSpace(line)

			// Blank lines end a paragraph. A held table title survives
			// blanks so "Table:" headings can sit one line above the run.
			if trimmed == "" {
				if !flushPara() {
					return
				}
				continue
			}

			// Table run: two or more consecutive pipe lines.
			if isPipeLine(trimmed) {
				j := i
				for j < len(lines) && isPipeLine(strings.TrimSpace(strings.TrimRight(lines[j], "\r"))) {
					j++
				}
				if j-i >= 2 {
					run := make([]string, 0, j-i)
					for k := i; k < j; k++ {
						run = append(run, strings.TrimRight(lines[k], "\r"))
					}
					title := ""
					switch {
					case havePending:
						title = pendingTitle
						havePending = false
					case len(para) == 1:
						// A lone unseparated line above the run is its title.
						title = titleText(strings.TrimSpace(para[0]))
						para = nil
					}
					if !flushPara() {
						return
					}
					if !yield(Block{Kind: KindTable, Lines: run, Title: title}) {
						return
					}
					i = j - 1
					continue
				}
				// A lone pipe line is ordinary paragraph text.
			}

			if m := headingRe.FindStringSubmatch(line); m != nil {
				if !flushPending() || !flushPara() {
					return
				}
				text := strings.TrimSpace(trimClosingHashes(m[2]))
				level := len(m[1])
				if tm := tableTitleRe.FindStringSubmatch(text); tm != nil {
					pending = Block{Kind: KindHeading, Level: level, Text: text}
					pendingTitle = strings.TrimSpace(tm[1])
					havePending = true
					continue
				}
				if !yield(Block{Kind: KindHeading, Level: level, Text: text}) {
					return
				}
				continue
			}

			if m := provenanceRe.FindStringSubmatch(trimmed); m != nil {
				if !flushPending() || !flushPara() {
					return
				}
				if !yield(Block{Kind: KindProvenance, Source: m[1]}) {
					return
				}
				continue
			}

			// Ordinary text line. Displaces any held table title.
			if !flushPending() {
				return
			}
			para = append(para, line)
		}

		if !flushPending() {
			return
		}
		flushPara()
	}
}

// Collect drains the block iterator into a slice. Convenience for tests
// and callers that need random access.
func Collect(src string) []Block {
	var out []Block
	for b := range Blocks(src) {
		out = append(out, b)
	}
	return out
}

// isPipeLine reports whether a trimmed line belongs to a table run.
// A leading pipe or at least two pipes is required, so prose with one
// stray pipe never qualifies.
func isPipeLine(trimmed string) bool {
	if trimmed == "" {
		return false
	}
	return strings.HasPrefix(trimmed, "|") || strings.Count(trimmed, "|") >= 2
}

// titleText strips an optional "Table:" prefix from a captured title line.
func titleText(s string) string {
	if m := tableTitleRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// trimClosingHashes strips an ATX closing sequence ("## Title ##").
func trimClosingHashes(s string) string {
	t := strings.TrimRight(s, " \t")
	end := len(t)
	for end > 0 && t[end-1] == '#' {
		end--
	}
	if end == len(t) {
		return t
	}
	// Closing hashes only count when separated from the text by a space.
	if end == 0 || t[end-1] == ' ' || t[end-1] == '\t' {
		return strings.TrimRight(t[:end], " \t")
	}
	return t
}
