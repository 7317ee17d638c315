package ingest

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// HTMLConverter handles HTML filings, including inline-XBRL documents.
//
// Conversion runs in stages: scan the DOM for ix: fact elements and note
// which headings they sit under, strip the XBRL wrapper markup, sanitize,
// convert the surviving content to pipe-table markdown, then re-insert a
// `<!-- Source: XBRL -->` line after each heading that covered tagged facts.
type HTMLConverter struct{}

const sourceMarkerXBRL = "<!-- Source: XBRL -->"

// Inline XBRL fact elements. A fact beneath a heading marks that heading's
// section as XBRL-sourced.
var xbrlFactTags = map[string]bool{
	"ix:nonfraction": true,
	"ix:nonnumeric":  true,
	"ix:fraction":    true,
}

func (c *HTMLConverter) Convert(r io.Reader, filename string) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	scan := &xbrlScan{tagged: map[string]bool{}}
	scan.walk(doc)
	stripXBRL(doc)

	var rendered strings.Builder
	if err := html.Render(&rendered, doc); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	clean := bluemonday.UGCPolicy().Sanitize(rendered.String())

	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	md, err := conv.ConvertString(clean)
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}

	return injectSourceMarkers(normalizeText(md), scan), nil
}

// xbrlScan records, in document order, which headings have inline XBRL facts
// beneath them. Facts appearing before the first heading tag the document as
// a whole.
type xbrlScan struct {
	tagged   map[string]bool
	document bool
	heading  string
}

func (s *xbrlScan) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch {
		case n.Data == "ix:header" || n.Data == "ix:hidden":
			return // never displayed, facts here tag nothing
		case headingLevel(n.Data) > 0:
			s.heading = headingKey(textContent(n))
		case xbrlFactTags[n.Data]:
			if s.heading != "" {
				s.tagged[s.heading] = true
			} else {
				s.document = true
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		s.walk(c)
	}
}

// stripXBRL removes ix:header and ix:hidden subtrees and unwraps every other
// ix: element in place, so the displayed fact values survive sanitization.
func stripXBRL(n *html.Node) {
	c := n.FirstChild
	for c != nil {
		if c.Type == html.ElementNode && strings.HasPrefix(c.Data, "ix:") {
			if c.Data == "ix:header" || c.Data == "ix:hidden" {
				next := c.NextSibling
				n.RemoveChild(c)
				c = next
				continue
			}
			first := c.FirstChild
			for gc := c.FirstChild; gc != nil; gc = c.FirstChild {
				c.RemoveChild(gc)
				n.InsertBefore(gc, c)
			}
			next := c.NextSibling
			n.RemoveChild(c)
			if first != nil {
				c = first // moved children still need visiting
			} else {
				c = next
			}
			continue
		}
		stripXBRL(c)
		c = c.NextSibling
	}
}

func injectSourceMarkers(md string, scan *xbrlScan) string {
	if !scan.document && len(scan.tagged) == 0 {
		return md
	}
	var out []string
	if scan.document {
		out = append(out, sourceMarkerXBRL, "")
	}
	for _, line := range strings.Split(md, "\n") {
		out = append(out, line)
		if title, ok := headingTitle(line); ok && scan.tagged[headingKey(title)] {
			out = append(out, "", sourceMarkerXBRL)
		}
	}
	return strings.Join(out, "\n")
}

// headingTitle reports the title of an ATX heading line, if the line is one.
func headingTitle(line string) (string, bool) {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n == 0 || n > 6 || n >= len(line) || line[n] != ' ' {
		return "", false
	}
	return strings.TrimSpace(line[n+1:]), true
}

var mdLinkRe = regexp.MustCompile(`\[([^\]]*)\]\([^\)]*\)`)

// headingKey normalizes heading text for matching across the HTML and
// markdown forms, which differ in escaping, emphasis and link markers.
func headingKey(s string) string {
	s = mdLinkRe.ReplaceAllString(s, "$1")
	s = strings.NewReplacer("\\", "", "*", "", "_", "", "`", "").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}
