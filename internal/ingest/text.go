package ingest

import (
	"io"
	"strings"
)

// TextConverter handles plain text and markdown files. The input is already
// in the shape the segmenter reads, so conversion only normalizes line
// endings and strips a leading byte order mark.
type TextConverter struct{}

func (c *TextConverter) Convert(r io.Reader, filename string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return normalizeText(string(b)), nil
}

func normalizeText(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}
