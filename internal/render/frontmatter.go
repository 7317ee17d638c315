package render

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// FrontMatter is the parsed YAML header of an artifact. Null fields come
// back as empty strings.
type FrontMatter struct {
	FilingType      string   `yaml:"filing_type"`
	AccessionNumber string   `yaml:"accession_number"`
	FilingDate      string   `yaml:"filing_date"`
	Company         string   `yaml:"company"`
	Ticker          string   `yaml:"ticker"`
	Sections        []string `yaml:"sections"`
	Format          string   `yaml:"format"`
}

// ErrNoFrontMatter is returned for content that does not open with a
// --- delimited YAML block.
var ErrNoFrontMatter = errors.New("artifact has no front matter")

// ParseFrontMatter reads the YAML header back out of an artifact.
// Returns the front matter and the body that follows the closing
// delimiter.
func ParseFrontMatter(artifact string) (*FrontMatter, string, error) {
	rest, ok := strings.CutPrefix(artifact, "---\n")
	if !ok {
		return nil, "", ErrNoFrontMatter
	}
	head, body, ok := strings.Cut(rest, "\n---\n")
	if !ok {
		// A header with nothing after it is still valid.
		if trimmed, ok := strings.CutSuffix(rest, "\n---"); ok {
			head, body = trimmed, ""
		} else {
			return nil, "", ErrNoFrontMatter
		}
	}

	var fm FrontMatter
	if err := yaml.Unmarshal([]byte(head), &fm); err != nil {
		return nil, "", fmt.Errorf("parse front matter: %w", err)
	}
	return &fm, body, nil
}
