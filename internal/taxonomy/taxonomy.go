// Package taxonomy maps raw filing headings to canonical section names.
// Each filer gets a Profile: an ordered set of canonical entries with
// accepted aliases, plus the document regions used to disambiguate
// same-named sections. Profiles are immutable once loaded; a parse never
// mutates shared state.
package taxonomy

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Entry is one canonical section name with its accepted raw-heading
// aliases for a filer.
type Entry struct {
	Canonical string   `yaml:"canonical"`
	Aliases   []string `yaml:"aliases,omitempty"`
}

// Region is a named document partition ("Item 7", "Notes"). Any heading
// matching one of its marker patterns switches the current region.
type Region struct {
	Name    string   `yaml:"name"`
	Markers []string `yaml:"markers"`
}

// Profile is the taxonomy for one filer. Matching policy, in order:
// exact canonical match, case/whitespace-normalized canonical match,
// alias lookup. No fuzzy matching; "Leases" in prose and "Leases" as a
// note title must not merge by edit distance.
type Profile struct {
	Filer    string   `yaml:"filer"`
	Name     string   `yaml:"name,omitempty"`
	Sections []Entry  `yaml:"sections"`
	Regions  []Region `yaml:"regions,omitempty"`

	exact   map[string]int // raw canonical -> entry index
	folded  map[string]int // normalized canonical -> entry index
	aliases map[string]int // normalized alias -> entry index
	markers []regionMarker
}

type regionMarker struct {
	name string
	re   *regexp.Regexp
}

// NewProfile builds and validates a profile from in-code configuration.
// YAML-loaded profiles go through LoadProfile instead.
func NewProfile(filer string, sections []Entry, regions []Region) (*Profile, error) {
	p := &Profile{Filer: filer, Sections: sections, Regions: regions}
	if err := p.finalize(); err != nil {
		return nil, err
	}
	return p, nil
}

// Classify maps a raw heading to its taxonomy entry. The returned Entry
// points into the profile and must not be modified. ok is false for
// unmatched headings; the caller keeps those as literal-text sections.
func (p *Profile) Classify(raw string) (*Entry, bool) {
	if i, ok := p.exact[raw]; ok {
		return &p.Sections[i], true
	}
	n := Normalize(raw)
	if i, ok := p.folded[n]; ok {
		return &p.Sections[i], true
	}
	if i, ok := p.aliases[n]; ok {
		return &p.Sections[i], true
	}
	return nil, false
}

// MatchRegion reports the region a heading opens, if any. Markers are
// tried in profile order; the first match wins.
func (p *Profile) MatchRegion(raw string) (string, bool) {
	for _, m := range p.markers {
		if m.re.MatchString(raw) {
			return m.name, true
		}
	}
	return "", false
}

// finalize builds the lookup indexes and compiles region markers. A
// profile that would classify one heading two ways is rejected.
func (p *Profile) finalize() error {
	p.exact = make(map[string]int, len(p.Sections))
	p.folded = make(map[string]int, len(p.Sections))
	p.aliases = make(map[string]int)

	for i, e := range p.Sections {
		if strings.TrimSpace(e.Canonical) == "" {
			return fmt.Errorf("profile %s: section %d: canonical name required", p.Filer, i)
		}
		n := Normalize(e.Canonical)
		if prev, ok := p.folded[n]; ok {
			return fmt.Errorf("profile %s: duplicate canonical name %q (sections %d and %d)",
				p.Filer, e.Canonical, prev, i)
		}
		p.exact[e.Canonical] = i
		p.folded[n] = i
	}

	for i, e := range p.Sections {
		for _, a := range e.Aliases {
			n := Normalize(a)
			if n == "" {
				return fmt.Errorf("profile %s: section %q: empty alias", p.Filer, e.Canonical)
			}
			if j, ok := p.folded[n]; ok && j != i {
				return fmt.Errorf("profile %s: alias %q of %q collides with canonical name %q",
					p.Filer, a, e.Canonical, p.Sections[j].Canonical)
			}
			if j, ok := p.aliases[n]; ok && j != i {
				return fmt.Errorf("profile %s: alias %q claimed by both %q and %q",
					p.Filer, a, p.Sections[j].Canonical, e.Canonical)
			}
			p.aliases[n] = i
		}
	}

	p.markers = p.markers[:0]
	for _, r := range p.Regions {
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("profile %s: region with empty name", p.Filer)
		}
		for _, pat := range r.Markers {
			re, err := regexp.Compile("(?i)" + pat)
			if err != nil {
				return fmt.Errorf("profile %s: region %s: bad marker %q: %w", p.Filer, r.Name, pat, err)
			}
			p.markers = append(p.markers, regionMarker{name: r.Name, re: re})
		}
	}

	return nil
}

// Normalize reduces a heading for matching: NFKC normalization, Unicode
// case folding, and whitespace collapsed to single spaces. Exposed so
// tests and callers can reason about match keys.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}
