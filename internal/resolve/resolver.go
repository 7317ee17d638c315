// Package resolve stitches a classified block stream into an ordered
// list of sections. A two-state machine (no open section / open section)
// is the single source of truth for every transition; it is inherently
// sequential, so one resolver handles exactly one document.
package resolve

import (
	"iter"

	"github.com/dgunning/filingnotes/internal/extract"
	"github.com/dgunning/filingnotes/internal/filing"
	"github.com/dgunning/filingnotes/internal/segment"
	"github.com/dgunning/filingnotes/internal/taxonomy"
)

// PreambleSection names the implicit section holding content that
// precedes the first heading. It surfaces in output only when non-empty.
const PreambleSection = "Preamble"

// Resolver aggregates blocks into sections. Feed blocks in source
// order, then call Finish.
type Resolver struct {
	profile *taxonomy.Profile
	diags   *filing.Diagnostics

	region        string
	open          *filing.Section
	sections      []*filing.Section
	index         map[sectionKey]*filing.Section
	pendingSource string
}

// Sections in different regions never merge, so the index key carries
// the region a section was opened in.
type sectionKey struct {
	region string
	name   string
}

// New creates a resolver for one document. Warnings accumulate into
// diags; the profile supplies classification and region markers and is
// never mutated.
func New(profile *taxonomy.Profile, diags *filing.Diagnostics) *Resolver {
	return &Resolver{
		profile: profile,
		diags:   diags,
		index:   make(map[sectionKey]*filing.Section),
	}
}

// Resolve consumes a whole block stream and returns the ordered sections
// plus the accumulated diagnostics.
func Resolve(blocks iter.Seq[segment.Block], profile *taxonomy.Profile) ([]*filing.Section, filing.Diagnostics) {
	var diags filing.Diagnostics
	r := New(profile, &diags)
	for b := range blocks {
		r.Feed(b)
	}
	return r.Finish(), diags
}

// Feed advances the state machine by one block.
func (r *Resolver) Feed(b segment.Block) {
	switch b.Kind {
	case segment.KindHeading:
		r.heading(b)
	case segment.KindParagraph:
		r.content().Append(filing.Unit{Kind: filing.UnitParagraph, Text: b.Text})
	case segment.KindTable:
		tbl, tdiags := extract.Normalize(b)
		sec := r.content()
		for _, d := range tdiags {
			d.Section = sec.Name
			*r.diags = append(*r.diags, d)
		}
		sec.Append(filing.Unit{Kind: filing.UnitTable, Table: tbl})
	case segment.KindProvenance:
		r.provenance(b.Source)
	}
}

// Finish closes any open section and returns the sections in
// first-occurrence order. Empty sections are kept here; assembly drops
// them.
func (r *Resolver) Finish() []*filing.Section {
	r.open = nil
	return r.sections
}

// heading handles region switches, classification, and the open/extend/
// nest decision.
func (r *Resolver) heading(b segment.Block) {
	if region, ok := r.profile.MatchRegion(b.Text); ok {
		r.region = region
	}

	entry, matched := r.profile.Classify(b.Text)
	name := b.Text
	if matched {
		name = entry.Canonical
	} else {
		r.diags.Add(filing.DiagUnclassifiedHeading, b.Text,
			"heading %q matched no taxonomy entry; kept as a literal section", b.Text)
	}

	// A heading under the currently open section's name is a nested
	// sub-heading ("Public Warrants" inside "Warrants"), not a new
	// top-level section. The raw text is retained.
	if r.open != nil && taxonomy.Normalize(r.open.Name) == taxonomy.Normalize(name) {
		r.stampPending(r.open)
		r.open.Append(filing.Unit{Kind: filing.UnitSubheading, Text: b.Text})
		return
	}

	key := sectionKey{region: r.region, name: taxonomy.Normalize(name)}
	if sec, ok := r.index[key]; ok {
		// Recurrence after other sections intervened. With a region
		// discriminator this is a plain re-open; without one the merge
		// is ambiguous and gets flagged for review.
		if r.region == "" {
			r.diags.Add(filing.DiagDuplicateSection, sec.Name,
				"heading %q recurred with no region discriminator; merged into the earliest section of that name", b.Text)
		}
		r.stampPending(sec)
		r.open = sec
		return
	}

	sec := &filing.Section{Name: name, Region: r.region, Entry: entry}
	r.stampPending(sec)
	r.sections = append(r.sections, sec)
	r.index[key] = sec
	r.open = sec
}

// content returns the section to append content to, opening the
// implicit preamble when nothing is open yet. The preamble is not a
// source heading, so it never produces an unclassified-heading warning.
func (r *Resolver) content() *filing.Section {
	if r.open == nil {
		key := sectionKey{region: r.region, name: taxonomy.Normalize(PreambleSection)}
		sec := r.index[key]
		if sec == nil {
			sec = &filing.Section{Name: PreambleSection, Region: r.region}
			r.stampPending(sec)
			r.sections = append(r.sections, sec)
			r.index[key] = sec
		}
		r.open = sec
	}
	return r.open
}

// stampPending applies the held provenance tag to sec and clears it.
// Every heading transition consumes the tag, so a pending tag can only
// reach the section whose heading immediately follows it. A section
// that already carries a source keeps it.
func (r *Resolver) stampPending(sec *filing.Section) {
	if r.pendingSource == "" {
		return
	}
	if sec.Source == "" {
		sec.Source = r.pendingSource
	}
	r.pendingSource = ""
}

// provenance stamps the open, still-empty section, otherwise holds the
// tag for the next section to open. Sections inherit from the nearest
// preceding tag.
func (r *Resolver) provenance(source string) {
	if r.open != nil && len(r.open.Units) == 0 && r.open.Source == "" {
		r.open.Source = source
		return
	}
	r.pendingSource = source
}
