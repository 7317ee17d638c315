package filing

import (
	"fmt"
	"strings"
)

// MetadataIncompleteError reports mandatory identity fields that were
// missing or blank at assembly time.
type MetadataIncompleteError struct {
	Missing []string
}

func (e *MetadataIncompleteError) Error() string {
	return fmt.Sprintf("filing metadata incomplete: missing %s", strings.Join(e.Missing, ", "))
}

// Assemble builds the immutable Filing record from caller-supplied
// identity and the resolved section list. Sections that ended up with no
// content are dropped; the relative order of the rest is preserved.
// Returns *MetadataIncompleteError when FilingType or AccessionNumber is
// missing.
func Assemble(id Identity, sections []*Section) (*Filing, error) {
	var missing []string
	if strings.TrimSpace(id.FilingType) == "" {
		missing = append(missing, "filing_type")
	}
	if strings.TrimSpace(id.AccessionNumber) == "" {
		missing = append(missing, "accession_number")
	}
	if len(missing) > 0 {
		return nil, &MetadataIncompleteError{Missing: missing}
	}

	kept := make([]*Section, 0, len(sections))
	for _, s := range sections {
		if len(s.Units) == 0 {
			continue
		}
		kept = append(kept, s)
	}

	return &Filing{
		Identity: id,
		Sections: kept,
		Format:   "markdown",
	}, nil
}
