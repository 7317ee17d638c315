// Package notes runs the core parse for one document: segmentation,
// classification, boundary resolution, table normalization, assembly,
// and serialization. Compile does no I/O and shares no state between
// calls, so documents can be compiled concurrently.
package notes

import (
	"github.com/dgunning/filingnotes/internal/filing"
	"github.com/dgunning/filingnotes/internal/render"
	"github.com/dgunning/filingnotes/internal/resolve"
	"github.com/dgunning/filingnotes/internal/segment"
	"github.com/dgunning/filingnotes/internal/taxonomy"
)

// Request is one document to compile. Text is the raw markdownish
// filing text an ingest converter produced.
type Request struct {
	Identity filing.Identity
	Text     string
	Profile  *taxonomy.Profile // nil falls back to the built-in profile
}

// Result is a successful compile: the assembled filing, its serialized
// artifact, and every warning accumulated along the way.
type Result struct {
	Filing      *filing.Filing
	Artifact    string
	Diagnostics filing.Diagnostics
}

// Build parses one document up to the assembled filing, without
// rendering. The only error is missing mandatory identity metadata;
// everything else degrades to diagnostics on a best-effort result.
func Build(req Request) (*filing.Filing, filing.Diagnostics, error) {
	profile := req.Profile
	if profile == nil {
		profile = taxonomy.DefaultProfile()
	}

	sections, diags := resolve.Resolve(segment.Blocks(req.Text), profile)

	f, err := filing.Assemble(req.Identity, sections)
	if err != nil {
		return nil, diags, err
	}
	return f, diags, nil
}

// Compile parses one document end to end, rendering the artifact.
func Compile(req Request) (*Result, error) {
	f, diags, err := Build(req)
	if err != nil {
		return nil, err
	}
	return &Result{
		Filing:      f,
		Artifact:    render.Artifact(f),
		Diagnostics: diags,
	}, nil
}
