package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dgunning/filingnotes/internal/filing"
	"github.com/dgunning/filingnotes/internal/store"
)

// handleListFilings lists indexed filings, optionally filtered by ticker.
func (s *Server) handleListFilings(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")

	recs, err := s.orchestrator.Store().List(r.Context(), ticker)
	if err != nil {
		jsonError(w, "failed to list filings: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []store.Record{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"filings": recs,
		"count":   len(recs),
	})
}

// handleGetArtifact serves the raw notes artifact for one filing.
func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	accession := chi.URLParam(r, "accession")

	artifact, err := s.orchestrator.Store().Artifact(r.Context(), accession)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "filing not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to read artifact: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write(artifact)
}

var previewRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

// handlePreviewArtifact renders the artifact body to HTML. The YAML
// front matter is dropped; only the section markdown is rendered.
func (s *Server) handlePreviewArtifact(w http.ResponseWriter, r *http.Request) {
	accession := chi.URLParam(r, "accession")

	artifact, err := s.orchestrator.Store().Artifact(r.Context(), accession)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "filing not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to read artifact: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := previewRenderer.Convert(stripFrontMatter(artifact), &buf); err != nil {
		jsonError(w, "failed to render preview: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// stripFrontMatter drops the leading --- fenced YAML block, if present.
func stripFrontMatter(artifact []byte) []byte {
	if !bytes.HasPrefix(artifact, []byte("---\n")) {
		return artifact
	}
	rest := artifact[len("---\n"):]
	end := bytes.Index(rest, []byte("\n---\n"))
	if end < 0 {
		return artifact
	}
	return rest[end+len("\n---\n"):]
}

// handleFilingDiagnostics returns the parse warnings stored with a filing.
func (s *Server) handleFilingDiagnostics(w http.ResponseWriter, r *http.Request) {
	accession := chi.URLParam(r, "accession")

	diags, err := s.orchestrator.Store().Diagnostics(r.Context(), accession)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "filing not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to read diagnostics: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if diags == nil {
		diags = filing.Diagnostics{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"accession_number": accession,
		"diagnostics":      diags,
		"count":            len(diags),
	})
}

// handleDeleteFiling removes a filing's artifact, index row, and
// diagnostics.
func (s *Server) handleDeleteFiling(w http.ResponseWriter, r *http.Request) {
	accession := chi.URLParam(r, "accession")

	if err := s.orchestrator.Store().Delete(r.Context(), accession); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "filing not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to delete filing: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"deleted": accession})
}
