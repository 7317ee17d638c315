package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dgunning/filingnotes/internal/filing"
	"github.com/dgunning/filingnotes/internal/ingest"
	"github.com/dgunning/filingnotes/internal/pipeline"
)

// identityFromForm pulls the filing identity fields out of a multipart
// form. Nothing is validated here; missing mandatory fields fail the job
// at assembly time.
func identityFromForm(r *http.Request) filing.Identity {
	return filing.Identity{
		FilingType:      strings.TrimSpace(r.FormValue("filing_type")),
		AccessionNumber: strings.TrimSpace(r.FormValue("accession_number")),
		FilingDate:      strings.TrimSpace(r.FormValue("filing_date")),
		Company:         strings.TrimSpace(r.FormValue("company")),
		Ticker:          strings.TrimSpace(r.FormValue("ticker")),
	}
}

func newJob(id filing.Identity, filename string, data []byte) *pipeline.Job {
	now := time.Now()
	job := &pipeline.Job{
		ID:        pipeline.NewULID(),
		Identity:  id,
		Status:    pipeline.StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		CreatedAt: now,
		UpdatedAt: now,
	}
	job.SetFileData(data)
	return job
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !ingest.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	job := newJob(identityFromForm(r), filename, data)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":           job.ID,
		"accession_number": job.Identity.AccessionNumber,
		"status":           job.Status,
		"poll_url":         fmt.Sprintf("/api/ingest/%s/status", job.ID),
	})
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

// handleBatchIngest accepts several filings in one multipart request.
// The shared identity fields apply to every file; accession_number
// repeats once per file in the same order.
func (s *Server) handleBatchIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	shared := identityFromForm(r)
	accessions := r.MultipartForm.Value["accession_number"]
	batchID := uuid.NewString()

	var results []map[string]any
	for i, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		if !ingest.IsSupportedExtension(filename) {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)),
			})
			continue
		}

		f, err := fh.Open()
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    "failed to open file",
			})
			continue
		}

		data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
		f.Close()
		if err != nil || int64(len(data)) > s.cfg.MaxUploadBytes {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    "file too large or read error",
			})
			continue
		}

		id := shared
		if i < len(accessions) {
			id.AccessionNumber = strings.TrimSpace(accessions[i])
		} else {
			id.AccessionNumber = ""
		}

		job := newJob(id, filename, data)
		job.BatchID = batchID

		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}

		results = append(results, map[string]any{
			"filename":         filename,
			"job_id":           job.ID,
			"accession_number": id.AccessionNumber,
			"status":           job.Status,
			"poll_url":         fmt.Sprintf("/api/ingest/%s/status", job.ID),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"batch_id": batchID,
		"jobs":     results,
	})
}

// handleEdgarIngest fetches a filing document from the SEC archive and
// queues it like an upload.
func (s *Server) handleEdgarIngest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CIK             string `json:"cik"`
		AccessionNumber string `json:"accession_number"`
		Document        string `json:"document"`
		Ticker          string `json:"ticker"`
		Company         string `json:"company"`
		FilingType      string `json:"filing_type"`
		FilingDate      string `json:"filing_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.CIK == "" || req.AccessionNumber == "" || req.Document == "" {
		jsonError(w, "cik, accession_number and document are required", http.StatusBadRequest)
		return
	}

	filename := sanitizeFilename(req.Document)
	if !ingest.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	var data []byte
	var err error
	for attempt := range pipeline.MaxRetries {
		data, err = s.edgar.FetchDocument(r.Context(), req.CIK, req.AccessionNumber, req.Document)
		if err == nil || !pipeline.IsRetryable(err) {
			break
		}
		s.log.Warn("retryable edgar fetch error", "attempt", attempt, "error", err)
		select {
		case <-time.After(pipeline.Backoff(attempt)):
		case <-r.Context().Done():
			jsonError(w, "request cancelled", http.StatusRequestTimeout)
			return
		}
	}
	if err != nil {
		jsonError(w, "fetch filing: "+err.Error(), http.StatusBadGateway)
		return
	}

	job := newJob(filing.Identity{
		FilingType:      req.FilingType,
		AccessionNumber: req.AccessionNumber,
		FilingDate:      req.FilingDate,
		Company:         req.Company,
		Ticker:          req.Ticker,
	}, filename, data)

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":           job.ID,
		"accession_number": req.AccessionNumber,
		"source_url":       s.edgar.DocumentURL(req.CIK, req.AccessionNumber, req.Document),
		"status":           job.Status,
		"poll_url":         fmt.Sprintf("/api/ingest/%s/status", job.ID),
	})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
