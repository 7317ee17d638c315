package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgunning/filingnotes/internal/filing"
)

// JobStatus represents the state of a filing job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusConverting JobStatus = "converting"
	StatusCompiling  JobStatus = "compiling"
	StatusRendering  JobStatus = "rendering"
	StatusStoring    JobStatus = "storing"
	StatusCompleted  JobStatus = "completed"
	StatusPartial    JobStatus = "partial"
	StatusFailed     JobStatus = "failed"
)

// Job tracks the state of a single filing through the pipeline.
type Job struct {
	mu sync.Mutex

	ID      string
	BatchID string

	Identity filing.Identity
	Filename string

	Status JobStatus
	Phase  string

	Progress Progress

	ContentHash  string
	ArtifactPath string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	fileData    []byte
	diagnostics filing.Diagnostics
	errors      []string
}

// Progress tracks compile results surfaced while the job runs.
type Progress struct {
	Sections          int      `json:"sections"`
	Tables            int      `json:"tables"`
	ParseFailures     int      `json:"parse_failures"`
	UnmatchedHeadings int      `json:"unmatched_headings"`
	Errors            []string `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetCounts records the compile result counts.
func (j *Job) SetCounts(sections, tables, parseFailures, unmatched int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Sections = sections
	j.Progress.Tables = tables
	j.Progress.ParseFailures = parseFailures
	j.Progress.UnmatchedHeadings = unmatched
	j.UpdatedAt = time.Now()
}

// SetContentHash records the hash of the converted text.
func (j *Job) SetContentHash(hash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = hash
	j.UpdatedAt = time.Now()
}

// SetArtifactPath records where the rendered artifact was stored.
func (j *Job) SetArtifactPath(path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ArtifactPath = path
	j.UpdatedAt = time.Now()
}

// SetDiagnostics attaches the compile warnings.
func (j *Job) SetDiagnostics(diags filing.Diagnostics) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.diagnostics = diags
	j.UpdatedAt = time.Now()
}

// Diagnostics returns the compile warnings recorded so far.
func (j *Job) Diagnostics() filing.Diagnostics {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.diagnostics
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID              string    `json:"job_id"`
	BatchID         string    `json:"batch_id,omitempty"`
	AccessionNumber string    `json:"accession_number"`
	Ticker          string    `json:"ticker,omitempty"`
	FilingType      string    `json:"filing_type"`
	Status          JobStatus `json:"status"`
	Phase           string    `json:"phase"`
	Filename        string    `json:"filename"`
	ArtifactPath    string    `json:"artifact_path,omitempty"`
	Progress        Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:              j.ID,
		BatchID:         j.BatchID,
		AccessionNumber: j.Identity.AccessionNumber,
		Ticker:          j.Identity.Ticker,
		FilingType:      j.Identity.FilingType,
		Status:          j.Status,
		Phase:           j.Phase,
		Filename:        j.Filename,
		ArtifactPath:    j.ArtifactPath,
		Progress: Progress{
			Sections:          j.Progress.Sections,
			Tables:            j.Progress.Tables,
			ParseFailures:     j.Progress.ParseFailures,
			UnmatchedHeadings: j.Progress.UnmatchedHeadings,
			Errors:            errs,
		},
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
