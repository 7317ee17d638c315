package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dgunning/filingnotes/internal/config"
	"github.com/dgunning/filingnotes/internal/filing"
	"github.com/dgunning/filingnotes/internal/store"
	"github.com/dgunning/filingnotes/internal/taxonomy"
)

func newTestWorker(t *testing.T) (*Worker, *store.Store) {
	t.Helper()
	dir := t.TempDir()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.Open(filepath.Join(dir, "artifacts"), filepath.Join(dir, "index.db"), log)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	registry := taxonomy.NewRegistry("", log)
	metrics := NewMetrics(prometheus.NewRegistry())
	cfg := config.Config{DocTimeout: time.Minute}
	return NewWorker(registry, st, NewParseStats(time.Hour), metrics, log, cfg), st
}

func newTestJob(filename string, data []byte) *Job {
	return &Job{
		ID: NewULID(),
		Identity: filing.Identity{
			FilingType:      "10-K",
			AccessionNumber: "0001628280-25-003074",
			Ticker:          "BFLY",
			Company:         "Butterfly Network, Inc.",
			FilingDate:      "2025-02-28",
		},
		Filename:  filename,
		Status:    StatusQueued,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		fileData:  data,
	}
}

const cleanFiling = `Annual report overview paragraph.

## Revenue

Revenue is recognized when control of promised goods transfers to the customer.
`

func TestWorker_ProcessCompletes(t *testing.T) {
	w, st := newTestWorker(t)
	job := newTestJob("filing.md", []byte(cleanFiling))

	w.Process(context.Background(), job)

	if job.Status != StatusCompleted {
		t.Fatalf("expected status %q, got %q (errors: %v)", StatusCompleted, job.Status, job.Progress.Errors)
	}
	if len(job.ContentHash) != 64 {
		t.Errorf("expected 64-char content hash, got %q", job.ContentHash)
	}
	if job.ArtifactPath == "" {
		t.Error("expected artifact path to be recorded")
	}
	if got := w.stats.Snapshot().Count; got != 1 {
		t.Errorf("expected 1 latency sample, got %d", got)
	}

	rec, err := st.Get(context.Background(), job.Identity.AccessionNumber)
	if err != nil {
		t.Fatalf("expected record in store: %v", err)
	}
	if rec.Status != "completed" {
		t.Errorf("expected stored status %q, got %q", "completed", rec.Status)
	}
	if rec.Sections != 2 {
		t.Errorf("expected 2 sections (preamble plus revenue), got %d", rec.Sections)
	}

	artifact, err := st.Artifact(context.Background(), job.Identity.AccessionNumber)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if !strings.Contains(string(artifact), "## SECTION: Revenue") {
		t.Errorf("expected artifact to contain revenue section, got:\n%s", artifact)
	}
}

func TestWorker_ProcessPartialOnUnmatchedHeading(t *testing.T) {
	w, st := newTestWorker(t)
	text := "## Mystery Disclosure\n\nUnrecognized content.\n"
	job := newTestJob("filing.md", []byte(text))

	w.Process(context.Background(), job)

	if job.Status != StatusPartial {
		t.Fatalf("expected status %q, got %q", StatusPartial, job.Status)
	}
	snap := job.Snapshot()
	if snap.Progress.UnmatchedHeadings != 1 {
		t.Errorf("expected 1 unmatched heading, got %d", snap.Progress.UnmatchedHeadings)
	}

	diags, err := st.Diagnostics(context.Background(), job.Identity.AccessionNumber)
	if err != nil {
		t.Fatalf("read diagnostics: %v", err)
	}
	if len(diags) != 1 {
		t.Fatalf("expected 1 stored diagnostic, got %d", len(diags))
	}
	if diags[0].Kind != filing.DiagUnclassifiedHeading {
		t.Errorf("expected kind %q, got %q", filing.DiagUnclassifiedHeading, diags[0].Kind)
	}
}

func TestWorker_ProcessFailsOnMissingAccession(t *testing.T) {
	w, st := newTestWorker(t)
	job := newTestJob("filing.md", []byte(cleanFiling))
	job.Identity.AccessionNumber = ""

	w.Process(context.Background(), job)

	if job.Status != StatusFailed {
		t.Fatalf("expected status %q, got %q", StatusFailed, job.Status)
	}
	if job.Phase != "compiling" {
		t.Errorf("expected failure in compiling phase, got %q", job.Phase)
	}

	if _, err := st.Get(context.Background(), "0001628280-25-003074"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected no stored record, got err=%v", err)
	}
}

func TestWorker_ProcessFailsOnUnsupportedFormat(t *testing.T) {
	w, _ := newTestWorker(t)
	job := newTestJob("filing.xlsx", []byte("not a filing"))

	w.Process(context.Background(), job)

	if job.Status != StatusFailed {
		t.Fatalf("expected status %q, got %q", StatusFailed, job.Status)
	}
	if job.Phase != "converting" {
		t.Errorf("expected failure in converting phase, got %q", job.Phase)
	}
}
