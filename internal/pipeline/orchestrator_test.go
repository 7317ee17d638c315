package pipeline

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dgunning/filingnotes/internal/config"
	"github.com/dgunning/filingnotes/internal/store"
	"github.com/dgunning/filingnotes/internal/taxonomy"
)

func newTestOrchestrator(t *testing.T, cfg config.Config) *Orchestrator {
	t.Helper()
	dir := t.TempDir()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.Open(filepath.Join(dir, "artifacts"), filepath.Join(dir, "index.db"), log)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	registry := taxonomy.NewRegistry("", log)
	return NewOrchestrator(cfg, registry, st, NewMetrics(prometheus.NewRegistry()), log)
}

func TestOrchestrator_SubmitAfterStopFails(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 4, JobTTL: time.Hour, DocTimeout: time.Minute}
	o := newTestOrchestrator(t, cfg)
	o.Start(context.Background())
	o.Stop()

	job := newTestJob("filing.md", []byte(cleanFiling))
	if err := o.Submit(job); err == nil {
		t.Fatal("expected error submitting after shutdown")
	}
	if job.Status != StatusFailed {
		t.Errorf("expected status %q, got %q", StatusFailed, job.Status)
	}
	if o.GetJob(job.ID) != nil {
		t.Error("rejected job must not be tracked")
	}
}

func TestOrchestrator_StopIsIdempotent(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 4, JobTTL: time.Hour, DocTimeout: time.Minute}
	o := newTestOrchestrator(t, cfg)
	o.Start(context.Background())
	o.Stop()
	o.Stop()
}
