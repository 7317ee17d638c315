package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgunning/filingnotes/internal/config"
	"github.com/dgunning/filingnotes/internal/filing"
	"github.com/dgunning/filingnotes/internal/ingest"
	"github.com/dgunning/filingnotes/internal/notes"
	"github.com/dgunning/filingnotes/internal/render"
	"github.com/dgunning/filingnotes/internal/store"
	"github.com/dgunning/filingnotes/internal/taxonomy"
)

// Worker processes a single filing job.
type Worker struct {
	registry    *taxonomy.Registry
	store       *store.Store
	stats       *ParseStats
	metrics     *Metrics
	log         *slog.Logger
	timeout     time.Duration
	pdfFallback bool
}

func NewWorker(registry *taxonomy.Registry, st *store.Store, stats *ParseStats, metrics *Metrics, log *slog.Logger, cfg config.Config) *Worker {
	return &Worker{
		registry:    registry,
		store:       st,
		stats:       stats,
		metrics:     metrics,
		log:         log,
		timeout:     cfg.DocTimeout,
		pdfFallback: cfg.PDFFallbackPdftotext,
	}
}

// Process runs the full pipeline for a job: convert, compile, render,
// store. A failure in one document never touches any other.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "accession", job.Identity.AccessionNumber, "filename", job.Filename)

	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	start := time.Now()

	// Phase 1: Convert
	job.SetStatus(StatusConverting, "converting")
	conv, err := ingest.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		w.finish(job, StatusFailed, "converting")
		return
	}
	if pdf, ok := conv.(*ingest.PDFConverter); ok {
		pdf.FallbackPdftotext = w.pdfFallback
	}

	text, err := conv.Convert(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("conversion failed", "error", err)
		job.AddError(fmt.Sprintf("convert: %s", err))
		w.finish(job, StatusFailed, "converting")
		return
	}
	job.SetContentHash(ContentHashHex([]byte(text)))

	// Phase 2: Compile
	job.SetStatus(StatusCompiling, "compiling")
	f, diags, err := notes.Build(notes.Request{
		Identity: job.Identity,
		Text:     text,
		Profile:  w.registry.Lookup(job.Identity.Ticker),
	})
	if err != nil {
		log.Error("compile failed", "error", err)
		job.AddError(err.Error())
		w.finish(job, StatusFailed, "compiling")
		return
	}
	job.SetDiagnostics(diags)

	tables := 0
	for _, sec := range f.Sections {
		for _, u := range sec.Units {
			if u.Kind == filing.UnitTable {
				tables++
			}
		}
	}
	parseFailures := diags.Count(filing.DiagCellParseFailure)
	unmatched := diags.Count(filing.DiagUnclassifiedHeading)
	job.SetCounts(len(f.Sections), tables, parseFailures, unmatched)

	// Phase 3: Render
	job.SetStatus(StatusRendering, "rendering")
	artifact := render.Artifact(f)

	// Phase 4: Store
	job.SetStatus(StatusStoring, "storing")
	status := StatusCompleted
	if len(diags) > 0 {
		status = StatusPartial
	}
	rec := store.Record{
		AccessionNumber: job.Identity.AccessionNumber,
		Ticker:          job.Identity.Ticker,
		Company:         job.Identity.Company,
		FilingType:      job.Identity.FilingType,
		FilingDate:      job.Identity.FilingDate,
		ContentHash:     job.ContentHash,
		Sections:        len(f.Sections),
		Tables:          tables,
		ParseFailures:   parseFailures,
		Unmatched:       unmatched,
		Status:          string(status),
		CreatedAt:       job.CreatedAt,
	}
	saved, err := w.saveWithRetry(ctx, log, rec, []byte(artifact), diags)
	if err != nil {
		log.Error("store failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		w.finish(job, StatusFailed, "storing")
		return
	}
	job.SetArtifactPath(saved.ArtifactPath)

	w.stats.Record(time.Since(start).Milliseconds())
	w.metrics.SectionsDetected.Add(float64(len(f.Sections)))
	w.metrics.TablesNormalized.Add(float64(tables))
	w.metrics.CellParseFailures.Add(float64(parseFailures))
	w.metrics.UnmatchedHeadings.Add(float64(unmatched))
	w.metrics.CompileDuration.Observe(time.Since(start).Seconds())

	w.finish(job, status, "done")
	log.Info("filing processed", "status", status, "sections", len(f.Sections), "tables", tables, "warnings", len(diags))
}

// saveWithRetry persists the record, retrying transient failures.
func (w *Worker) saveWithRetry(ctx context.Context, log *slog.Logger, rec store.Record, artifact []byte, diags filing.Diagnostics) (store.Record, error) {
	var saved store.Record
	var lastErr error
	for attempt := range MaxRetries {
		saved, lastErr = w.store.Save(ctx, rec, artifact, diags)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		log.Warn("retryable store error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return saved, ctx.Err()
		}
	}
	return saved, lastErr
}

func (w *Worker) finish(job *Job, status JobStatus, phase string) {
	job.SetStatus(status, phase)
	w.metrics.FilingsProcessed.WithLabelValues(string(status)).Inc()
}
