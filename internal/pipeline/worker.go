package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/coursegest/internal/config"
	"github.com/dgallion1/coursegest/internal/doctree"
	"github.com/dgallion1/coursegest/internal/labs"
	"github.com/dgallion1/coursegest/internal/parser"
	"github.com/dgallion1/coursegest/internal/sheet"
	"github.com/dgallion1/coursegest/internal/store"
	"github.com/dgallion1/coursegest/internal/yearbook"
)

// LabsOptions maps configuration onto lab-schedule detection options.
func LabsOptions(cfg config.Config) labs.Options {
	opts := labs.DefaultOptions()
	if cfg.LabsMinHeaderHits > 0 {
		opts.MinHeaderHits = cfg.LabsMinHeaderHits
	}
	if cfg.LabsCaptionLookback > 0 {
		opts.CaptionLookback = cfg.LabsCaptionLookback
	}
	if cfg.DateCenturyBase != 0 {
		opts.CenturyBase = cfg.DateCenturyBase
	}
	return opts
}

// Worker processes a single upload job.
type Worker struct {
	store    store.Store
	log      *slog.Logger
	labsOpts labs.Options
	stats    *RunStats
	backoff  func(attempt int) time.Duration
}

func NewWorker(st store.Store, log *slog.Logger, labsOpts labs.Options, stats *RunStats) *Worker {
	return &Worker{
		store:    st,
		log:      log,
		labsOpts: labsOpts,
		stats:    stats,
		backoff:  Backoff,
	}
}

// Process reads the upload, then runs its extractor against the store. A
// run that fails with a retryable store error is repeated from the start;
// both extractors only replace or merge, so a repeat converges.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "kind", job.Kind, "filename", job.Filename)
	start := time.Now()
	err := w.process(ctx, job, log)
	if w.stats != nil {
		w.stats.Record(job.Kind, time.Since(start), err != nil)
	}
	if err != nil {
		log.Error("run failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, job.Snapshot().Phase)
		return
	}
	log.Info("run completed", "duration_ms", time.Since(start).Milliseconds())
	job.SetStatus(StatusCompleted, "done")
}

func (w *Worker) process(ctx context.Context, job *Job, log *slog.Logger) error {
	job.SetStatus(StatusReading, "reading")
	var (
		wb  *sheet.Workbook
		doc *doctree.Document
		err error
	)
	switch job.Kind {
	case KindLabs:
		wb, err = parser.OpenWorkbook(bytes.NewReader(job.FileData()), job.Filename)
	case KindYearbook:
		doc, err = parser.OpenDocument(bytes.NewReader(job.FileData()), job.Filename)
	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", job.Filename, err)
	}
	job.releaseFile()

	job.SetStatus(StatusIngesting, "ingesting")
	for attempt := 0; ; attempt++ {
		job.NextAttempt()
		err = w.ingest(ctx, job, wb, doc, log)
		if err == nil || !IsRetryable(err) || attempt+1 >= MaxRetries {
			return err
		}
		wait := w.backoff(attempt)
		log.Warn("retryable store error", "attempt", attempt+1, "retry_in", wait, "error", err)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *Worker) ingest(ctx context.Context, job *Job, wb *sheet.Workbook, doc *doctree.Document, log *slog.Logger) error {
	switch job.Kind {
	case KindLabs:
		st, err := labs.NewIngester(w.store, log, w.labsOpts).Run(ctx, wb, *job.Labs)
		job.SetLabsResult(st)
		return err
	case KindYearbook:
		st, err := yearbook.NewIngester(w.store, log).Run(ctx, doc, *job.Yearbook)
		job.SetYearbookResult(st)
		return err
	}
	return fmt.Errorf("unknown job kind %q", job.Kind)
}
