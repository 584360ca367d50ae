package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/fundgest/internal/dataset"
	"github.com/dgallion1/fundgest/internal/errs"
	"github.com/dgallion1/fundgest/internal/parser"
	"github.com/dgallion1/fundgest/internal/sink"
)

// Worker processes a single document job.
type Worker struct {
	registry *dataset.Registry
	sinks    []sink.Sink
	metrics  *Metrics
	stats    *Stats
	log      *slog.Logger

	parseOpts          parser.Options
	maxConcurrentStore int

	// backoff is swapped out in tests.
	backoff func(attempt int) time.Duration
}

func NewWorker(reg *dataset.Registry, sinks []sink.Sink, metrics *Metrics, stats *Stats, log *slog.Logger, parseOpts parser.Options, maxStore int) *Worker {
	return &Worker{
		registry:           reg,
		sinks:              sinks,
		metrics:            metrics,
		stats:              stats,
		log:                log,
		parseOpts:          parseOpts,
		maxConcurrentStore: max(maxStore, 1),
		backoff:            Backoff,
	}
}

// Process runs parse, extract and store for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "dataset", job.Dataset, "filename", job.Filename)

	proc, ok := w.registry.Lookup(job.Dataset)
	if !ok {
		w.fail(job, "parsing", &errs.NotFoundError{What: "dataset", Label: job.Dataset})
		return
	}

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	in, err := w.input(proc.Kind(), job)
	if err != nil {
		log.Error("parse failed", "error", err)
		w.fail(job, "parsing", fmt.Errorf("parse: %w", err))
		return
	}
	job.releaseInput()

	// Phase 2: Extract
	job.SetStatus(StatusExtracting, "extracting")
	start := time.Now()
	out, err := w.registry.ProcessOne(job.Dataset, in)
	elapsed := time.Since(start)
	if err != nil {
		w.fail(job, "extracting", err)
		return
	}
	w.stats.Record(out.Dataset, elapsed)
	w.metrics.ObserveOutput(out, elapsed.Seconds())
	job.AddOutput(out)
	log.Info("extraction complete", "output", out.Name, "rows", out.Table.Len(), "skipped", len(out.Skipped))

	if len(w.sinks) == 0 {
		job.SetStatus(StatusCompleted, "done")
		return
	}

	// Phase 3: Store
	job.SetStatus(StatusStoring, "storing")
	var failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.maxConcurrentStore)
	for _, s := range w.sinks {
		g.Go(func() error {
			err := w.store(gctx, s, out, job)
			w.metrics.ObserveStore(s.Name(), err)
			if err != nil {
				log.Error("store failed", "sink", s.Name(), "error", err)
				job.AddError(fmt.Sprintf("store %s: %s", s.Name(), err))
				failed.Add(1)
				return nil
			}
			job.IncrStored()
			return nil
		})
	}
	_ = g.Wait()

	switch n := int(failed.Load()); {
	case n == 0:
		job.SetStatus(StatusCompleted, "done")
	case n < len(w.sinks):
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusFailed, "storing")
	}
	log.Info("storage complete", "sinks", len(w.sinks), "failed", failed.Load())
}

// input builds the processor input for the job's upload.
func (w *Worker) input(kind dataset.Kind, job *Job) (dataset.Input, error) {
	in := dataset.Input{Name: job.Filename, Year: job.Year, Text: job.Text()}
	data := job.FileData()

	switch kind {
	case dataset.KindTable:
		if len(data) == 0 {
			return in, &errs.ValidationError{Field: "file", Reason: "spreadsheet upload required"}
		}
		t, err := parser.Table(bytes.NewReader(data), job.Filename)
		if err != nil {
			return in, err
		}
		in.Table = t
	default:
		if len(data) == 0 {
			if in.Text == "" {
				return in, &errs.ValidationError{Field: "file", Reason: "minutes file or text required"}
			}
			return in, nil
		}
		text, err := parser.Text(bytes.NewReader(data), job.Filename, w.parseOpts)
		if err != nil {
			return in, err
		}
		in.Text = text
	}
	return in, nil
}

// store writes out to s, retrying transient failures.
func (w *Worker) store(ctx context.Context, s sink.Sink, out dataset.Output, job *Job) error {
	var lastErr error
	for attempt := range MaxRetries {
		lastErr = s.Write(ctx, out, job.Filename, job.ID)
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
		w.log.Warn("retryable store error", "job_id", job.ID, "sink", s.Name(), "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(w.backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func (w *Worker) fail(job *Job, phase string, err error) {
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, phase)
	w.metrics.ObserveFailure(job.Dataset)
}
