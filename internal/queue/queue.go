// Package queue holds the UI-side job list and runs it against the orchestration API.
package queue

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pdfsuite/internal/ipc"
	"pdfsuite/internal/models"
)

// BatchResult summarizes one run
type BatchResult struct {
	Records   []models.JobRecord
	Succeeded int
	Failed    int
	// OpenedDir is the folder shown to the user after the run, if any
	OpenedDir string
}

func (b *BatchResult) add(rec models.JobRecord) {
	b.Records = append(b.Records, rec)
	if rec.Status == models.StatusDone {
		b.Succeeded++
	} else {
		b.Failed++
	}
}

// Option configures a Queue
type Option func(*Queue)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		if now != nil {
			q.now = now
		}
	}
}

// WithLogger sets the queue logger
func WithLogger(logger zerolog.Logger) Option {
	return func(q *Queue) {
		q.logger = logger.With().Str("component", "queue").Logger()
	}
}

// Queue is an ordered, in-memory list of job records. Jobs run one at a time.
type Queue struct {
	api ipc.API

	mu        sync.Mutex
	records   []*models.JobRecord
	observers []func(models.JobRecord)

	now    func() time.Time
	logger zerolog.Logger
}

// New creates an empty queue backed by api
func New(api ipc.API, opts ...Option) *Queue {
	q := &Queue{
		api:    api,
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// OnChange registers an observer called with a copy of every record that changes
func (q *Queue) OnChange(fn func(models.JobRecord)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.observers = append(q.observers, fn)
}

// Add appends a queued record
func (q *Queue) Add(displayName string, desc models.Descriptor) models.JobRecord {
	rec := q.newRecord(displayName, desc, models.StatusQueued)
	q.attach(rec)
	return q.snapshot(rec)
}

// AddPaths queues every path with a supported to-PDF extension and reports the rest
func (q *Queue) AddPaths(paths []string) ([]models.JobRecord, []error) {
	var (
		added []models.JobRecord
		errs  []error
	)
	for _, p := range paths {
		kind, err := models.KindForPath(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		added = append(added, q.Add(filepath.Base(p), models.Descriptor{Kind: kind, SourcePath: p}))
	}
	return added, errs
}

// RunImmediate converts one job right away. The record starts in converting.
func (q *Queue) RunImmediate(ctx context.Context, displayName string, desc models.Descriptor) models.JobRecord {
	rec := q.newRecord(displayName, desc, models.StatusConverting)
	rec.StartedAt = q.now()
	q.attach(rec)

	q.finish(rec, q.convert(ctx, rec.Descriptor))
	return q.snapshot(rec)
}

// RunAll converts every queued record in insertion order. A failure does not stop the batch.
// When openFolderAfterBatch is set, the folder of the first success is opened afterwards.
func (q *Queue) RunAll(ctx context.Context) BatchResult {
	q.mu.Lock()
	var pending []*models.JobRecord
	for _, rec := range q.records {
		if rec.Status == models.StatusQueued {
			pending = append(pending, rec)
		}
	}
	q.mu.Unlock()

	var result BatchResult
	if len(pending) == 0 {
		return result
	}

	firstDir := ""
	for _, rec := range pending {
		if !q.start(rec) {
			continue
		}
		out := q.convert(ctx, rec.Descriptor)
		q.finish(rec, out)

		final := q.snapshot(rec)
		result.add(final)
		if firstDir == "" && final.Status == models.StatusDone {
			firstDir = outputDir(final)
		}
	}

	q.logger.Info().
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("batch finished")

	result.OpenedDir = q.openAfterBatch(ctx, firstDir)
	return result
}

// Clear drops every record. A conversion in flight keeps updating its own detached record.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.records = nil
}

// Records returns copies of the current records in insertion order
func (q *Queue) Records() []models.JobRecord {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]models.JobRecord, 0, len(q.records))
	for _, rec := range q.records {
		out = append(out, *rec)
	}
	return out
}

// Stats counts records by status
func (q *Queue) Stats() models.Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	var s models.Stats
	s.Total = len(q.records)
	for _, rec := range q.records {
		switch rec.Status {
		case models.StatusQueued:
			s.Queued++
		case models.StatusConverting:
			s.Converting++
		case models.StatusDone:
			s.Succeeded++
		case models.StatusFailed:
			s.Failed++
		}
	}
	return s
}

func (q *Queue) newRecord(displayName string, desc models.Descriptor, status models.Status) *models.JobRecord {
	desc.SourcePath = absPath(desc.SourcePath)
	if displayName == "" {
		displayName = filepath.Base(desc.SourcePath)
	}
	return &models.JobRecord{
		ID:          uuid.NewString(),
		DisplayName: displayName,
		Descriptor:  desc,
		Status:      status,
	}
}

func (q *Queue) attach(rec *models.JobRecord) {
	q.mu.Lock()
	q.records = append(q.records, rec)
	q.mu.Unlock()
	q.notify(rec)
}

// start moves a queued record to converting; false if it already left queued
func (q *Queue) start(rec *models.JobRecord) bool {
	q.mu.Lock()
	err := rec.Transition(models.StatusConverting, q.now())
	q.mu.Unlock()
	if err != nil {
		q.logger.Debug().Err(err).Str("job", rec.ID).Msg("skipping record")
		return false
	}
	q.notify(rec)
	return true
}

func (q *Queue) finish(rec *models.JobRecord, out models.Outcome) {
	q.mu.Lock()
	err := rec.Apply(out, q.now())
	q.mu.Unlock()
	if err != nil {
		q.logger.Warn().Err(err).Str("job", rec.ID).Msg("dropping outcome")
		return
	}

	if out.Success {
		q.logger.Info().Str("job", rec.ID).Str("output", outputDir(q.snapshot(rec))).Msg("job done")
	} else {
		q.logger.Warn().Str("job", rec.ID).Str("kind", string(out.ErrorKind)).Msg(out.Error)
	}
	q.notify(rec)
}

// convert routes the descriptor to the matching API operation.
// Transport errors become failed outcomes.
func (q *Queue) convert(ctx context.Context, desc models.Descriptor) models.Outcome {
	var (
		out models.Outcome
		err error
	)
	if desc.Kind.FromPDF() {
		out, err = q.api.ConvertFromPDF(ctx, desc)
	} else {
		out, err = q.api.ConvertToPDF(ctx, desc)
	}
	if err != nil {
		return models.Failed(fmt.Errorf("conversion request failed: %w", err))
	}
	return out
}

// openAfterBatch opens dir when the user asked for it and returns what was opened
func (q *Queue) openAfterBatch(ctx context.Context, dir string) string {
	if dir == "" {
		return ""
	}
	st, err := q.api.GetSettings(ctx)
	if err != nil {
		q.logger.Warn().Err(err).Msg("failed to read settings after batch")
		return ""
	}
	if !st.OpenFolderAfterBatch {
		return ""
	}
	if err := q.api.OpenPath(ctx, dir); err != nil {
		q.logger.Warn().Err(err).Str("dir", dir).Msg("failed to open output folder")
		return ""
	}
	return dir
}

func (q *Queue) snapshot(rec *models.JobRecord) models.JobRecord {
	q.mu.Lock()
	defer q.mu.Unlock()
	return *rec
}

func (q *Queue) notify(rec *models.JobRecord) {
	q.mu.Lock()
	observers := append([]func(models.JobRecord){}, q.observers...)
	copied := *rec
	q.mu.Unlock()

	for _, fn := range observers {
		fn(copied)
	}
}

// absPath resolves path against this process's working directory,
// since the service resolves relative paths against its own.
func absPath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

func outputDir(rec models.JobRecord) string {
	if rec.OutputDir != "" {
		return rec.OutputDir
	}
	if rec.OutputPath != "" {
		return filepath.Dir(rec.OutputPath)
	}
	return ""
}
