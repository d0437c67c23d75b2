// Package worker serializes conversions so that at most one engine process or
// browser runs at a time.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pdfsuite/internal/models"
)

// ErrStopped is returned for tasks submitted after the worker stopped
var ErrStopped = errors.New("conversion worker stopped")

const taskBuffer = 64

// Converter performs the actual conversions
type Converter interface {
	ConvertToPDF(ctx context.Context, desc models.Descriptor) models.Outcome
	ConvertFromPDF(ctx context.Context, desc models.Descriptor) models.Outcome
}

type direction int

const (
	toPDF direction = iota
	fromPDF
)

type task struct {
	id     string
	desc   models.Descriptor
	dir    direction
	result chan models.Outcome
}

// Worker runs one conversion at a time on a single goroutine
type Worker struct {
	conv       Converter
	taskChan   chan task
	statusChan chan<- models.StatusUpdate
	stopChan   chan struct{}
	stopOnce   sync.Once
	done       chan struct{}
	logger     zerolog.Logger
}

// NewWorker creates a worker. statusChan may be nil.
func NewWorker(conv Converter, statusChan chan<- models.StatusUpdate, logger zerolog.Logger) *Worker {
	return &Worker{
		conv:       conv,
		taskChan:   make(chan task, taskBuffer),
		statusChan: statusChan,
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.With().Str("component", "worker").Logger(),
	}
}

// Start begins the processing loop. Tasks run under ctx, not the submitter's context,
// so a started conversion always runs to completion.
func (w *Worker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		for {
			select {
			case <-ctx.Done():
				w.drain(ctx.Err())
				return
			case <-w.stopChan:
				w.drain(ErrStopped)
				return
			case t := <-w.taskChan:
				w.process(ctx, t)
			}
		}
	}()
}

// Stop requests the worker to stop after the current task
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
}

// Done returns a channel that is closed when the worker exits
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Pending returns the number of queued tasks
func (w *Worker) Pending() int {
	return len(w.taskChan)
}

// ConvertToPDF queues a to-PDF conversion and waits for its outcome
func (w *Worker) ConvertToPDF(ctx context.Context, desc models.Descriptor) models.Outcome {
	return w.submit(ctx, desc, toPDF)
}

// ConvertFromPDF queues a from-PDF conversion and waits for its outcome
func (w *Worker) ConvertFromPDF(ctx context.Context, desc models.Descriptor) models.Outcome {
	return w.submit(ctx, desc, fromPDF)
}

func (w *Worker) submit(ctx context.Context, desc models.Descriptor, dir direction) models.Outcome {
	t := task{
		id:     uuid.NewString(),
		desc:   desc,
		dir:    dir,
		result: make(chan models.Outcome, 1),
	}

	stopped := models.Failed(models.IOFailure("conversion not started", ErrStopped))
	select {
	case <-w.stopChan:
		return stopped
	case <-w.done:
		return stopped
	default:
	}

	select {
	case <-w.done:
		return stopped
	case <-ctx.Done():
		return models.Failed(models.IOFailure("conversion not started", ctx.Err()))
	case w.taskChan <- t:
	}
	w.sendStatus(t, models.StatusQueued, "queued", 0, nil)

	select {
	case out := <-t.result:
		return out
	case <-w.done:
		select {
		case out := <-t.result:
			return out
		default:
			return stopped
		}
	case <-ctx.Done():
		w.logger.Warn().Str("task", t.id).Msg("caller gave up waiting; conversion continues")
		return models.Failed(models.IOFailure("request cancelled while waiting for conversion", ctx.Err()))
	}
}

func (w *Worker) process(ctx context.Context, t task) {
	start := time.Now()
	w.sendStatus(t, models.StatusConverting, "started", 0, nil)

	var out models.Outcome
	switch t.dir {
	case fromPDF:
		out = w.conv.ConvertFromPDF(ctx, t.desc)
	default:
		out = w.conv.ConvertToPDF(ctx, t.desc)
	}
	elapsed := time.Since(start)

	if out.Success {
		w.sendStatus(t, models.StatusDone, fmt.Sprintf("Conversion complete in %s", elapsed.Round(time.Millisecond)), elapsed, nil)
	} else {
		w.sendStatus(t, models.StatusFailed, out.Error, elapsed, errors.New(out.Error))
	}
	t.result <- out
}

// drain fails every task still waiting in the channel
func (w *Worker) drain(reason error) {
	for {
		select {
		case t := <-w.taskChan:
			out := models.Failed(models.IOFailure("conversion not started", reason))
			w.sendStatus(t, models.StatusFailed, out.Error, 0, reason)
			t.result <- out
		default:
			return
		}
	}
}

// sendStatus publishes a status update without blocking the loop
func (w *Worker) sendStatus(t task, status models.Status, message string, elapsed time.Duration, err error) {
	if w.statusChan == nil {
		return
	}
	update := models.StatusUpdate{
		TaskID:   t.id,
		Kind:     t.desc.Kind,
		Status:   status,
		Message:  message,
		Error:    err,
		Duration: elapsed,
	}
	select {
	case w.statusChan <- update:
	default:
		w.logger.Debug().Str("task", t.id).Msg("status channel full, update dropped")
	}
}
