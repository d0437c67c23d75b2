package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfsuite/internal/models"
)

type slowConverter struct {
	delay     time.Duration
	active    atomic.Int32
	maxActive atomic.Int32
	finished  atomic.Int32
	release   chan struct{}
}

func (c *slowConverter) run() models.Outcome {
	n := c.active.Add(1)
	for {
		cur := c.maxActive.Load()
		if n <= cur || c.maxActive.CompareAndSwap(cur, n) {
			break
		}
	}
	if c.release != nil {
		<-c.release
	}
	time.Sleep(c.delay)
	c.active.Add(-1)
	c.finished.Add(1)
	return models.Succeeded("/out/file.pdf")
}

func (c *slowConverter) ConvertToPDF(context.Context, models.Descriptor) models.Outcome {
	return c.run()
}

func (c *slowConverter) ConvertFromPDF(context.Context, models.Descriptor) models.Outcome {
	return models.SucceededDir("/out")
}

func startWorker(t *testing.T, conv Converter, status chan models.StatusUpdate) *Worker {
	t.Helper()
	w := NewWorker(conv, status, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	t.Cleanup(func() {
		cancel()
		<-w.Done()
	})
	return w
}

func TestWorkerRunsOneConversionAtATime(t *testing.T) {
	conv := &slowConverter{delay: 10 * time.Millisecond}
	w := startWorker(t, conv, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := w.ConvertToPDF(context.Background(), models.Descriptor{Kind: models.KindOffice, SourcePath: "a.docx"})
			assert.True(t, out.Success)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), conv.maxActive.Load())
	assert.Equal(t, int32(8), conv.finished.Load())
}

func TestWorkerRoutesFromPDF(t *testing.T) {
	w := startWorker(t, &slowConverter{}, nil)
	out := w.ConvertFromPDF(context.Background(), models.Descriptor{Kind: models.KindPDFToImage})
	require.True(t, out.Success)
	assert.Equal(t, "/out", out.OutputDir)
}

func TestCallerCancelDoesNotAbortConversion(t *testing.T) {
	conv := &slowConverter{release: make(chan struct{})}
	w := startWorker(t, conv, nil)

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan models.Outcome, 1)
	go func() {
		result <- w.ConvertToPDF(ctx, models.Descriptor{Kind: models.KindOffice, SourcePath: "a.docx"})
	}()

	require.Eventually(t, func() bool { return conv.active.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	out := <-result
	assert.False(t, out.Success)
	assert.Equal(t, models.ErrorKindIO, out.ErrorKind)

	close(conv.release)
	require.Eventually(t, func() bool { return conv.finished.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestWorkerEmitsStatusUpdates(t *testing.T) {
	status := make(chan models.StatusUpdate, 16)
	w := startWorker(t, &slowConverter{}, status)

	out := w.ConvertToPDF(context.Background(), models.Descriptor{Kind: models.KindOffice, SourcePath: "a.docx"})
	require.True(t, out.Success)

	var seen []models.Status
	for len(seen) < 3 {
		select {
		case u := <-status:
			assert.Equal(t, models.KindOffice, u.Kind)
			seen = append(seen, u.Status)
		case <-time.After(time.Second):
			t.Fatalf("missing status updates, got %v", seen)
		}
	}
	assert.Contains(t, seen, models.StatusQueued)
	assert.Contains(t, seen, models.StatusConverting)
	assert.Contains(t, seen, models.StatusDone)
}

func TestStoppedWorkerRejectsTasks(t *testing.T) {
	w := startWorker(t, &slowConverter{}, nil)
	w.Stop()
	<-w.Done()

	out := w.ConvertToPDF(context.Background(), models.Descriptor{Kind: models.KindOffice, SourcePath: "a.docx"})
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "stopped")
}
