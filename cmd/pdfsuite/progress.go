package main

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"pdfsuite/internal/models"
	"pdfsuite/internal/queue"
)

// attachProgress advances a progress bar each time a record reaches a terminal state
func attachProgress(q *queue.Queue, total int, description string, out io.Writer) *progressbar.ProgressBar {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(out),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	var mu sync.Mutex
	counted := make(map[string]bool)
	q.OnChange(func(rec models.JobRecord) {
		if !rec.Status.Terminal() {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if counted[rec.ID] {
			return
		}
		counted[rec.ID] = true
		_ = bar.Add(1)
	})
	return bar
}
