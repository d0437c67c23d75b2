package util

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestGetProcessInfo(t *testing.T) {
	start := time.Now().Add(-time.Minute)
	info := GetProcessInfo(start)

	assert.Positive(t, info.PID)
	assert.Positive(t, info.Goroutines)
	assert.Positive(t, info.CPUCores)
	assert.NotEmpty(t, info.Memory.HeapInUse)
	assert.GreaterOrEqual(t, info.ElapsedTime, time.Minute)
}

func TestLogFullDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	LogFullDiagnostics(zerolog.New(&buf), time.Now())

	out := buf.String()
	assert.Contains(t, out, `"message":"diagnostic report"`)
	assert.Contains(t, out, `"go_version"`)
	assert.Contains(t, out, `"heap_in_use"`)
}

func TestDiagnosticMonitorReportsPending(t *testing.T) {
	buf := &syncBuffer{}
	stop := StartDiagnosticMonitor(zerolog.New(buf), time.Now(), 5*time.Millisecond, func() int { return 3 })
	defer close(stop)

	require.Eventually(t, func() bool {
		return strings.Contains(buf.String(), `"pending_conversions":3`)
	}, time.Second, 5*time.Millisecond)
}
