// Package util holds process diagnostics for the long-running orchestration side.
package util

import (
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// ProcessInfo holds information about the process
type ProcessInfo struct {
	PID         int
	Goroutines  int
	Memory      MemStats
	CPUCores    int
	GoVersion   string
	StartTime   time.Time
	ElapsedTime time.Duration
}

// MemStats holds memory statistics information
type MemStats struct {
	Alloc      string
	TotalAlloc string
	Sys        string
	NumGC      uint32
	HeapAlloc  string
	HeapSys    string
	HeapIdle   string
	HeapInUse  string
	StackInUse string
}

// GetProcessInfo returns diagnostic information about the running process
func GetProcessInfo(startTime time.Time) ProcessInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return ProcessInfo{
		PID:        os.Getpid(),
		Goroutines: runtime.NumGoroutine(),
		Memory: MemStats{
			Alloc:      humanize.IBytes(m.Alloc),
			TotalAlloc: humanize.IBytes(m.TotalAlloc),
			Sys:        humanize.IBytes(m.Sys),
			NumGC:      m.NumGC,
			HeapAlloc:  humanize.IBytes(m.HeapAlloc),
			HeapSys:    humanize.IBytes(m.HeapSys),
			HeapIdle:   humanize.IBytes(m.HeapIdle),
			HeapInUse:  humanize.IBytes(m.HeapInuse),
			StackInUse: humanize.IBytes(m.StackInuse),
		},
		CPUCores:    runtime.NumCPU(),
		GoVersion:   runtime.Version(),
		StartTime:   startTime,
		ElapsedTime: time.Since(startTime),
	}
}

// PendingFunc reports how many conversions are waiting
type PendingFunc func() int

// StartDiagnosticMonitor logs a short status line every interval until the returned channel is closed
func StartDiagnosticMonitor(logger zerolog.Logger, startTime time.Time, interval time.Duration, pending PendingFunc) chan struct{} {
	stopChan := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stopChan:
				return
			case <-ticker.C:
				info := GetProcessInfo(startTime)
				ev := logger.Info().
					Int("goroutines", info.Goroutines).
					Str("heap_in_use", info.Memory.HeapInUse).
					Str("heap_sys", info.Memory.HeapSys).
					Uint32("gc_cycles", info.Memory.NumGC)
				if pending != nil {
					ev = ev.Int("pending_conversions", pending())
				}
				ev.Msg("diagnostic")
			}
		}
	}()

	return stopChan
}

// LogFullDiagnostics logs detailed diagnostic information
func LogFullDiagnostics(logger zerolog.Logger, startTime time.Time) {
	info := GetProcessInfo(startTime)

	logger.Info().
		Int("pid", info.PID).
		Str("go_version", info.GoVersion).
		Int("cpu_cores", info.CPUCores).
		Int("goroutines", info.Goroutines).
		Str("runtime", info.ElapsedTime.Round(time.Second).String()).
		Str("started", humanize.Time(info.StartTime)).
		Str("alloc", info.Memory.Alloc).
		Str("total_alloc", info.Memory.TotalAlloc).
		Str("sys", info.Memory.Sys).
		Str("heap_alloc", info.Memory.HeapAlloc).
		Str("heap_sys", info.Memory.HeapSys).
		Str("heap_idle", info.Memory.HeapIdle).
		Str("heap_in_use", info.Memory.HeapInUse).
		Str("stack_in_use", info.Memory.StackInUse).
		Uint32("gc_cycles", info.Memory.NumGC).
		Msg("diagnostic report")
}
