package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pdfsuite/internal/models"
)

// InvocationState tracks one engine run
type InvocationState string

const (
	StateNotStarted      InvocationState = "not_started"
	StateSpawning        InvocationState = "spawning"
	StateRunning         InvocationState = "running"
	StateSucceeded       InvocationState = "succeeded"
	StateFailedExit      InvocationState = "failed_exit"
	StateFailedSpawn     InvocationState = "failed_spawn"
	StateFailedAmbiguous InvocationState = "failed_ambiguous"
)

// Invocation is the tagged result of running the office engine once
type Invocation struct {
	State      InvocationState
	Binary     string
	Args       []string
	ExitCode   int
	Stdout     string
	Stderr     string
	OutputPath string
	Err        error
}

func (inv *Invocation) fail(state InvocationState, err error) *Invocation {
	inv.State = state
	inv.Err = err
	return inv
}

// ExecResult holds the captured output of a finished process
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Executor abstracts command execution for testability.
// The returned error reports a launch failure only; a non-zero exit is not an error.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (ExecResult, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (ExecResult, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdin = nil
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := ExecResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}

// OfficeOption configures the office engine.
type OfficeOption func(*OfficeEngine)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) OfficeOption {
	return func(e *OfficeEngine) {
		if exec != nil {
			e.exec = exec
		}
	}
}

// WithEngineTimeout bounds each engine run. Zero disables the bound.
func WithEngineTimeout(d time.Duration) OfficeOption {
	return func(e *OfficeEngine) {
		e.timeout = d
	}
}

// WithOfficeLogger sets the engine logger.
func WithOfficeLogger(logger zerolog.Logger) OfficeOption {
	return func(e *OfficeEngine) {
		e.logger = logger
	}
}

// OfficeEngine drives a headless LibreOffice process
type OfficeEngine struct {
	locate  func() (string, error)
	exec    Executor
	timeout time.Duration
	logger  zerolog.Logger
}

// NewOfficeEngine constructs an engine that finds soffice with locate
func NewOfficeEngine(locate func() (string, error), opts ...OfficeOption) *OfficeEngine {
	e := &OfficeEngine{
		locate: locate,
		exec:   commandExecutor{},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

const engineMissingHint = "LibreOffice not found. Install LibreOffice, ship it in the bundled runtime folder, " +
	"or set engine_path in the config file."

// Convert runs the engine and returns the produced file
func (e *OfficeEngine) Convert(ctx context.Context, input, outDir, format string) (string, error) {
	inv := e.Run(ctx, input, outDir, format)
	if inv.Err != nil {
		return "", inv.Err
	}
	return inv.OutputPath, nil
}

// Run converts input into outDir with the given target format (e.g. "pdf", "docx")
func (e *OfficeEngine) Run(ctx context.Context, input, outDir, format string) *Invocation {
	inv := &Invocation{State: StateNotStarted}

	binary, err := e.locate()
	if err != nil || binary == "" {
		return inv.fail(StateFailedSpawn, models.EngineNotFound(engineMissingHint))
	}
	inv.Binary = binary

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return inv.fail(StateFailedSpawn, models.IOFailure("failed to create output directory", err))
	}

	inv.Args = []string{
		"--headless",
		"--nologo",
		"--nofirststartwizard",
		"--nodefault",
		"--convert-to", format,
		"--outdir", outDir,
		input,
	}

	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	e.logger.Debug().
		Str("binary", binary).
		Strs("args", inv.Args).
		Msg("starting office engine")

	inv.State = StateSpawning
	start := time.Now()
	res, err := e.exec.Run(runCtx, binary, inv.Args)
	inv.State = StateRunning
	inv.ExitCode = res.ExitCode
	inv.Stdout = res.Stdout
	inv.Stderr = res.Stderr
	if err != nil {
		return inv.fail(StateFailedSpawn, models.EngineLaunchFailed(err))
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		timeoutErr := models.EngineExitedNonZero(res.ExitCode, res.Stdout, res.Stderr)
		timeoutErr.Message = fmt.Sprintf("converter engine timed out after %s", e.timeout)
		timeoutErr.Err = runCtx.Err()
		return inv.fail(StateFailedExit, timeoutErr)
	}
	if res.ExitCode != 0 {
		return inv.fail(StateFailedExit, models.EngineExitedNonZero(res.ExitCode, res.Stdout, res.Stderr))
	}

	out, expected, ok := discoverOutput(outDir, input, format)
	if !ok {
		return inv.fail(StateFailedAmbiguous, models.AmbiguousSuccess(expected, res.Stdout))
	}

	inv.State = StateSucceeded
	inv.OutputPath = out
	e.logger.Info().
		Str("input", filepath.Base(input)).
		Str("output", out).
		Dur("duration", time.Since(start)).
		Msg("office conversion finished")
	return inv
}

// discoverOutput finds the engine's output file. The expected name is tried first,
// then the first directory entry (lexical order) sharing the input's base name and the
// target extension. That fallback can pick up an unrelated earlier file with the same prefix.
func discoverOutput(outDir, input, format string) (string, string, bool) {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	suffix := "." + strings.ToLower(format)
	expected := filepath.Join(outDir, base+suffix)

	if info, err := os.Stat(expected); err == nil && !info.IsDir() {
		return expected, expected, true
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return "", expected, false
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(name, base) && strings.HasSuffix(strings.ToLower(name), suffix) {
			return filepath.Join(outDir, name), expected, true
		}
	}
	return "", expected, false
}
