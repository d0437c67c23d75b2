package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pdfsuite/internal/ipc"
	"pdfsuite/internal/models"
	"pdfsuite/internal/util"
)

const diagnosticInterval = 30 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var diagnose bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the conversion service on the local socket",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			startTime := time.Now()
			logger := ctx.logger(true)

			for _, dir := range []string{filepath.Dir(cfg.SocketPath), filepath.Dir(cfg.LockPath)} {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create runtime directory %q: %w", dir, err)
				}
			}

			lock := flock.New(cfg.LockPath)
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !ok {
				return errors.New("another pdfsuite service is already running")
			}
			defer lock.Unlock() //nolint:errcheck

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			status := make(chan models.StatusUpdate, 64)
			go logStatus(runCtx, logger, status)

			orch := newOrchestrator(runCtx, cfg, logger, status)
			defer orch.Close()

			srv, err := ipc.NewServer(runCtx, cfg.SocketPath, orch.service, logger)
			if err != nil {
				return fmt.Errorf("start IPC server: %w", err)
			}
			defer srv.Close()
			srv.Serve()

			if diagnose {
				util.LogFullDiagnostics(logger, startTime)
				stop := util.StartDiagnosticMonitor(logger, startTime, diagnosticInterval, orch.worker.Pending)
				defer close(stop)
			}

			logger.Info().
				Str("socket", srv.Path()).
				Str("lock", cfg.LockPath).
				Str("settings", orch.store.Path()).
				Str("version", version).
				Msg("pdfsuite service started")

			<-runCtx.Done()
			logger.Info().Msg("pdfsuite service shutting down")
			if diagnose {
				util.LogFullDiagnostics(logger, startTime)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&diagnose, "diagnose", false, "Log process diagnostics periodically")
	return cmd
}

// logStatus writes worker status updates to the service log
func logStatus(ctx context.Context, logger zerolog.Logger, status <-chan models.StatusUpdate) {
	logger = logger.With().Str("component", "status").Logger()
	for {
		select {
		case <-ctx.Done():
			return
		case update := <-status:
			ev := logger.Debug()
			if update.Status == models.StatusFailed {
				ev = logger.Warn()
			}
			ev.Str("task", update.TaskID).
				Str("kind", string(update.Kind)).
				Str("status", string(update.Status)).
				Dur("duration", update.Duration).
				Msg(update.Message)
		}
	}
}
