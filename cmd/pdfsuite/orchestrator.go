package main

import (
	"context"

	"github.com/rs/zerolog"

	"pdfsuite/internal/config"
	"pdfsuite/internal/converter"
	"pdfsuite/internal/desktop"
	"pdfsuite/internal/ipc"
	"pdfsuite/internal/models"
	"pdfsuite/internal/paths"
	"pdfsuite/internal/security"
	"pdfsuite/internal/settings"
	"pdfsuite/internal/worker"
)

// orchestrator is the service side: settings, engines, the serialized worker
// and the API implementation on top of them.
type orchestrator struct {
	store   *settings.Store
	worker  *worker.Worker
	service *ipc.Service
	cancel  context.CancelFunc
}

func newOrchestrator(ctx context.Context, cfg *config.Config, logger zerolog.Logger, status chan<- models.StatusUpdate) *orchestrator {
	ctx, cancel := context.WithCancel(ctx)

	resolver := paths.NewResolver(cfg.EnginePath, cfg.ResourcesDir)
	store := settings.NewStore(cfg.SettingsPath, paths.UserOutputDir(), logger)

	office := converter.NewOfficeEngine(resolver.LocateEngine,
		converter.WithEngineTimeout(cfg.EngineTimeout()),
		converter.WithOfficeLogger(logger),
	)
	html := converter.NewChromeRenderer(cfg.ChromePath, cfg.RenderTimeout())

	opts := []converter.Option{converter.WithLogger(logger.With().Str("component", "dispatcher").Logger())}
	if cfg.Security.ScanInputs {
		scanner := security.NewScanner(true, cfg.Security.ClamdAddress, logger)
		if scanner.IsEnabled() {
			opts = append(opts, converter.WithScanner(scanner))
		}
	}
	dispatcher := converter.NewDispatcher(store, office, html, opts...)

	w := worker.NewWorker(dispatcher, status, logger)
	w.Start(ctx)

	service := ipc.NewService(ipc.Deps{
		Converter: w,
		Images:    dispatcher,
		Settings:  store,
		Opener:    desktop.NewSystemOpener(),
		Dialogs:   desktop.NewSystemDialogs(),
		Notices:   resolver,
		Version:   version,
		Logger:    logger,
	})

	return &orchestrator{store: store, worker: w, service: service, cancel: cancel}
}

// Close stops the worker after the current conversion
func (o *orchestrator) Close() {
	o.worker.Stop()
	<-o.worker.Done()
	o.cancel()
}
