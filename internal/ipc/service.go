package ipc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"pdfsuite/internal/converter"
	"pdfsuite/internal/desktop"
	"pdfsuite/internal/models"
	"pdfsuite/internal/paths"
	"pdfsuite/internal/settings"
)

// Converter runs conversions (the serialized worker in production)
type Converter interface {
	ConvertToPDF(ctx context.Context, desc models.Descriptor) models.Outcome
	ConvertFromPDF(ctx context.Context, desc models.Descriptor) models.Outcome
}

// ImageSaver writes exported page images into the output folder
type ImageSaver interface {
	SaveImage(name string, data []byte) (string, error)
}

// SettingsStore reads and updates persisted settings
type SettingsStore interface {
	Load() (settings.Settings, error)
	Merge(patch settings.Patch) (settings.Settings, error)
}

// NoticesSource supplies the third-party notices text
type NoticesSource interface {
	LicenseNotices() string
}

// Deps wires the orchestration-side collaborators
type Deps struct {
	Converter Converter
	Images    ImageSaver
	Settings  SettingsStore
	Opener    desktop.Opener
	Dialogs   desktop.Dialogs
	Notices   NoticesSource
	Version   string
	Logger    zerolog.Logger
}

// Service implements API in-process
type Service struct {
	deps   Deps
	logger zerolog.Logger
}

// NewService creates the orchestration-side API implementation
func NewService(deps Deps) *Service {
	return &Service{
		deps:   deps,
		logger: deps.Logger.With().Str("component", "ipc").Logger(),
	}
}

// OpenFileDialog asks the user for files; a cancelled dialog yields an empty list
func (s *Service) OpenFileDialog(ctx context.Context, filters []desktop.Filter) ([]string, error) {
	if s.deps.Dialogs == nil {
		return nil, models.IOFailure("file dialogs are not available", nil)
	}
	picked, err := s.deps.Dialogs.OpenFiles(ctx, filters)
	if err != nil {
		return nil, models.IOFailure("file dialog failed", err)
	}
	if picked == nil {
		picked = []string{}
	}
	return picked, nil
}

// OpenFolderDialog asks the user for a folder; the flag is false when cancelled
func (s *Service) OpenFolderDialog(ctx context.Context) (string, bool, error) {
	if s.deps.Dialogs == nil {
		return "", false, models.IOFailure("file dialogs are not available", nil)
	}
	path, ok, err := s.deps.Dialogs.OpenFolder(ctx)
	if err != nil {
		return "", false, models.IOFailure("folder dialog failed", err)
	}
	return path, ok, nil
}

// ReadFileBytes returns the contents of an existing file
func (s *Service) ReadFileBytes(_ context.Context, path string) ([]byte, error) {
	resolved, err := converter.ResolveInput(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, models.IOFailure(fmt.Sprintf("failed to read %s", resolved), err)
	}
	return data, nil
}

// ConvertToPDF runs a to-PDF conversion. Conversion faults come back in the outcome.
func (s *Service) ConvertToPDF(ctx context.Context, desc models.Descriptor) (models.Outcome, error) {
	s.logger.Debug().Str("kind", string(desc.Kind)).Str("input", desc.SourcePath).Msg("convert-to-pdf requested")
	return s.deps.Converter.ConvertToPDF(ctx, desc), nil
}

// ConvertFromPDF runs a from-PDF conversion or resolves the page export folder
func (s *Service) ConvertFromPDF(ctx context.Context, desc models.Descriptor) (models.Outcome, error) {
	s.logger.Debug().Str("kind", string(desc.Kind)).Str("input", desc.SourcePath).Msg("convert-from-pdf requested")
	return s.deps.Converter.ConvertFromPDF(ctx, desc), nil
}

// SaveImageBytes writes a rendered page into the output folder
func (s *Service) SaveImageBytes(_ context.Context, filename string, data []byte) (string, error) {
	return s.deps.Images.SaveImage(filename, data)
}

// OpenPath opens a directory directly and reveals a file in its folder
func (s *Service) OpenPath(_ context.Context, path string) error {
	if strings.TrimSpace(path) == "" {
		return models.InvalidInput("invalid path", nil)
	}
	if s.deps.Opener == nil {
		return models.IOFailure("system viewer is not available", nil)
	}
	resolved, err := filepath.Abs(path)
	if err != nil {
		return models.InvalidInput("invalid path", err)
	}
	info, err := os.Stat(resolved)
	if errors.Is(err, fs.ErrNotExist) {
		return models.InvalidInput(fmt.Sprintf("path does not exist: %s", resolved), nil)
	}
	if err != nil {
		return models.IOFailure("failed to inspect path", err)
	}

	if info.IsDir() {
		err = s.deps.Opener.Open(resolved)
	} else {
		err = s.deps.Opener.Reveal(resolved)
	}
	if err != nil {
		return models.IOFailure("failed to open system viewer", err)
	}
	return nil
}

// GetSettings returns the stored settings
func (s *Service) GetSettings(context.Context) (settings.Settings, error) {
	return s.deps.Settings.Load()
}

// SetSettings merges patch into the stored settings and returns the result
func (s *Service) SetSettings(_ context.Context, patch settings.Patch) (settings.Settings, error) {
	st, err := s.deps.Settings.Merge(patch)
	if err == nil {
		s.logger.Info().Str("output_folder", st.OutputFolder).Msg("settings updated")
	}
	return st, err
}

// AppVersion returns the build version
func (s *Service) AppVersion(context.Context) (string, error) {
	return s.deps.Version, nil
}

// LicenseNotices returns the bundled third-party notices
func (s *Service) LicenseNotices(context.Context) (string, error) {
	if s.deps.Notices == nil {
		return paths.NoticesNotFound, nil
	}
	return s.deps.Notices.LicenseNotices(), nil
}
