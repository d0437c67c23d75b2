// Package ipc is the boundary between the UI side (job queue, CLI) and the
// orchestration side (settings, filesystem, engines).
//
// The same API is served in-process by Service and over a Unix socket by
// Server/Client using JSON-RPC.
package ipc

import (
	"context"

	"pdfsuite/internal/desktop"
	"pdfsuite/internal/models"
	"pdfsuite/internal/settings"
)

// ServiceName is the JSON-RPC service name
const ServiceName = "PDFSuite"

// API lists every operation the UI side may invoke.
// Conversion faults come back as failed outcomes; the error return is reserved
// for transport problems.
type API interface {
	OpenFileDialog(ctx context.Context, filters []desktop.Filter) ([]string, error)
	OpenFolderDialog(ctx context.Context) (string, bool, error)
	ReadFileBytes(ctx context.Context, path string) ([]byte, error)
	ConvertToPDF(ctx context.Context, desc models.Descriptor) (models.Outcome, error)
	ConvertFromPDF(ctx context.Context, desc models.Descriptor) (models.Outcome, error)
	SaveImageBytes(ctx context.Context, filename string, data []byte) (string, error)
	OpenPath(ctx context.Context, path string) error
	GetSettings(ctx context.Context) (settings.Settings, error)
	SetSettings(ctx context.Context, patch settings.Patch) (settings.Settings, error)
	AppVersion(ctx context.Context) (string, error)
	LicenseNotices(ctx context.Context) (string, error)
}

var (
	_ API = (*Service)(nil)
	_ API = (*Client)(nil)
)
