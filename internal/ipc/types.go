package ipc

import (
	"pdfsuite/internal/desktop"
	"pdfsuite/internal/models"
	"pdfsuite/internal/settings"
)

// Failure carries a typed error across the socket
type Failure struct {
	Kind    models.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

func failureFrom(err error) *Failure {
	if err == nil {
		return nil
	}
	return &Failure{Kind: models.KindOf(err), Message: err.Error()}
}

// Err converts the failure back into a typed error
func (f *Failure) Err() error {
	if f == nil {
		return nil
	}
	return models.NewError(f.Kind, f.Message, nil)
}

// OpenFileDialogRequest shows a multi-file picker.
type OpenFileDialogRequest struct {
	Filters []desktop.Filter `json:"filters"`
}

// OpenFileDialogResponse lists the picked files; empty when cancelled.
type OpenFileDialogResponse struct {
	Paths   []string `json:"paths"`
	Failure *Failure `json:"failure,omitempty"`
}

// OpenFolderDialogRequest shows a folder picker.
type OpenFolderDialogRequest struct{}

// OpenFolderDialogResponse holds the picked folder.
type OpenFolderDialogResponse struct {
	Path     string   `json:"path"`
	Selected bool     `json:"selected"`
	Failure  *Failure `json:"failure,omitempty"`
}

// ReadFileBytesRequest reads a whole file.
type ReadFileBytesRequest struct {
	Path string `json:"path"`
}

// ReadFileBytesResponse carries the file contents.
type ReadFileBytesResponse struct {
	Data    []byte   `json:"data"`
	Failure *Failure `json:"failure,omitempty"`
}

// ConvertRequest submits one conversion.
type ConvertRequest struct {
	Descriptor models.Descriptor `json:"job"`
}

// ConvertResponse carries the conversion outcome.
type ConvertResponse struct {
	Outcome models.Outcome `json:"outcome"`
}

// SaveImageBytesRequest stores PNG bytes in the output folder.
type SaveImageBytesRequest struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

// SaveImageBytesResponse holds the written path.
type SaveImageBytesResponse struct {
	Path    string   `json:"path"`
	Failure *Failure `json:"failure,omitempty"`
}

// OpenPathRequest opens a file or folder in the system viewer.
type OpenPathRequest struct {
	Path string `json:"path"`
}

// OpenPathResponse reports open failures.
type OpenPathResponse struct {
	Failure *Failure `json:"failure,omitempty"`
}

// GetSettingsRequest fetches settings.
type GetSettingsRequest struct{}

// SetSettingsRequest applies a partial settings update.
type SetSettingsRequest struct {
	Patch settings.Patch `json:"settings"`
}

// SettingsResponse carries the full settings after the call.
type SettingsResponse struct {
	Settings settings.Settings `json:"settings"`
	Failure  *Failure          `json:"failure,omitempty"`
}

// AppVersionRequest fetches the application version.
type AppVersionRequest struct{}

// AppVersionResponse holds the version string.
type AppVersionResponse struct {
	Version string `json:"version"`
}

// LicenseNoticesRequest fetches third-party notices.
type LicenseNoticesRequest struct{}

// LicenseNoticesResponse holds the notices text.
type LicenseNoticesResponse struct {
	Text string `json:"text"`
}
