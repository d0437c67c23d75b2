// Package desktop opens paths in the system viewer and shows native file dialogs.
package desktop

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Opener hands paths to the desktop environment
type Opener interface {
	// Open shows a directory or file with its default application
	Open(path string) error
	// Reveal shows a file inside its containing folder
	Reveal(path string) error
}

// SystemOpener uses the platform launcher (xdg-open, open, explorer)
type SystemOpener struct {
	GOOS  string
	start func(name string, args ...string) error
}

// NewSystemOpener creates an opener for the host platform
func NewSystemOpener() *SystemOpener {
	return &SystemOpener{GOOS: runtime.GOOS, start: startDetached}
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...) //nolint:gosec
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func (o *SystemOpener) Open(path string) error {
	switch o.GOOS {
	case "darwin":
		return o.start("open", path)
	case "windows":
		return o.start("explorer", path)
	default:
		return o.start("xdg-open", path)
	}
}

func (o *SystemOpener) Reveal(path string) error {
	switch o.GOOS {
	case "darwin":
		return o.start("open", "-R", path)
	case "windows":
		return o.start("explorer", "/select,"+path)
	default:
		// No portable "select file" on freedesktop; open the folder instead
		return o.start("xdg-open", filepath.Dir(path))
	}
}
