// Package paths locates the office engine and the application's default directories.
package paths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// ErrEngineNotFound is returned when no soffice executable exists in any known location
var ErrEngineNotFound = errors.New("office engine not found")

// NoticesNotFound is the text served when no third-party notices file ships with the app
const NoticesNotFound = "Third-party notices file not found."

const appFolder = "PDF Suite Elite"

// Resolver searches bundled and system install locations
type Resolver struct {
	Override     string // explicit engine path from config
	ResourcesDir string // bundled runtime root
	ExeDir       string // directory of the running binary
	GOOS         string

	// exists is swapped in tests
	exists func(path string) bool
}

// NewResolver creates a resolver for the host platform
func NewResolver(override, resourcesDir string) *Resolver {
	exeDir := ""
	if exe, err := os.Executable(); err == nil {
		exeDir = filepath.Dir(exe)
	}
	return &Resolver{
		Override:     override,
		ResourcesDir: resourcesDir,
		ExeDir:       exeDir,
		GOOS:         runtime.GOOS,
	}
}

// LocateEngine returns the first existing soffice candidate
func (r *Resolver) LocateEngine() (string, error) {
	for _, p := range r.EngineCandidates() {
		if r.fileExists(p) {
			return p, nil
		}
	}
	return "", ErrEngineNotFound
}

// EngineCandidates lists soffice locations in search order
func (r *Resolver) EngineCandidates() []string {
	var out []string
	if r.Override != "" {
		out = append(out, r.Override)
	}

	// Bundled runtime
	for _, name := range []string{"soffice.exe", "soffice"} {
		if r.ResourcesDir != "" {
			out = append(out, filepath.Join(r.ResourcesDir, "lo", "program", name))
		}
		if r.ExeDir != "" {
			out = append(out, filepath.Join(r.ExeDir, "..", "vendor", "libreoffice", "program", name))
		}
	}

	// System installs
	switch r.GOOS {
	case "windows":
		out = append(out,
			filepath.Join("C:\\", "Program Files", "LibreOffice", "program", "soffice.exe"),
			filepath.Join("C:\\", "Program Files (x86)", "LibreOffice", "program", "soffice.exe"),
		)
	case "darwin":
		out = append(out,
			"/Applications/LibreOffice.app/Contents/MacOS/soffice",
			"/opt/homebrew/bin/soffice",
		)
	case "linux":
		out = append(out,
			"/usr/bin/soffice",
			"/usr/bin/libreoffice",
			"/usr/lib/libreoffice/program/soffice",
			"/opt/libreoffice/program/soffice",
		)
	}
	return out
}

// LicenseNotices returns the bundled third-party notices text, never failing
func (r *Resolver) LicenseNotices() string {
	var candidates []string
	if r.ResourcesDir != "" {
		candidates = append(candidates, filepath.Join(r.ResourcesDir, "licenses", "THIRD_PARTY_NOTICES.txt"))
	}
	if r.ExeDir != "" {
		candidates = append(candidates, filepath.Join(r.ExeDir, "..", "licenses", "THIRD_PARTY_NOTICES.txt"))
	}
	for _, p := range candidates {
		if !r.fileExists(p) {
			continue
		}
		data, err := os.ReadFile(p)
		if err == nil {
			return string(data)
		}
	}
	return NoticesNotFound
}

func (r *Resolver) fileExists(path string) bool {
	if r.exists != nil {
		return r.exists(path)
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// DefaultOutputDir returns the default export folder under home
func DefaultOutputDir(home string) string {
	return filepath.Join(home, "Documents", appFolder, "Exports")
}

// UserOutputDir returns DefaultOutputDir for the current user
func UserOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return DefaultOutputDir(home)
}
