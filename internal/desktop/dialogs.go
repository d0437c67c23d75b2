package desktop

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Filter restricts a file dialog to a set of extensions (without dots)
type Filter struct {
	Label      string   `json:"label"`
	Extensions []string `json:"extensions"`
}

// AllFiles is the filter used when none is given
var AllFiles = Filter{Label: "All Files", Extensions: []string{"*"}}

// Dialogs shows native selection dialogs
type Dialogs interface {
	// OpenFiles returns the selected files, or none when cancelled
	OpenFiles(ctx context.Context, filters []Filter) ([]string, error)
	// OpenFolder returns the selected folder; selected is false when cancelled
	OpenFolder(ctx context.Context) (path string, selected bool, err error)
}

var errCancelled = errors.New("dialog cancelled")

// SystemDialogs drives zenity, osascript or PowerShell
type SystemDialogs struct {
	GOOS string
	run  func(ctx context.Context, name string, args ...string) (string, error)
}

// NewSystemDialogs creates dialogs for the host platform
func NewSystemDialogs() *SystemDialogs {
	return &SystemDialogs{GOOS: runtime.GOOS, run: runDialog}
}

// runDialog runs a dialog helper; exit status 1 means the user cancelled
func runDialog(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", errCancelled
		}
		return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func (d *SystemDialogs) OpenFiles(ctx context.Context, filters []Filter) ([]string, error) {
	if len(filters) == 0 {
		filters = []Filter{AllFiles}
	}

	var (
		out string
		err error
	)
	switch d.GOOS {
	case "darwin":
		out, err = d.run(ctx, "osascript", "-e", macChooseFiles(filters))
	case "windows":
		out, err = d.run(ctx, "powershell", "-NoProfile", "-Command", windowsChooseFiles(filters))
	default:
		args := []string{"--file-selection", "--multiple", "--separator=\n", "--title=Select files"}
		for _, f := range filters {
			args = append(args, "--file-filter="+zenityFilter(f))
		}
		out, err = d.run(ctx, "zenity", args...)
	}
	if errors.Is(err, errCancelled) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

func (d *SystemDialogs) OpenFolder(ctx context.Context) (string, bool, error) {
	var (
		out string
		err error
	)
	switch d.GOOS {
	case "darwin":
		out, err = d.run(ctx, "osascript", "-e", `POSIX path of (choose folder with prompt "Select output folder")`)
	case "windows":
		out, err = d.run(ctx, "powershell", "-NoProfile", "-Command",
			`Add-Type -AssemblyName System.Windows.Forms; $d = New-Object System.Windows.Forms.FolderBrowserDialog; `+
				`if ($d.ShowDialog() -eq 'OK') { $d.SelectedPath } else { exit 1 }`)
	default:
		out, err = d.run(ctx, "zenity", "--file-selection", "--directory", "--title=Select output folder")
	}
	if errors.Is(err, errCancelled) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	lines := splitLines(out)
	if len(lines) == 0 {
		return "", false, nil
	}
	return lines[0], true, nil
}

func zenityFilter(f Filter) string {
	patterns := make([]string, 0, len(f.Extensions))
	for _, ext := range f.Extensions {
		if ext == "*" {
			patterns = append(patterns, "*")
			continue
		}
		patterns = append(patterns, "*."+strings.TrimPrefix(ext, "."))
	}
	return f.Label + " | " + strings.Join(patterns, " ")
}

func macChooseFiles(filters []Filter) string {
	var types []string
	for _, f := range filters {
		for _, ext := range f.Extensions {
			if ext != "*" {
				types = append(types, fmt.Sprintf("%q", strings.TrimPrefix(ext, ".")))
			}
		}
	}
	choose := "choose file with multiple selections allowed"
	if len(types) > 0 {
		choose += " of type {" + strings.Join(types, ", ") + "}"
	}
	return "set picked to (" + choose + ")\n" +
		"set out to \"\"\n" +
		"repeat with f in picked\n" +
		"set out to out & POSIX path of f & linefeed\n" +
		"end repeat\n" +
		"return out"
}

func windowsChooseFiles(filters []Filter) string {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		patterns := make([]string, 0, len(f.Extensions))
		for _, ext := range f.Extensions {
			if ext == "*" {
				patterns = append(patterns, "*.*")
				continue
			}
			patterns = append(patterns, "*."+strings.TrimPrefix(ext, "."))
		}
		joined := strings.Join(patterns, ";")
		parts = append(parts, f.Label+" ("+joined+")|"+joined)
	}
	return "Add-Type -AssemblyName System.Windows.Forms; " +
		"$d = New-Object System.Windows.Forms.OpenFileDialog; $d.Multiselect = $true; " +
		"$d.Filter = '" + strings.ReplaceAll(strings.Join(parts, "|"), "'", "''") + "'; " +
		"if ($d.ShowDialog() -eq 'OK') { $d.FileNames -join \"`n\" } else { exit 1 }"
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
