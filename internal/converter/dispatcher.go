// Package converter maps conversion descriptors onto the office engine, the HTML
// renderer and the in-process PDF builders.
package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pdfsuite/internal/models"
	"pdfsuite/internal/security"
	"pdfsuite/internal/settings"
)

// SettingsSource supplies the current output preferences
type SettingsSource interface {
	Load() (settings.Settings, error)
}

// OfficeConverter converts a file with the office engine into outDir
type OfficeConverter interface {
	Convert(ctx context.Context, input, outDir, format string) (string, error)
}

// InputScanner checks inputs for malware before conversion
type InputScanner interface {
	IsEnabled() bool
	ScanFile(path string) (*security.ScanResult, error)
	ScanBytes(data []byte) (*security.ScanResult, error)
}

// Option configures the dispatcher.
type Option func(*Dispatcher)

// WithScanner enables pre-flight malware scanning.
func WithScanner(s InputScanner) Option {
	return func(d *Dispatcher) {
		d.scanner = s
	}
}

// WithClock overrides the time source used for output names.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// Dispatcher routes each descriptor to its conversion strategy
type Dispatcher struct {
	settings SettingsSource
	office   OfficeConverter
	html     HTMLRenderer
	scanner  InputScanner
	now      func() time.Time
	logger   zerolog.Logger
}

// NewDispatcher creates a dispatcher over the given collaborators
func NewDispatcher(store SettingsSource, office OfficeConverter, html HTMLRenderer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		settings: store,
		office:   office,
		html:     html,
		now:      time.Now,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ConvertToPDF runs a conversion that produces a PDF
func (d *Dispatcher) ConvertToPDF(ctx context.Context, desc models.Descriptor) models.Outcome {
	if !desc.Kind.ToPDF() {
		return models.Failed(models.InvalidInput(fmt.Sprintf("unknown conversion type: %s", desc.Kind), nil))
	}
	return d.Convert(ctx, desc)
}

// ConvertFromPDF runs a conversion that consumes a PDF
func (d *Dispatcher) ConvertFromPDF(ctx context.Context, desc models.Descriptor) models.Outcome {
	if !desc.Kind.FromPDF() {
		return models.Failed(models.InvalidInput(fmt.Sprintf("unknown conversion type: %s", desc.Kind), nil))
	}
	return d.Convert(ctx, desc)
}

// Convert runs any conversion. Every fault, including a panic, becomes a failed outcome.
func (d *Dispatcher) Convert(ctx context.Context, desc models.Descriptor) (out models.Outcome) {
	start := time.Now()
	logger := d.logger.With().Str("kind", string(desc.Kind)).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("conversion panicked")
			out = models.Failed(models.RenderingFailed(fmt.Sprintf("conversion crashed: %v", r), nil))
		}
	}()

	out, err := d.run(ctx, desc)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("input", desc.SourcePath).
			Str("error_kind", string(models.KindOf(err))).
			Msg("conversion failed")
		return models.Failed(err)
	}

	logger.Info().
		Str("input", desc.SourcePath).
		Str("output", out.OutputPath).
		Dur("duration", time.Since(start)).
		Msg("conversion succeeded")
	return out
}

func (d *Dispatcher) run(ctx context.Context, desc models.Descriptor) (models.Outcome, error) {
	if err := desc.Validate(); err != nil {
		return models.Outcome{}, err
	}

	st, err := d.settings.Load()
	if err != nil {
		return models.Outcome{}, err
	}
	outDir, err := ensureOutputDir(st.OutputFolder)
	if err != nil {
		return models.Outcome{}, err
	}

	var input string
	if desc.Kind != models.KindHTMLString && desc.Kind != models.KindPDFToImage {
		if input, err = d.preflight(desc); err != nil {
			return models.Outcome{}, err
		}
	}

	switch desc.Kind {
	case models.KindOffice:
		out, err := d.office.Convert(ctx, input, outDir, "pdf")
		if err != nil {
			return models.Outcome{}, err
		}
		return models.Succeeded(out), nil

	case models.KindImage:
		outPath := filepath.Join(outDir, OutputName(input, ".pdf", st.AppendTimestamp, d.now()))
		if err := ImageToPDF(input, outPath); err != nil {
			return models.Outcome{}, err
		}
		return models.Succeeded(outPath), nil

	case models.KindHTMLFile:
		data, err := os.ReadFile(input)
		if err != nil {
			return models.Outcome{}, models.IOFailure("failed to read html file", err)
		}
		return d.renderHTML(ctx, string(data), outDir, OutputName(input, ".pdf", st.AppendTimestamp, d.now()))

	case models.KindHTMLString:
		return d.renderHTML(ctx, desc.Content, outDir, HTMLStringName(d.now()))

	case models.KindEmail:
		file, err := os.Open(input)
		if err != nil {
			return models.Outcome{}, models.IOFailure("failed to open eml file", err)
		}
		defer file.Close()

		doc, err := EmailToHTML(file, d.attachmentScan())
		if err != nil {
			return models.Outcome{}, err
		}
		return d.renderHTML(ctx, doc, outDir, OutputName(input, ".pdf", st.AppendTimestamp, d.now()))

	case models.KindPDFToOffice:
		out, err := d.office.Convert(ctx, input, outDir, "docx")
		if err != nil {
			return models.Outcome{}, err
		}
		return models.Succeeded(out), nil

	case models.KindPDFToImage:
		// Pages are rasterized by the caller; only the destination is resolved here
		return models.SucceededDir(outDir), nil
	}

	return models.Outcome{}, models.InvalidInput(fmt.Sprintf("unknown conversion type: %s", desc.Kind), nil)
}

func (d *Dispatcher) renderHTML(ctx context.Context, doc, outDir, name string) (models.Outcome, error) {
	if strings.TrimSpace(doc) == "" {
		return models.Outcome{}, models.InvalidInput("no HTML content provided", nil)
	}
	data, err := d.html.Render(ctx, doc)
	if err != nil {
		var typed *models.Error
		if !errors.As(err, &typed) {
			err = models.RenderingFailed("failed to render HTML", err)
		}
		return models.Outcome{}, err
	}
	out, err := writeOutput(outDir, name, data)
	if err != nil {
		return models.Outcome{}, err
	}
	return models.Succeeded(out), nil
}

// preflight resolves and checks the source file before any engine runs
func (d *Dispatcher) preflight(desc models.Descriptor) (string, error) {
	input, err := ResolveInput(desc.SourcePath)
	if err != nil {
		return "", err
	}
	if !desc.Kind.AcceptsPath(input) {
		return "", models.InvalidInput(fmt.Sprintf("unsupported file type for %s: %s", desc.Kind, filepath.Base(input)), nil)
	}
	if d.scanner != nil && d.scanner.IsEnabled() {
		res, err := d.scanner.ScanFile(input)
		if err != nil {
			return "", models.IOFailure("failed to scan input", err)
		}
		if res.Infected {
			return "", models.InvalidInput(fmt.Sprintf("input rejected by virus scan: %s", strings.Join(res.Threats, ", ")), nil)
		}
	}
	return input, nil
}

func (d *Dispatcher) attachmentScan() func([]byte) ([]string, error) {
	if d.scanner == nil || !d.scanner.IsEnabled() {
		return nil
	}
	return func(data []byte) ([]string, error) {
		res, err := d.scanner.ScanBytes(data)
		if err != nil {
			return nil, err
		}
		return res.Threats, nil
	}
}

// SaveImage writes PNG bytes under the configured output folder and returns the absolute path
func (d *Dispatcher) SaveImage(name string, data []byte) (string, error) {
	if err := ValidateImageName(name); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", models.InvalidInput("image data is empty", nil)
	}
	st, err := d.settings.Load()
	if err != nil {
		return "", err
	}
	outDir, err := ensureOutputDir(st.OutputFolder)
	if err != nil {
		return "", err
	}
	return writeOutput(outDir, name, data)
}

// ResolveInput makes path absolute and checks that it names an existing file
func ResolveInput(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", models.InvalidInput("invalid file path", nil)
	}
	resolved, err := filepath.Abs(path)
	if err != nil {
		return "", models.InvalidInput("invalid file path", err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", models.InvalidInput(fmt.Sprintf("file not found: %s", resolved), nil)
	}
	if info.IsDir() {
		return "", models.InvalidInput(fmt.Sprintf("not a file: %s", resolved), nil)
	}
	return resolved, nil
}

func ensureOutputDir(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", models.IOFailure("output folder is not configured", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", models.IOFailure("failed to create output directory", err)
	}
	return dir, nil
}
