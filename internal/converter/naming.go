package converter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pdfsuite/internal/models"
)

// TimestampLayout is the UTC stamp appended to output names (ISO-8601 with ':' and '.' replaced)
const TimestampLayout = "2006-01-02T15-04-05"

// Timestamp formats t for use in file names
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// OutputName derives the output file name for input with the new extension
func OutputName(input, ext string, appendTimestamp bool, now time.Time) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if appendTimestamp {
		base += "_" + Timestamp(now)
	}
	return base + ext
}

// HTMLStringName names the PDF produced from pasted HTML; it is always stamped
func HTMLStringName(now time.Time) string {
	return "html_" + Timestamp(now) + ".pdf"
}

// PageImageName names the PNG written for one page of a PDF export
func PageImageName(pdfPath string, page int) string {
	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	return fmt.Sprintf("%s_page_%d.png", base, page)
}

// ValidateImageName checks a caller-supplied PNG file name
func ValidateImageName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return models.InvalidInput("file name is required", nil)
	case filepath.IsAbs(name), strings.Contains(name, ".."):
		return models.InvalidInput(fmt.Sprintf("invalid file name: %s", name), nil)
	case filepath.Base(name) != name, strings.ContainsAny(name, `/\`):
		return models.InvalidInput(fmt.Sprintf("file name must not contain a directory: %s", name), nil)
	case !strings.EqualFold(filepath.Ext(name), ".png"):
		return models.InvalidInput(fmt.Sprintf("only .png files can be saved: %s", name), nil)
	}
	return nil
}

// writeOutput creates dir if needed and writes data to dir/name
func writeOutput(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", models.IOFailure("failed to create output directory", err)
	}
	out := filepath.Join(dir, name)
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", models.IOFailure("failed to write output file", err)
	}
	abs, err := filepath.Abs(out)
	if err != nil {
		return out, nil
	}
	return abs, nil
}
