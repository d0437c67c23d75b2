package converter

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register decoders for DecodeConfig
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"pdfsuite/internal/models"
)

// ImageToPDF writes a single-page PDF whose page matches the image's pixel size in points
func ImageToPDF(inputPath, outputPath string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return models.IOFailure("failed to read image", err)
	}

	imageType, err := gofpdfImageType(inputPath)
	if err != nil {
		return err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return models.RenderingFailed("failed to decode image", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return models.RenderingFailed(fmt.Sprintf("image has invalid dimensions %dx%d", cfg.Width, cfg.Height), nil)
	}

	w, h := float64(cfg.Width), float64(cfg.Height)
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: imageType}
	name := filepath.Base(inputPath)
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	pdf.ImageOptions(name, 0, 0, w, h, false, opts, 0, "")
	if err := pdf.Error(); err != nil {
		return models.RenderingFailed("failed to build PDF", err)
	}

	if err := pdf.OutputFileAndClose(outputPath); err != nil {
		return models.IOFailure("failed to write pdf file", err)
	}
	return nil
}

func gofpdfImageType(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "JPG", nil
	case ".png":
		return "PNG", nil
	}
	return "", models.InvalidInput(fmt.Sprintf("unsupported image type: %s", filepath.Base(path)), nil)
}
