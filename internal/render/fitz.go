// Package render rasterizes PDF pages for the reader and the PDF-to-image export.
package render

import (
	"bytes"
	"fmt"
	"image/png"
	"sync"

	"github.com/gen2brain/go-fitz"

	"pdfsuite/internal/models"
)

// Document is an open PDF
type Document interface {
	PageCount() int
	// RenderPNG rasterizes a 1-based page at scale (1.0 = 72 dpi)
	RenderPNG(page int, scale float64) ([]byte, error)
	Close() error
}

// Renderer opens PDF bytes
type Renderer interface {
	Open(data []byte) (Document, error)
}

// FitzRenderer renders with MuPDF
type FitzRenderer struct{}

// NewFitzRenderer creates a MuPDF-backed renderer
func NewFitzRenderer() *FitzRenderer {
	return &FitzRenderer{}
}

// Open parses the PDF held in data
func (FitzRenderer) Open(data []byte) (Document, error) {
	if len(data) == 0 {
		return nil, models.InvalidInput("PDF data is empty", nil)
	}
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, models.RenderingFailed("failed to open PDF", err)
	}
	return &fitzDocument{doc: doc}, nil
}

type fitzDocument struct {
	mu  sync.Mutex
	doc *fitz.Document
}

func (d *fitzDocument) PageCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.NumPage()
}

func (d *fitzDocument) RenderPNG(page int, scale float64) ([]byte, error) {
	scale, err := NormalizeScale(scale)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	total := d.doc.NumPage()
	if page < 1 || page > total {
		return nil, models.InvalidInput(fmt.Sprintf("page %d is out of range (1-%d)", page, total), nil)
	}

	img, err := d.doc.ImageDPI(page-1, 72*scale)
	if err != nil {
		return nil, models.RenderingFailed(fmt.Sprintf("failed to render page %d", page), err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, models.RenderingFailed(fmt.Sprintf("failed to encode page %d as PNG", page), err)
	}
	return buf.Bytes(), nil
}

func (d *fitzDocument) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Close()
}
