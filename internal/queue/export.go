package queue

import (
	"context"
	"fmt"
	"strconv"

	"pdfsuite/internal/converter"
	"pdfsuite/internal/models"
	"pdfsuite/internal/render"
)

// PageOptions selects the pages and scale of a PDF-to-image export
type PageOptions struct {
	PageRange string
	Scale     float64
}

// ExportPages rasterizes pages of pdfPath on this side and saves each one through the API.
// Every page gets its own record, created in converting. Range and scale errors are
// reported before anything is rendered.
func (q *Queue) ExportPages(ctx context.Context, renderer render.Renderer, pdfPath string, opts PageOptions) (BatchResult, error) {
	var result BatchResult
	pdfPath = absPath(pdfPath)

	scale, err := render.NormalizeScale(opts.Scale)
	if err != nil {
		return result, err
	}
	if !models.KindPDFToImage.AcceptsPath(pdfPath) {
		return result, models.InvalidInput(fmt.Sprintf("not a PDF file: %s", pdfPath), nil)
	}

	desc := models.Descriptor{
		Kind:    models.KindPDFToImage,
		Options: models.Options{Scale: scale, PageRange: opts.PageRange},
	}
	target, err := q.api.ConvertFromPDF(ctx, desc)
	if err != nil {
		return result, fmt.Errorf("conversion request failed: %w", err)
	}
	if !target.Success {
		return result, models.NewError(target.ErrorKind, target.Error, nil)
	}

	data, err := q.api.ReadFileBytes(ctx, pdfPath)
	if err != nil {
		return result, err
	}
	doc, err := renderer.Open(data)
	if err != nil {
		return result, err
	}
	defer doc.Close()

	pages, err := render.ParsePageRange(opts.PageRange, doc.PageCount())
	if err != nil {
		return result, err
	}

	q.logger.Info().Str("pdf", pdfPath).Int("pages", len(pages)).Float64("scale", scale).Msg("exporting pages")

	for _, page := range pages {
		name := converter.PageImageName(pdfPath, page)
		rec := q.newRecord(name, models.Descriptor{
			Kind:       models.KindPDFToImage,
			SourcePath: pdfPath,
			Options:    models.Options{Scale: scale, PageRange: strconv.Itoa(page)},
		}, models.StatusConverting)
		rec.StartedAt = q.now()
		q.attach(rec)

		q.finish(rec, q.exportPage(ctx, doc, page, scale, name))
		result.add(q.snapshot(rec))
	}

	if result.Succeeded > 0 {
		result.OpenedDir = q.openAfterBatch(ctx, target.OutputDir)
	}
	return result, nil
}

func (q *Queue) exportPage(ctx context.Context, doc render.Document, page int, scale float64, name string) models.Outcome {
	png, err := doc.RenderPNG(page, scale)
	if err != nil {
		return models.Failed(err)
	}
	path, err := q.api.SaveImageBytes(ctx, name, png)
	if err != nil {
		return models.Failed(err)
	}
	return models.Succeeded(path)
}
