package converter

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfsuite/internal/models"
	"pdfsuite/internal/security"
	"pdfsuite/internal/settings"
)

type staticSettings struct {
	st settings.Settings
}

func (s staticSettings) Load() (settings.Settings, error) { return s.st, nil }

type fakeHTML struct {
	calls []string
	panic bool
}

func (f *fakeHTML) Render(_ context.Context, html string) ([]byte, error) {
	if f.panic {
		panic("renderer blew up")
	}
	f.calls = append(f.calls, html)
	return []byte("%PDF-1.7 html"), nil
}

type fakeScanner struct {
	threats []string
}

func (f fakeScanner) IsEnabled() bool { return true }

func (f fakeScanner) ScanFile(string) (*security.ScanResult, error) {
	return &security.ScanResult{Scanned: true, Infected: len(f.threats) > 0, Threats: f.threats}, nil
}

func (f fakeScanner) ScanBytes([]byte) (*security.ScanResult, error) {
	return f.ScanFile("")
}

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 123000000, time.UTC)

type harness struct {
	dispatcher *Dispatcher
	exec       *fakeExecutor
	html       *fakeHTML
	outDir     string
}

func newHarness(t *testing.T, appendTimestamp bool, opts ...Option) *harness {
	t.Helper()
	outDir := filepath.Join(t.TempDir(), "Exports")
	exec := &fakeExecutor{}
	html := &fakeHTML{}
	store := staticSettings{st: settings.Settings{OutputFolder: outDir, AppendTimestamp: appendTimestamp}}
	office := NewOfficeEngine(locateAt("soffice"), WithExecutor(exec))
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return &harness{
		dispatcher: NewDispatcher(store, office, html, opts...),
		exec:       exec,
		html:       html,
		outDir:     outDir,
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestUnsupportedExtensionNeverSpawnsEngine(t *testing.T) {
	h := newHarness(t, false)
	input := newInput(t, "notes.txt")

	out := h.dispatcher.ConvertToPDF(context.Background(), models.Descriptor{Kind: models.KindOffice, SourcePath: input})
	assert.False(t, out.Success)
	assert.Equal(t, models.ErrorKindInvalidInput, out.ErrorKind)
	assert.Zero(t, h.exec.callCount())

	entries, err := os.ReadDir(h.outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMissingInputFails(t *testing.T) {
	h := newHarness(t, false)
	out := h.dispatcher.ConvertToPDF(context.Background(), models.Descriptor{
		Kind:       models.KindImage,
		SourcePath: filepath.Join(t.TempDir(), "gone.png"),
	})
	assert.False(t, out.Success)
	assert.Equal(t, models.ErrorKindInvalidInput, out.ErrorKind)
	assert.Contains(t, out.Error, "file not found")
}

func TestOfficeConversionUsesOutputFolder(t *testing.T) {
	h := newHarness(t, true)
	h.exec.produce = []string{"slides.pdf"}

	out := h.dispatcher.ConvertToPDF(context.Background(), models.Descriptor{
		Kind:       models.KindOffice,
		SourcePath: newInput(t, "slides.pptx"),
	})
	require.True(t, out.Success, out.Error)
	assert.Equal(t, filepath.Join(h.outDir, "slides.pdf"), out.OutputPath)
	assert.Equal(t, h.outDir, out.OutputDir)
}

func TestPDFToOfficeRequestsDocx(t *testing.T) {
	h := newHarness(t, false)
	h.exec.produce = []string{"paper.docx"}

	out := h.dispatcher.ConvertFromPDF(context.Background(), models.Descriptor{
		Kind:       models.KindPDFToOffice,
		SourcePath: newInput(t, "paper.pdf"),
	})
	require.True(t, out.Success, out.Error)
	assert.Equal(t, "paper.docx", filepath.Base(out.OutputPath))
	assert.Contains(t, h.exec.calls[0], "docx")
}

func TestImageToPDFMatchesPixelSize(t *testing.T) {
	h := newHarness(t, false)
	input := filepath.Join(t.TempDir(), "photo.png")
	writePNG(t, input, 40, 30)

	out := h.dispatcher.ConvertToPDF(context.Background(), models.Descriptor{Kind: models.KindImage, SourcePath: input})
	require.True(t, out.Success, out.Error)
	assert.Equal(t, filepath.Join(h.outDir, "photo.pdf"), out.OutputPath)

	data, err := os.ReadFile(out.OutputPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Contains(t, string(data), "/MediaBox [0 0 40.00 30.00]")
}

func TestImageRejectsCorruptData(t *testing.T) {
	h := newHarness(t, false)
	input := newInput(t, "broken.jpg")

	out := h.dispatcher.ConvertToPDF(context.Background(), models.Descriptor{Kind: models.KindImage, SourcePath: input})
	assert.False(t, out.Success)
	assert.Equal(t, models.ErrorKindRenderingFailed, out.ErrorKind)
}

func TestHTMLFileAppendsTimestamp(t *testing.T) {
	h := newHarness(t, true)
	input := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(input, []byte("<h1>hi</h1>"), 0o644))

	out := h.dispatcher.ConvertToPDF(context.Background(), models.Descriptor{Kind: models.KindHTMLFile, SourcePath: input})
	require.True(t, out.Success, out.Error)
	assert.Equal(t, "page_2024-03-09T14-05-07.pdf", filepath.Base(out.OutputPath))
	assert.Equal(t, []string{"<h1>hi</h1>"}, h.html.calls)
}

func TestHTMLStringIsAlwaysStamped(t *testing.T) {
	h := newHarness(t, false)

	out := h.dispatcher.ConvertToPDF(context.Background(), models.Descriptor{
		Kind:    models.KindHTMLString,
		Content: "<p>pasted</p>",
	})
	require.True(t, out.Success, out.Error)
	assert.Equal(t, filepath.Join(h.outDir, "html_2024-03-09T14-05-07.pdf"), out.OutputPath)

	blank := h.dispatcher.ConvertToPDF(context.Background(), models.Descriptor{Kind: models.KindHTMLString, Content: "   "})
	assert.False(t, blank.Success)
	assert.Equal(t, models.ErrorKindInvalidInput, blank.ErrorKind)
}

func TestEmailRendersThroughHTML(t *testing.T) {
	h := newHarness(t, false)
	input := filepath.Join(t.TempDir(), "message.eml")
	require.NoError(t, os.WriteFile(input, []byte(sampleEmail), 0o644))

	out := h.dispatcher.ConvertToPDF(context.Background(), models.Descriptor{Kind: models.KindEmail, SourcePath: input})
	require.True(t, out.Success, out.Error)
	assert.Equal(t, "message.pdf", filepath.Base(out.OutputPath))
	require.Len(t, h.html.calls, 1)
	assert.Contains(t, h.html.calls[0], "Quarterly numbers")
}

func TestPDFToImageReturnsOutputDirOnly(t *testing.T) {
	h := newHarness(t, false)
	out := h.dispatcher.ConvertFromPDF(context.Background(), models.Descriptor{Kind: models.KindPDFToImage})
	require.True(t, out.Success)
	assert.Empty(t, out.OutputPath)
	assert.Equal(t, h.outDir, out.OutputDir)
}

func TestWrongFamilyIsRejected(t *testing.T) {
	h := newHarness(t, false)
	out := h.dispatcher.ConvertToPDF(context.Background(), models.Descriptor{Kind: models.KindPDFToImage})
	assert.False(t, out.Success)
	assert.Equal(t, models.ErrorKindInvalidInput, out.ErrorKind)

	out = h.dispatcher.ConvertFromPDF(context.Background(), models.Descriptor{Kind: models.KindHTMLString, Content: "<p/>"})
	assert.False(t, out.Success)

	out = h.dispatcher.Convert(context.Background(), models.Descriptor{Kind: "fax", SourcePath: "x"})
	assert.False(t, out.Success)
	assert.Equal(t, models.ErrorKindInvalidInput, out.ErrorKind)
}

func TestEveryKindHasAStrategy(t *testing.T) {
	h := newHarness(t, false)
	h.exec.produce = []string{"sample.pdf", "sample.docx"}

	dir := t.TempDir()
	inputs := map[models.Kind]string{
		models.KindOffice:      "sample.docx",
		models.KindImage:       "sample.png",
		models.KindHTMLFile:    "sample.html",
		models.KindEmail:       "sample.eml",
		models.KindPDFToOffice: "sample.pdf",
	}
	for kind, name := range inputs {
		path := filepath.Join(dir, name)
		switch kind {
		case models.KindImage:
			writePNG(t, path, 4, 4)
		case models.KindEmail:
			require.NoError(t, os.WriteFile(path, []byte(sampleEmail), 0o644))
		default:
			require.NoError(t, os.WriteFile(path, []byte("<p>x</p>"), 0o644))
		}
	}

	for _, kind := range models.AllKinds() {
		t.Run(string(kind), func(t *testing.T) {
			desc := models.Descriptor{Kind: kind}
			switch kind {
			case models.KindHTMLString:
				desc.Content = "<p>x</p>"
			case models.KindPDFToImage:
			default:
				name, ok := inputs[kind]
				require.True(t, ok, "no fixture for kind %s", kind)
				desc.SourcePath = filepath.Join(dir, name)
			}
			out := h.dispatcher.Convert(context.Background(), desc)
			assert.True(t, out.Success, out.Error)
		})
	}
}

func TestPanicBecomesFailedOutcome(t *testing.T) {
	h := newHarness(t, false)
	h.html.panic = true

	out := h.dispatcher.ConvertToPDF(context.Background(), models.Descriptor{Kind: models.KindHTMLString, Content: "<p/>"})
	assert.False(t, out.Success)
	assert.Equal(t, models.ErrorKindRenderingFailed, out.ErrorKind)
	assert.Contains(t, out.Error, "renderer blew up")
}

func TestInfectedInputIsRejected(t *testing.T) {
	h := newHarness(t, false, WithScanner(fakeScanner{threats: []string{"Eicar-Test-Signature"}}))

	out := h.dispatcher.ConvertToPDF(context.Background(), models.Descriptor{
		Kind:       models.KindOffice,
		SourcePath: newInput(t, "invoice.docx"),
	})
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "Eicar-Test-Signature")
	assert.Zero(t, h.exec.callCount())
}

func TestSaveImage(t *testing.T) {
	h := newHarness(t, false)

	path, err := h.dispatcher.SaveImage("doc_page_1.png", []byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(h.outDir, "doc_page_1.png"), path)
	assert.True(t, filepath.IsAbs(path))

	for _, name := range []string{"../escape.png", "/abs/file.png", "sub/dir.png", "image.jpg", ""} {
		_, err := h.dispatcher.SaveImage(name, []byte{1})
		assert.True(t, models.IsKind(err, models.ErrorKindInvalidInput), "name %q", name)
	}

	_, err = h.dispatcher.SaveImage("empty.png", nil)
	assert.True(t, models.IsKind(err, models.ErrorKindInvalidInput))

	_, err = h.dispatcher.SaveImage("UPPER.PNG", []byte{1})
	assert.NoError(t, err)
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "report.pdf", OutputName("/in/report.docx", ".pdf", false, fixedNow))
	assert.Equal(t, "report_2024-03-09T14-05-07.pdf", OutputName("/in/report.docx", ".pdf", true, fixedNow))
	assert.Equal(t, "archive.tar.pdf", OutputName("archive.tar.gz", ".pdf", false, fixedNow))

	local := time.Date(2024, 3, 9, 16, 5, 7, 0, time.FixedZone("CEST", 2*3600))
	assert.Equal(t, "2024-03-09T14-05-07", Timestamp(local))
	assert.Equal(t, "scan_page_3.png", PageImageName("/tmp/scan.pdf", 3))
}

func TestEmailToHTMLEscapesPlainText(t *testing.T) {
	doc, err := EmailToHTML(strings.NewReader(plainEmail), nil)
	require.NoError(t, err)
	assert.Contains(t, doc, "<span class=\"header-label\">From:</span> Ada &lt;ada@example.com&gt;")
	assert.Contains(t, doc, "1 &lt; 2<br>")
}

const sampleEmail = "From: Ada <ada@example.com>\r\n" +
	"To: Grace <grace@example.com>\r\n" +
	"Subject: Quarterly numbers\r\n" +
	"Date: Tue, 05 Mar 2024 10:00:00 +0000\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: text/html; charset=UTF-8\r\n" +
	"\r\n" +
	"<p>See attached.</p>\r\n"

const plainEmail = "From: Ada <ada@example.com>\r\n" +
	"To: Grace <grace@example.com>\r\n" +
	"Subject: Plain\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: text/plain; charset=UTF-8\r\n" +
	"\r\n" +
	"1 < 2\r\n"
