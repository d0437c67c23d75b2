package converter

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"pdfsuite/internal/models"
)

// DefaultSettleDelay is the pause between DOM ready and printing, letting late resources load
const DefaultSettleDelay = 500 * time.Millisecond

// HTMLRenderer turns an HTML document into PDF bytes
type HTMLRenderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// ChromeRenderer prints HTML with a fresh headless Chrome per call
type ChromeRenderer struct {
	ExecPath string        // empty lets chromedp find a browser
	Timeout  time.Duration // zero means none
	Settle   time.Duration
}

// NewChromeRenderer creates a renderer with the default settle delay
func NewChromeRenderer(execPath string, timeout time.Duration) *ChromeRenderer {
	return &ChromeRenderer{ExecPath: execPath, Timeout: timeout, Settle: DefaultSettleDelay}
}

// Render uses headless Chrome to convert HTML to PDF with print backgrounds
func (r *ChromeRenderer) Render(ctx context.Context, htmlContent string) ([]byte, error) {
	// Stage the document in a temp file and load it over file://
	tmpDir, err := os.MkdirTemp("", "pdfsuite-html")
	if err != nil {
		return nil, models.IOFailure("failed to create temp directory", err)
	}
	defer os.RemoveAll(tmpDir)

	tmpHTML := filepath.Join(tmpDir, "document.html")
	if err := os.WriteFile(tmpHTML, []byte(htmlContent), 0o600); err != nil {
		return nil, models.IOFailure("failed to write temp HTML file", err)
	}
	urlPath := filepath.ToSlash(tmpHTML)
	if !strings.HasPrefix(urlPath, "/") {
		urlPath = "/" + urlPath
	}
	fileURL := (&url.URL{Scheme: "file", Path: urlPath}).String()

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.Flag("headless", true),
		chromedp.WindowSize(1024, 768),
	)
	if r.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	if err := chromedp.Run(taskCtx); err != nil {
		return nil, models.RenderingFailed("failed to start browser", err)
	}

	var pdfBuffer []byte
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(fileURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(r.Settle),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = buf
			return nil
		}),
	); err != nil {
		return nil, models.RenderingFailed("failed to generate PDF", err)
	}

	if len(pdfBuffer) == 0 {
		return nil, models.RenderingFailed(fmt.Sprintf("browser returned an empty PDF for %s", fileURL), nil)
	}
	return pdfBuffer, nil
}
