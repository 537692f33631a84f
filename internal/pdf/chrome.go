package pdf

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Letter paper in inches.
const (
	letterWidthIn  = 8.5
	letterHeightIn = 11.0
)

const defaultChromeTimeout = 30 * time.Second

// ChromeConverter prints HTML with a headless Chrome started per call.
type ChromeConverter struct {
	// ExecPath overrides the browser binary. Empty uses chromedp's lookup.
	ExecPath string
	Timeout  time.Duration
}

// NewChromeConverter creates a ChromeConverter.
func NewChromeConverter(execPath string, timeout time.Duration) *ChromeConverter {
	if timeout <= 0 {
		timeout = defaultChromeTimeout
	}
	return &ChromeConverter{ExecPath: execPath, Timeout: timeout}
}

// Convert loads html into a blank page and prints it. Page size and margins
// come from the document's @page rule.
func (c *ChromeConverter) Convert(ctx context.Context, html string) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, ErrEmptyHTML
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if c.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.ExecPath))
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultChromeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var buf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(letterWidthIn).
				WithPaperHeight(letterHeightIn).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			buf = out
			return nil
		}),
	)
	if err != nil {
		return nil, eris.Wrap(err, "pdf: chrome print")
	}

	zap.L().Debug("pdf: chrome printed document", zap.Int("bytes", len(buf)))
	return buf, nil
}
