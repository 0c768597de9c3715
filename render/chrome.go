package render

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// rasteriser turns an SVG document into png, jpeg or pdf bytes.
type rasteriser interface {
	Rasterise(ctx context.Context, svg []byte, format string, width, height int) ([]byte, error)
	Close()
}

// chromeRasteriser drives one headless browser, opening a tab per chart.
type chromeRasteriser struct {
	execPath string

	once        sync.Once
	startErr    error
	browser     context.Context
	cancelAlloc context.CancelFunc
	cancelTab   context.CancelFunc
}

func newChromeRasteriser(execPath string) *chromeRasteriser {
	if execPath == "" {
		execPath = findChromeBinary()
	}
	return &chromeRasteriser{execPath: execPath}
}

func (c *chromeRasteriser) start() {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	if c.execPath != "" {
		opts = append(opts, chromedp.ExecPath(c.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browser, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	c.browser, c.cancelAlloc, c.cancelTab = browser, cancelAlloc, cancelTab

	// An empty run launches the browser so later tabs share it.
	if err := chromedp.Run(browser); err != nil {
		c.startErr = fmt.Errorf("render: start chrome (%s): %w", c.execPath, err)
	}
}

// Rasterise opens svg as a document in a viewport sized to the chart and
// captures it.
func (c *chromeRasteriser) Rasterise(ctx context.Context, svg []byte, format string, width, height int) ([]byte, error) {
	c.once.Do(c.start)
	if c.startErr != nil {
		return nil, c.startErr
	}

	tab, cancel := chromedp.NewContext(c.browser)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	url := "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(svg)

	var out []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(width), int64(height)),
		chromedp.Navigate(url),
	}
	switch format {
	case "png":
		tasks = append(tasks, chromedp.FullScreenshot(&out, 100))
	case "jpg", "jpeg":
		tasks = append(tasks, chromedp.FullScreenshot(&out, 90))
	case "pdf":
		tasks = append(tasks, chromedp.ActionFunc(func(ctx context.Context) error {
			// Chrome measures paper in inches at 96 px each.
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(float64(width) / 96).
				WithPaperHeight(float64(height) / 96).
				WithMarginTop(0).WithMarginBottom(0).WithMarginLeft(0).WithMarginRight(0).
				WithPageRanges("1").
				Do(ctx)
			out = data
			return err
		}))
	default:
		return nil, fmt.Errorf("render: cannot rasterise to %q", format)
	}

	if err := chromedp.Run(tab, tasks); err != nil {
		return nil, fmt.Errorf("render: chrome %s capture: %w", format, err)
	}
	return out, nil
}

// Close shuts the browser down if it was started.
func (c *chromeRasteriser) Close() {
	if c.cancelTab != nil {
		c.cancelTab()
		c.cancelAlloc()
	}
}

// findChromeBinary locates a Chrome or Chromium binary, returning "" to let
// chromedp use its own lookup.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
