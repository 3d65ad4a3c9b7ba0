package scraper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"yard-sniper/utils"
)

// BrowserFetcher renders pages in headless Chrome so inventories that are
// filled in by client-side script can be read. It only supports GET.
// One Chrome process serves every Get; each Get runs in its own tab.
type BrowserFetcher struct {
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	startOnce sync.Once
	startErr  error

	wait    time.Duration
	timeout time.Duration
	logger  *utils.Logger
}

// NewBrowserFetcher prepares a Chrome allocator. chromeBin overrides binary
// discovery when non-empty. Chrome is launched by the first Get. Each Get
// waits settle after navigation before reading the DOM and gives up after
// timeout.
func NewBrowserFetcher(chromeBin string, settle, timeout time.Duration, logger *utils.Logger) *BrowserFetcher {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[browser] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	return &BrowserFetcher{
		allocCtx:      allocCtx,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		wait:          settle,
		timeout:       timeout,
		logger:        logger,
	}
}

// start launches the shared browser once. Tabs must be derived only after
// it returns, or each would allocate its own process.
func (b *BrowserFetcher) start() error {
	b.startOnce.Do(func() {
		if err := b.browserCtx.Err(); err != nil {
			b.startErr = err
			return
		}
		b.startErr = chromedp.Run(b.browserCtx)
		if b.startErr == nil {
			b.logger.Debug("[browser] Browser started")
		}
	})
	return b.startErr
}

// Get opens a new tab in the shared browser, navigates it to url and returns
// the rendered document.
func (b *BrowserFetcher) Get(ctx context.Context, url string) (*Page, error) {
	if err := b.browserCtx.Err(); err != nil {
		return nil, fmt.Errorf("scraper: render %s: browser closed: %w", url, err)
	}
	if err := b.start(); err != nil {
		return nil, fmt.Errorf("scraper: start browser: %w", err)
	}

	tabCtx, cancelTab := chromedp.NewContext(b.browserCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.timeout)
	defer cancelTimeout()

	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(b.wait),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("scraper: render %s: %w", url, err)
	}
	b.logger.Debug("[browser] Rendered %s (%d bytes)", url, len(html))
	return &Page{URL: url, StatusCode: 200, Body: []byte(html)}, nil
}

// PostForm is not available on a rendering fetcher.
func (b *BrowserFetcher) PostForm(ctx context.Context, url string, form map[string]string) (*Page, error) {
	return nil, fmt.Errorf("scraper: post %s: %w", url, ErrMethodNotSupported)
}

// Close shuts the browser down and releases the allocator.
func (b *BrowserFetcher) Close() {
	b.browserCancel()
	b.allocCancel()
}

// findChromeBinary locates a Chrome/Chromium binary.
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
