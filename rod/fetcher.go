// Package rod implements rufus.Fetcher with headless Chrome, for pages whose
// paragraphs are rendered by JavaScript.
package rod

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/fwojciec/rufus"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultFetchTimeout bounds one page render.
const DefaultFetchTimeout = 10 * time.Second

// Ensure Fetcher implements rufus.Fetcher at compile time.
var _ rufus.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML using Chrome browser automation.
// Rendered DOM is always UTF-8. Fetcher is safe for concurrent use.
type Fetcher struct {
	manager *BrowserManager
	timeout time.Duration
	closed  atomic.Bool
}

// Option configures a Fetcher.
type Option func(*fetcherConfig)

type fetcherConfig struct {
	timeout  time.Duration
	maxPages int64
}

// WithFetchTimeout sets the per-page render timeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *fetcherConfig) {
		c.timeout = d
	}
}

// WithRecycleAfter sets how many pages one browser process renders before
// it is replaced.
func WithRecycleAfter(n int64) Option {
	return func(c *fetcherConfig) {
		c.maxPages = n
	}
}

// NewFetcher launches a headless browser. Close must be called when the
// Fetcher is no longer needed.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	cfg := fetcherConfig{timeout: DefaultFetchTimeout, maxPages: DefaultMaxPages}
	for _, opt := range opts {
		opt(&cfg)
	}

	manager, err := NewBrowserManager(WithMaxPages(cfg.maxPages))
	if err != nil {
		return nil, err
	}
	return &Fetcher{manager: manager, timeout: cfg.timeout}, nil
}

// Fetch navigates to url, waits for the load event and returns the DOM.
// Navigation failures and timeouts return ETRANSPORT.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*rufus.FetchResult, error) {
	if f.closed.Load() {
		return nil, rufus.Errorf(rufus.EINVALID, "fetcher is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, rufus.Errorf(rufus.ETRANSPORT, "fetching %s: %v", url, err)
	}

	browser := f.manager.Browser()
	if browser == nil {
		return nil, rufus.Errorf(rufus.EINVALID, "fetcher is closed")
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, rufus.Errorf(rufus.ETRANSPORT, "opening page for %s: %v", url, err)
	}
	defer page.Close()
	defer f.manager.PageDone()

	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return nil, rufus.Errorf(rufus.ETRANSPORT, "navigating to %s: %v", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, rufus.Errorf(rufus.ETRANSPORT, "loading %s: %v", url, err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, rufus.Errorf(rufus.ETRANSPORT, "reading DOM of %s: %v", url, err)
	}

	return &rufus.FetchResult{URL: url, Text: html, Encoding: rufus.DefaultEncoding}, nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	return f.manager.Close()
}
