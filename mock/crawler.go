package mock

import (
	"context"

	"github.com/fwojciec/rufus"
)

var _ rufus.Crawler = (*Crawler)(nil)

// Crawler is a mock implementation of rufus.Crawler.
type Crawler struct {
	CrawlFn func(ctx context.Context, seeds []string) (*rufus.CrawlResult, error)
}

func (c *Crawler) Crawl(ctx context.Context, seeds []string) (*rufus.CrawlResult, error) {
	return c.CrawlFn(ctx, seeds)
}
