package mock

import (
	"context"

	"github.com/fwojciec/rufus"
)

var _ rufus.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of rufus.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*rufus.FetchResult, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*rufus.FetchResult, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}
