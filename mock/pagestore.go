package mock

import (
	"context"

	"github.com/fwojciec/rufus"
)

var _ rufus.PageStore = (*PageStore)(nil)

// PageStore is a mock implementation of rufus.PageStore.
type PageStore struct {
	SaveFn   func(ctx context.Context, page *rufus.PageResult) error
	CommitFn func() error
	AbortFn  func() error
}

func (s *PageStore) Save(ctx context.Context, page *rufus.PageResult) error {
	return s.SaveFn(ctx, page)
}

func (s *PageStore) Commit() error {
	return s.CommitFn()
}

func (s *PageStore) Abort() error {
	return s.AbortFn()
}
