package mock

import (
	"context"

	"github.com/fwojciec/rufus"
)

var (
	_ rufus.Index        = (*Index)(nil)
	_ rufus.IndexBuilder = (*IndexBuilder)(nil)
)

// Index is a mock implementation of rufus.Index.
type Index struct {
	SearchFn func(ctx context.Context, vector []float32, k int) ([]rufus.SearchResult, error)
	LenFn    func() int
	CloseFn  func() error
}

func (i *Index) Search(ctx context.Context, vector []float32, k int) ([]rufus.SearchResult, error) {
	return i.SearchFn(ctx, vector, k)
}

func (i *Index) Len() int {
	return i.LenFn()
}

func (i *Index) Close() error {
	return i.CloseFn()
}

// IndexBuilder is a mock implementation of rufus.IndexBuilder.
type IndexBuilder struct {
	BuildIndexFn func(ctx context.Context, chunks []rufus.Chunk, vectors [][]float32) (rufus.Index, error)
}

func (b *IndexBuilder) BuildIndex(ctx context.Context, chunks []rufus.Chunk, vectors [][]float32) (rufus.Index, error) {
	return b.BuildIndexFn(ctx, chunks, vectors)
}
