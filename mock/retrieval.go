package mock

import (
	"context"

	"github.com/fwojciec/rufus"
)

var (
	_ rufus.RetrievalService = (*RetrievalService)(nil)
	_ rufus.TokenCounter     = (*TokenCounter)(nil)
)

// RetrievalService is a mock implementation of rufus.RetrievalService.
type RetrievalService struct {
	BuildIndexFn    func(ctx context.Context, seeds []string, chunkSize, chunkOverlap int) (*rufus.BuildResult, error)
	QueryFn         func(ctx context.Context, text string, k int) (*rufus.RetrievalResult, error)
	BuildAndQueryFn func(ctx context.Context, seeds []string, query string, k int) (*rufus.RetrievalResult, *rufus.BuildResult, error)
}

func (s *RetrievalService) BuildIndex(ctx context.Context, seeds []string, chunkSize, chunkOverlap int) (*rufus.BuildResult, error) {
	return s.BuildIndexFn(ctx, seeds, chunkSize, chunkOverlap)
}

func (s *RetrievalService) Query(ctx context.Context, text string, k int) (*rufus.RetrievalResult, error) {
	return s.QueryFn(ctx, text, k)
}

func (s *RetrievalService) BuildAndQuery(ctx context.Context, seeds []string, query string, k int) (*rufus.RetrievalResult, *rufus.BuildResult, error) {
	return s.BuildAndQueryFn(ctx, seeds, query, k)
}

// TokenCounter is a mock implementation of rufus.TokenCounter.
type TokenCounter struct {
	CountTokensFn func(ctx context.Context, corpus string) (int, error)
}

func (tc *TokenCounter) CountTokens(ctx context.Context, corpus string) (int, error) {
	return tc.CountTokensFn(ctx, corpus)
}
