// Package retrieval ties crawling, chunking, embedding and indexing
// together into a queryable service.
package retrieval

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/fwojciec/rufus"
)

// DefaultK is the number of chunks returned when the caller has no
// preference.
const DefaultK = 4

// Compile-time interface verification.
var _ rufus.RetrievalService = (*Service)(nil)

// Service owns at most one Index at a time. BuildIndex replaces it wholesale
// and closes the previous one; queries never see a partly built index.
type Service struct {
	Crawler  rufus.Crawler
	Embedder rufus.Embedder
	Indexes  rufus.IndexBuilder

	// TokenCounter, if set, fills BuildResult.Tokens. Counting errors are
	// ignored.
	TokenCounter rufus.TokenCounter

	// ChunkSize and ChunkOverlap are used by BuildAndQuery. A zero
	// ChunkSize selects rufus.DefaultChunkSize and rufus.DefaultChunkOverlap.
	ChunkSize    int
	ChunkOverlap int

	mu    sync.RWMutex
	index rufus.Index
}

// BuildIndex crawls seeds, chunks the corpus, embeds every chunk and
// installs a new index. When the crawl yields no text the service still
// becomes ready with an empty index, and the result comes back together
// with an EEMPTY error.
func (s *Service) BuildIndex(ctx context.Context, seeds []string, chunkSize, chunkOverlap int) (*rufus.BuildResult, error) {
	if err := rufus.ValidateChunking(chunkSize, chunkOverlap); err != nil {
		return nil, err
	}

	crawled, err := s.Crawler.Crawl(ctx, seeds)
	if err != nil {
		return nil, err
	}

	result := &rufus.BuildResult{
		Bytes:   len(crawled.Corpus),
		Fetched: crawled.Fetched,
		Skipped: crawled.Skipped,
	}

	var chunks []rufus.Chunk
	var vectors [][]float32
	if strings.TrimSpace(crawled.Corpus) != "" {
		chunks, err = rufus.SplitText(crawled.Corpus, chunkSize, chunkOverlap)
		if err != nil {
			return nil, err
		}

		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Content
		}
		vectors, err = s.Embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
		if len(vectors) != len(chunks) {
			return nil, rufus.Errorf(rufus.EINTERNAL, "embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
		}

		if s.TokenCounter != nil {
			if tokens, err := s.TokenCounter.CountTokens(ctx, crawled.Corpus); err == nil {
				result.Tokens = tokens
			}
		}
	}

	idx, err := s.Indexes.BuildIndex(ctx, chunks, vectors)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	result.Chunks = idx.Len()

	if err := s.replace(idx); err != nil {
		return result, fmt.Errorf("close previous index: %w", err)
	}

	if len(chunks) == 0 {
		return result, rufus.Errorf(rufus.EEMPTY, "crawl of %d seed URLs produced no text", len(seeds))
	}
	return result, nil
}

// Query embeds text and returns the k most similar chunks, best first.
// k above the index size is clamped. An empty index yields an empty result.
func (s *Service) Query(ctx context.Context, text string, k int) (*rufus.RetrievalResult, error) {
	if k <= 0 {
		return nil, rufus.Errorf(rufus.EINVALID, "k must be positive, got %d", k)
	}

	s.mu.RLock()
	idx := s.index
	s.mu.RUnlock()
	if idx == nil {
		return nil, rufus.Errorf(rufus.ENOTREADY, "index has not been built")
	}
	if idx.Len() == 0 {
		return rufus.NewRetrievalResult(text, nil), nil
	}

	vector, err := s.Embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// Hold the read lock so a concurrent rebuild cannot close the index
	// mid-search.
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return nil, rufus.Errorf(rufus.ENOTREADY, "index has been closed")
	}

	results, err := s.index.Search(ctx, vector, min(k, s.index.Len()))
	if err != nil {
		return nil, err
	}
	return rufus.NewRetrievalResult(text, results), nil
}

// BuildAndQuery builds an index from seeds with the service's chunking
// settings and runs one query against it. An empty crawl is not an error
// here: the query simply returns no hits.
func (s *Service) BuildAndQuery(ctx context.Context, seeds []string, query string, k int) (*rufus.RetrievalResult, *rufus.BuildResult, error) {
	size, overlap := s.ChunkSize, s.ChunkOverlap
	if size == 0 {
		size, overlap = rufus.DefaultChunkSize, rufus.DefaultChunkOverlap
	}

	built, err := s.BuildIndex(ctx, seeds, size, overlap)
	if err != nil && rufus.ErrorCode(err) != rufus.EEMPTY {
		return nil, built, err
	}

	result, err := s.Query(ctx, query, k)
	if err != nil {
		return nil, built, err
	}
	return result, built, nil
}

// Ready reports whether an index has been built.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index != nil
}

// Close releases the current index. Queries afterwards return ENOTREADY.
func (s *Service) Close() error {
	return s.replace(nil)
}

func (s *Service) replace(idx rufus.Index) error {
	s.mu.Lock()
	old := s.index
	s.index = idx
	s.mu.Unlock()

	if old != nil {
		return old.Close()
	}
	return nil
}
