package retrieval_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/fwojciec/rufus"
	"github.com/fwojciec/rufus/crawl"
	"github.com/fwojciec/rufus/goquery"
	"github.com/fwojciec/rufus/mock"
	"github.com/fwojciec/rufus/retrieval"
	"github.com/fwojciec/rufus/sqlite"
	"github.com/fwojciec/rufus/xxhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corpusCrawler(corpus string) *mock.Crawler {
	return &mock.Crawler{
		CrawlFn: func(_ context.Context, seeds []string) (*rufus.CrawlResult, error) {
			return &rufus.CrawlResult{Corpus: corpus, Fetched: seeds}, nil
		},
	}
}

func newEmbedder(t *testing.T) rufus.Embedder {
	t.Helper()
	e, err := xxhash.NewEmbedder(rufus.EmbedderConfig{Model: xxhash.DefaultModel, Normalize: true})
	require.NoError(t, err)
	return e
}

func newService(t *testing.T, crawler rufus.Crawler) *retrieval.Service {
	t.Helper()
	s := &retrieval.Service{
		Crawler:  crawler,
		Embedder: newEmbedder(t),
		Indexes:  sqlite.NewIndexBuilder(),
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

const threeParagraphs = "Go channels carry values between goroutines.\n\n" +
	"Sourdough bread rises slowly overnight.\n\n" +
	"Bicycles have two wheels and pedals.\n"

func TestService_Query(t *testing.T) {
	t.Parallel()

	t.Run("fails with not ready before any build", func(t *testing.T) {
		t.Parallel()

		s := newService(t, corpusCrawler("unused"))

		_, err := s.Query(context.Background(), "anything", 3)

		require.Error(t, err)
		assert.Equal(t, rufus.ENOTREADY, rufus.ErrorCode(err))
		assert.False(t, s.Ready())
	})

	t.Run("returns the most similar chunk first", func(t *testing.T) {
		t.Parallel()

		s := newService(t, corpusCrawler(threeParagraphs))
		_, err := s.BuildIndex(context.Background(), []string{"https://example.com"}, 50, 0)
		require.NoError(t, err)

		result, err := s.Query(context.Background(), "how do goroutines pass values over channels", 1)

		require.NoError(t, err)
		require.Equal(t, 1, result.Len())
		assert.Equal(t, 0, result.Hits[0].Rank)
		assert.Contains(t, result.Hits[0].Text, "channels")
	})

	t.Run("returns every chunk ranked when k exceeds the index", func(t *testing.T) {
		t.Parallel()

		s := newService(t, corpusCrawler(threeParagraphs))
		built, err := s.BuildIndex(context.Background(), []string{"https://example.com"}, 50, 0)
		require.NoError(t, err)
		require.Equal(t, 3, built.Chunks)

		result, err := s.Query(context.Background(), "bread", 10)

		require.NoError(t, err)
		require.Equal(t, 3, result.Len())
		m := result.Map()
		assert.Len(t, m, 3)
		for rank := range 3 {
			assert.Contains(t, m, rank)
			assert.NotContains(t, m[rank], "\n")
		}
		assert.GreaterOrEqual(t, result.Hits[0].Score, result.Hits[1].Score)
		assert.GreaterOrEqual(t, result.Hits[1].Score, result.Hits[2].Score)
	})

	t.Run("rejects non-positive k", func(t *testing.T) {
		t.Parallel()

		s := newService(t, corpusCrawler(threeParagraphs))
		_, err := s.BuildIndex(context.Background(), nil, 50, 0)
		require.NoError(t, err)

		_, err = s.Query(context.Background(), "bread", 0)

		assert.Equal(t, rufus.EINVALID, rufus.ErrorCode(err))
	})
}

func TestService_BuildIndex(t *testing.T) {
	t.Parallel()

	t.Run("empty crawl yields empty corpus error and a queryable empty index", func(t *testing.T) {
		t.Parallel()

		s := newService(t, corpusCrawler(""))

		built, err := s.BuildIndex(context.Background(), []string{}, rufus.DefaultChunkSize, rufus.DefaultChunkOverlap)

		require.Error(t, err)
		assert.Equal(t, rufus.EEMPTY, rufus.ErrorCode(err))
		require.NotNil(t, built)
		assert.Zero(t, built.Chunks)
		assert.True(t, s.Ready())

		result, err := s.Query(context.Background(), "anything", 4)
		require.NoError(t, err)
		assert.Zero(t, result.Len())
	})

	t.Run("treats whitespace-only corpus as empty", func(t *testing.T) {
		t.Parallel()

		s := newService(t, corpusCrawler("\n\n \n"))

		_, err := s.BuildIndex(context.Background(), []string{"https://example.com"}, 10, 2)

		assert.Equal(t, rufus.EEMPTY, rufus.ErrorCode(err))
	})

	t.Run("rejects invalid chunking before crawling", func(t *testing.T) {
		t.Parallel()

		crawled := false
		s := newService(t, &mock.Crawler{
			CrawlFn: func(context.Context, []string) (*rufus.CrawlResult, error) {
				crawled = true
				return &rufus.CrawlResult{}, nil
			},
		})

		_, err := s.BuildIndex(context.Background(), nil, 10, 10)

		assert.Equal(t, rufus.EINVALID, rufus.ErrorCode(err))
		assert.False(t, crawled)
	})

	t.Run("reports skipped URLs, bytes and tokens", func(t *testing.T) {
		t.Parallel()

		skipped := []rufus.SkippedURL{{URL: "https://down.example", Err: rufus.Errorf(rufus.ETRANSPORT, "HTTP 503")}}
		s := newService(t, &mock.Crawler{
			CrawlFn: func(context.Context, []string) (*rufus.CrawlResult, error) {
				return &rufus.CrawlResult{Corpus: "Hello\nWorld\n", Skipped: skipped}, nil
			},
		})
		s.TokenCounter = &mock.TokenCounter{
			CountTokensFn: func(_ context.Context, text string) (int, error) {
				return len(strings.Fields(text)), nil
			},
		}

		built, err := s.BuildIndex(context.Background(), []string{"https://down.example"}, 100, 10)

		require.NoError(t, err)
		assert.Equal(t, 1, built.Chunks)
		assert.Equal(t, 12, built.Bytes)
		assert.Equal(t, 2, built.Tokens)
		assert.Equal(t, skipped, built.Skipped)
	})

	t.Run("rebuild replaces and closes the previous index", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var closed []int
		build := 0
		s := &retrieval.Service{
			Crawler:  corpusCrawler("some text"),
			Embedder: newEmbedder(t),
			Indexes: &mock.IndexBuilder{
				BuildIndexFn: func(_ context.Context, chunks []rufus.Chunk, _ [][]float32) (rufus.Index, error) {
					build++
					id := build
					return &mock.Index{
						LenFn: func() int { return len(chunks) },
						SearchFn: func(context.Context, []float32, int) ([]rufus.SearchResult, error) {
							return []rufus.SearchResult{{Chunk: rufus.Chunk{Content: "from build"}, Score: float64(id)}}, nil
						},
						CloseFn: func() error {
							mu.Lock()
							defer mu.Unlock()
							closed = append(closed, id)
							return nil
						},
					}, nil
				},
			},
		}

		_, err := s.BuildIndex(context.Background(), nil, 50, 0)
		require.NoError(t, err)
		_, err = s.BuildIndex(context.Background(), nil, 50, 0)
		require.NoError(t, err)

		result, err := s.Query(context.Background(), "q", 1)
		require.NoError(t, err)
		assert.InDelta(t, 2.0, result.Hits[0].Score, 0)
		assert.Equal(t, []int{1}, closed)

		require.NoError(t, s.Close())
		assert.Equal(t, []int{1, 2}, closed)
		assert.False(t, s.Ready())
	})

	t.Run("propagates embedder failure and keeps the old index", func(t *testing.T) {
		t.Parallel()

		fail := false
		inner := newEmbedder(t)
		s := newService(t, corpusCrawler(threeParagraphs))
		s.Embedder = &mock.Embedder{
			EmbedDocumentsFn: func(ctx context.Context, texts []string) ([][]float32, error) {
				if fail {
					return nil, rufus.Errorf(rufus.EINTERNAL, "quota exceeded")
				}
				return inner.EmbedDocuments(ctx, texts)
			},
			EmbedQueryFn: inner.EmbedQuery,
			DimensionsFn: inner.Dimensions,
		}

		_, err := s.BuildIndex(context.Background(), nil, 50, 0)
		require.NoError(t, err)

		fail = true
		_, err = s.BuildIndex(context.Background(), nil, 50, 0)
		require.Error(t, err)
		assert.Equal(t, rufus.EINTERNAL, rufus.ErrorCode(err))

		result, err := s.Query(context.Background(), "bread", 10)
		require.NoError(t, err)
		assert.Equal(t, 3, result.Len())
	})
}

func TestService_BuildAndQuery(t *testing.T) {
	t.Parallel()

	t.Run("crawls seeds and answers from their paragraphs", func(t *testing.T) {
		t.Parallel()

		pages := map[string]string{
			"https://example.com/a": `<p>Hello</p><p>World</p><ul><li><a href="/b">b</a></li></ul>`,
			"https://example.com/b": `<p>Nested</p>`,
		}
		c := &crawl.Crawler{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (*rufus.FetchResult, error) {
					html, ok := pages[url]
					if !ok {
						return nil, rufus.Errorf(rufus.ETRANSPORT, "HTTP 404 for %s", url)
					}
					return &rufus.FetchResult{URL: url, Text: html, Encoding: rufus.DefaultEncoding}, nil
				},
			},
			Extractor: goquery.NewExtractor(),
		}
		s := newService(t, c)

		result, built, err := s.BuildAndQuery(context.Background(), []string{"https://example.com/a"}, "nested hello", 5)

		require.NoError(t, err)
		assert.Equal(t, 1, built.Chunks)
		assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, built.Fetched)
		require.Equal(t, 1, result.Len())
		assert.Equal(t, "Hello World Nested", result.Map()[0])
	})

	t.Run("chunks with the configured size and overlap", func(t *testing.T) {
		t.Parallel()

		s := newService(t, corpusCrawler("Hello\nWorld\n"))
		s.ChunkSize = 6
		s.ChunkOverlap = 0

		result, built, err := s.BuildAndQuery(context.Background(), []string{"https://a.test"}, "World", 1)

		require.NoError(t, err)
		assert.Equal(t, 2, built.Chunks)
		require.Equal(t, 1, result.Len())
		assert.Equal(t, "World", result.Map()[0])
	})

	t.Run("surfaces invalid chunking without a build result", func(t *testing.T) {
		t.Parallel()

		s := newService(t, corpusCrawler("Hello\n"))
		s.ChunkSize = 10
		s.ChunkOverlap = 10

		result, built, err := s.BuildAndQuery(context.Background(), []string{"https://a.test"}, "Hello", 1)

		require.Error(t, err)
		assert.Equal(t, rufus.EINVALID, rufus.ErrorCode(err))
		assert.Nil(t, result)
		assert.Nil(t, built)
	})

	t.Run("empty seed list yields an empty result", func(t *testing.T) {
		t.Parallel()

		s := newService(t, corpusCrawler(""))

		result, built, err := s.BuildAndQuery(context.Background(), nil, "anything", 3)

		require.NoError(t, err)
		assert.Zero(t, built.Chunks)
		assert.Zero(t, result.Len())
	})
}
