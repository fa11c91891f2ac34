package rufus

import (
	"context"
	"strings"
)

// RetrievalResult holds the chunks returned for a query, best match first.
type RetrievalResult struct {
	Query string `json:"query"`
	Hits  []Hit  `json:"hits"`
}

// Hit is one ranked chunk in a RetrievalResult.
type Hit struct {
	Rank  int     `json:"rank"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Len returns the number of hits.
func (r *RetrievalResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Hits)
}

// Map returns hit text keyed by rank.
func (r *RetrievalResult) Map() map[int]string {
	m := make(map[int]string, r.Len())
	if r == nil {
		return m
	}
	for _, h := range r.Hits {
		m[h.Rank] = h.Text
	}
	return m
}

// NewRetrievalResult ranks search results in the order given and
// normalizes their text for display.
func NewRetrievalResult(query string, results []SearchResult) *RetrievalResult {
	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{
			Rank:  i,
			Text:  NormalizeWhitespace(r.Chunk.Content),
			Score: r.Score,
		}
	}
	return &RetrievalResult{Query: query, Hits: hits}
}

// NormalizeWhitespace collapses runs of whitespace, including newlines, into
// single spaces and trims the ends.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// BuildResult summarizes an index build.
type BuildResult struct {
	// Chunks is the number of indexed chunks.
	Chunks int `json:"chunks"`

	// Bytes is the corpus size in bytes.
	Bytes int `json:"bytes"`

	// Tokens is the corpus token count, zero when no counter is configured.
	Tokens int `json:"tokens"`

	// Fetched lists the URLs that were fetched.
	Fetched []string `json:"fetched"`

	// Skipped lists the URLs that contributed nothing because they failed.
	Skipped []SkippedURL `json:"skipped,omitempty"`
}

// TokenCounter measures a corpus in model tokens for BuildResult.Tokens.
// A blank corpus counts as zero.
type TokenCounter interface {
	CountTokens(ctx context.Context, corpus string) (int, error)
}

// RetrievalService builds an index from seed URLs and answers queries against it.
type RetrievalService interface {
	// BuildIndex crawls seeds, chunks the corpus, embeds the chunks and
	// replaces the current index. Returns EEMPTY alongside a result when the
	// crawl produced no text; the service is then ready with an empty index.
	BuildIndex(ctx context.Context, seeds []string, chunkSize, chunkOverlap int) (*BuildResult, error)

	// Query returns the k chunks most similar to text.
	// Returns ENOTREADY if no index has been built.
	Query(ctx context.Context, text string, k int) (*RetrievalResult, error)

	// BuildAndQuery builds an index from seeds and runs a single query
	// against it. An empty crawl is reported through an empty result rather
	// than EEMPTY. The BuildResult is returned whenever the build ran.
	BuildAndQuery(ctx context.Context, seeds []string, query string, k int) (*RetrievalResult, *BuildResult, error)
}
