package rufus

import "context"

// SearchResult represents a search match.
type SearchResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// Index stores (chunk, vector) pairs and answers nearest-neighbor queries.
// An Index is read-only once built and safe for concurrent searches.
type Index interface {
	// Search returns up to k chunks ordered by descending similarity to vector.
	Search(ctx context.Context, vector []float32, k int) ([]SearchResult, error)

	// Len returns the number of stored chunks.
	Len() int

	// Close releases resources held by the index.
	Close() error
}

// IndexBuilder creates indexes in bulk.
type IndexBuilder interface {
	// BuildIndex stores chunks[i] with vectors[i] in a new Index.
	// Returns EINVALID if the slices differ in length.
	BuildIndex(ctx context.Context, chunks []Chunk, vectors [][]float32) (Index, error)
}
