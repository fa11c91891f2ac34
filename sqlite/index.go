package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/fwojciec/rufus"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var (
	_ rufus.IndexBuilder = (*IndexBuilder)(nil)
	_ rufus.Index        = (*Index)(nil)
)

// IndexBuilder creates a fresh in-memory database for every index it builds.
type IndexBuilder struct{}

// NewIndexBuilder creates a new IndexBuilder.
func NewIndexBuilder() *IndexBuilder {
	return &IndexBuilder{}
}

// BuildIndex stores every chunk with its vector in a new in-memory database.
// All vectors must have the same length.
func (b *IndexBuilder) BuildIndex(ctx context.Context, chunks []rufus.Chunk, vectors [][]float32) (rufus.Index, error) {
	if len(chunks) != len(vectors) {
		return nil, rufus.Errorf(rufus.EINVALID, "got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	dims := 0
	for i, v := range vectors {
		if i == 0 {
			dims = len(v)
		}
		if len(v) != dims {
			return nil, rufus.Errorf(rufus.EINVALID, "vector %d has %d dimensions, want %d", i, len(v), dims)
		}
	}

	db := NewDB(MemoryPath)
	if err := db.Open(); err != nil {
		return nil, err
	}

	if err := insertChunks(ctx, db, chunks, vectors); err != nil {
		db.Close()
		return nil, err
	}

	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		db.Close()
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	if n != len(chunks) {
		db.Close()
		return nil, rufus.Errorf(rufus.EINTERNAL, "stored %d of %d chunks", n, len(chunks))
	}

	return &Index{db: db, n: n, dims: dims}, nil
}

func insertChunks(ctx context.Context, db *DB, chunks []rufus.Chunk, vectors [][]float32) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, position, start_offset, end_offset, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		embJSON, err := json.Marshal(vectors[i])
		if err != nil {
			return fmt.Errorf("encode vector %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, uuid.New().String(), i, c.Start, c.End, c.Content, string(embJSON)); err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Index is a built, read-only set of chunks searched by cosine similarity.
type Index struct {
	db   *DB
	n    int
	dims int
}

// Search scores every stored chunk against vector and returns the k best,
// highest score first. Ties keep corpus order. k larger than the index is
// clamped.
func (idx *Index) Search(ctx context.Context, vector []float32, k int) ([]rufus.SearchResult, error) {
	if k <= 0 {
		return nil, rufus.Errorf(rufus.EINVALID, "k must be positive, got %d", k)
	}
	if idx.n == 0 {
		return []rufus.SearchResult{}, nil
	}
	if len(vector) != idx.dims {
		return nil, rufus.Errorf(rufus.EINVALID, "query vector has %d dimensions, want %d", len(vector), idx.dims)
	}

	rows, err := idx.db.QueryContext(ctx, `
		SELECT position, start_offset, end_offset, content, embedding
		FROM chunks
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	results := make([]rufus.SearchResult, 0, idx.n)
	for rows.Next() {
		var c rufus.Chunk
		var embJSON string
		if err := rows.Scan(&c.Index, &c.Start, &c.End, &c.Content, &embJSON); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		var emb []float32
		if err := json.Unmarshal([]byte(embJSON), &emb); err != nil {
			return nil, fmt.Errorf("decode vector %d: %w", c.Index, err)
		}
		results = append(results, rufus.SearchResult{
			Chunk: c,
			Score: rufus.CosineSimilarity(vector, emb),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Len returns the number of stored chunks.
func (idx *Index) Len() int {
	return idx.n
}

// Close releases the underlying database.
func (idx *Index) Close() error {
	return idx.db.Close()
}
