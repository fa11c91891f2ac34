// Package gemini implements rufus services on top of the Google Gemini API:
// a remote embedder, a question answerer and a local token counter.
package gemini

import (
	"context"
	"fmt"

	"github.com/fwojciec/rufus"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const (
	// DefaultEmbeddingModel is the Gemini embedding model.
	DefaultEmbeddingModel = "gemini-embedding-001"

	// DefaultDimensions is the requested output width. The model supports
	// truncated outputs; truncated vectors are not unit length.
	DefaultDimensions = 768

	// DefaultBatchSize is the number of texts sent per request.
	DefaultBatchSize = 100

	// DefaultRequestsPerSecond caps embedding requests.
	DefaultRequestsPerSecond = 5
)

// Task types understood by the embedding API.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// Ensure Embedder implements rufus.Embedder at compile time.
var _ rufus.Embedder = (*Embedder)(nil)

// Embedder implements rufus.Embedder with the Gemini embedding API.
type Embedder struct {
	client     *genai.Client
	model      string
	dimensions int
	normalize  bool
	batchSize  int
	limiter    *rate.Limiter
}

// Option configures an Embedder.
type Option func(*Embedder)

// WithDimensions sets the requested output width.
func WithDimensions(n int) Option {
	return func(e *Embedder) {
		if n > 0 {
			e.dimensions = n
		}
	}
}

// WithBatchSize sets the number of texts per request.
func WithBatchSize(n int) Option {
	return func(e *Embedder) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithRateLimit sets the request rate. Use rate.Inf to disable limiting.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(e *Embedder) {
		e.limiter = rate.NewLimiter(limit, burst)
	}
}

// NewEmbedder creates an Embedder. The device setting does not apply to a
// remote model and is ignored.
func NewEmbedder(client *genai.Client, cfg rufus.EmbedderConfig, opts ...Option) (*Embedder, error) {
	if client == nil {
		return nil, rufus.Errorf(rufus.EINVALID, "gemini client required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Embedder{
		client:     client,
		model:      cfg.Model,
		dimensions: DefaultDimensions,
		normalize:  cfg.Normalize,
		batchSize:  DefaultBatchSize,
		limiter:    rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// EmbedDocuments embeds texts in batches, one rate-limited request each.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		batch, err := e.embed(ctx, texts[start:end], TaskRetrievalDocument)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// EmbedQuery embeds a search query.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embed(ctx, []string{text}, TaskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Dimensions returns the requested output width.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

func (e *Embedder) embed(ctx context.Context, texts []string, task string) ([][]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}
	dims := int32(e.dimensions)

	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType:             task,
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if resp == nil || len(resp.Embeddings) != len(texts) {
		return nil, rufus.Errorf(rufus.EINTERNAL, "gemini returned %d embeddings for %d texts", embeddingCount(resp), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) != e.dimensions {
			return nil, rufus.Errorf(rufus.EINTERNAL, "gemini embedding %d has unexpected width", i)
		}
		v := emb.Values
		if e.normalize {
			rufus.NormalizeVector(v)
		}
		vectors[i] = v
	}
	return vectors, nil
}

func embeddingCount(resp *genai.EmbedContentResponse) int {
	if resp == nil {
		return 0
	}
	return len(resp.Embeddings)
}
