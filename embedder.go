package rufus

import (
	"context"
	"math"
)

// DefaultDevice is the execution target used when none is configured.
const DefaultDevice = "cpu"

// EmbedderConfig holds the options recognized by embedders.
type EmbedderConfig struct {
	// Model identifies the embedding model to use.
	Model string `json:"model"`

	// Device is the execution target (e.g. "cpu"). Remote embedders ignore it.
	Device string `json:"device"`

	// Normalize requests unit-length output vectors.
	Normalize bool `json:"normalize"`
}

// Validate returns an error if the config contains invalid fields.
func (c *EmbedderConfig) Validate() error {
	if c.Model == "" {
		return Errorf(EINVALID, "embedding model required")
	}
	return nil
}

// Embedder maps text to fixed-length vectors.
type Embedder interface {
	// EmbedDocuments embeds each text, returning one vector per input in order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the length of every vector the embedder produces.
	Dimensions() int
}

// NormalizeVector scales v in place to unit length. Zero vectors and
// non-finite components are left as they are.
func NormalizeVector(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return v
		}
		sum += f * f
	}
	if sum == 0 {
		return v
	}
	mag := math.Sqrt(sum)
	for i, x := range v {
		v[i] = float32(float64(x) / mag)
	}
	return v
}

// CosineSimilarity returns the cosine of the angle between a and b,
// or 0 when the lengths differ or either vector is zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
