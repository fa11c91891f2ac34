// Package xxhash implements a local rufus.Embedder using feature hashing.
//
// Each lowercase word and each adjacent word pair is hashed with xxHash into
// one of a fixed number of buckets, with the hash's top bit choosing the
// sign. Texts sharing vocabulary land close together under cosine
// similarity. No model files or network access are needed.
package xxhash

import (
	"context"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/rufus"
)

// DefaultDimensions is the default vector width.
const DefaultDimensions = 384

// DefaultModel names the hashing scheme. The model name seeds the hash, so
// different names produce unrelated vector spaces.
const DefaultModel = "xxhash-bow-v1"

// Ensure Embedder implements rufus.Embedder at compile time.
var _ rufus.Embedder = (*Embedder)(nil)

// Embedder maps text to signed bag-of-words hash vectors.
type Embedder struct {
	model      string
	dimensions int
	normalize  bool
}

// Option configures an Embedder.
type Option func(*Embedder)

// WithDimensions sets the vector width. Values below 1 are ignored.
func WithDimensions(n int) Option {
	return func(e *Embedder) {
		if n > 0 {
			e.dimensions = n
		}
	}
}

// NewEmbedder creates an Embedder from cfg. Only the "cpu" device is
// supported; an empty device means "cpu".
func NewEmbedder(cfg rufus.EmbedderConfig, opts ...Option) (*Embedder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Device != "" && cfg.Device != rufus.DefaultDevice {
		return nil, rufus.Errorf(rufus.EINVALID, "unsupported device %q: only %q is available", cfg.Device, rufus.DefaultDevice)
	}

	e := &Embedder{
		model:      cfg.Model,
		dimensions: DefaultDimensions,
		normalize:  cfg.Normalize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// EmbedDocuments embeds each text in order.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = e.embed(text)
	}
	return vectors, nil
}

// EmbedQuery embeds a search query the same way as a document.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embed(text), nil
}

// Dimensions returns the vector width.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

func (e *Embedder) embed(text string) []float32 {
	v := make([]float32, e.dimensions)
	var prev string
	for _, tok := range tokenize(text) {
		e.add(v, tok)
		if prev != "" {
			e.add(v, prev+" "+tok)
		}
		prev = tok
	}
	if e.normalize {
		rufus.NormalizeVector(v)
	}
	return v
}

func (e *Embedder) add(v []float32, term string) {
	d := xxhash.New()
	_, _ = d.WriteString(e.model)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(term)
	h := d.Sum64()

	i := h % uint64(len(v))
	if h>>63 == 1 {
		v[i]--
	} else {
		v[i]++
	}
}

// tokenize splits text into lowercase runs of letters and digits.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
