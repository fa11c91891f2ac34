package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/rufus"
)

// Ensure LoggingEmbedder implements rufus.Embedder.
var _ rufus.Embedder = (*LoggingEmbedder)(nil)

// LoggingEmbedder wraps an Embedder with logging of each call.
type LoggingEmbedder struct {
	next   rufus.Embedder
	logger *slog.Logger
}

// NewLoggingEmbedder creates a new LoggingEmbedder.
func NewLoggingEmbedder(next rufus.Embedder, logger *slog.Logger) *LoggingEmbedder {
	return &LoggingEmbedder{next: next, logger: logger}
}

// EmbedDocuments logs the batch size and delegates to the wrapped embedder.
func (e *LoggingEmbedder) EmbedDocuments(ctx context.Context, texts []string) (vectors [][]float32, err error) {
	defer func(begin time.Time) {
		e.log("embed documents", err,
			"count", len(texts),
			"dimensions", e.next.Dimensions(),
			"duration", time.Since(begin),
		)
	}(time.Now())
	return e.next.EmbedDocuments(ctx, texts)
}

// EmbedQuery logs the query length and delegates to the wrapped embedder.
func (e *LoggingEmbedder) EmbedQuery(ctx context.Context, text string) (vector []float32, err error) {
	defer func(begin time.Time) {
		e.log("embed query", err,
			"chars", len(text),
			"duration", time.Since(begin),
		)
	}(time.Now())
	return e.next.EmbedQuery(ctx, text)
}

// Dimensions delegates to the wrapped embedder.
func (e *LoggingEmbedder) Dimensions() int {
	return e.next.Dimensions()
}

func (e *LoggingEmbedder) log(msg string, err error, args ...any) {
	if err != nil {
		e.logger.Error(msg, append(args, "err", err)...)
		return
	}
	e.logger.Info(msg, args...)
}
