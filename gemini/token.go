package gemini

import (
	"context"

	"github.com/fwojciec/rufus"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

// DefaultTokenizerModel is the model whose vocabulary is used for corpus
// token statistics.
const DefaultTokenizerModel = "gemini-2.0-flash"

var _ rufus.TokenCounter = (*TokenCounter)(nil)

// TokenCounter counts corpus tokens locally with the Gemini tokenizer. No API
// key is needed.
type TokenCounter struct {
	tok *tokenizer.LocalTokenizer
}

// NewTokenCounter loads the tokenizer vocabulary for model. Unsupported
// models return EINVALID.
func NewTokenCounter(model string) (*TokenCounter, error) {
	tok, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, rufus.Errorf(rufus.EINVALID, "tokenizer for %s: %v", model, err)
	}
	return &TokenCounter{tok: tok}, nil
}

// CountTokens returns the number of tokens in a crawled corpus. A blank corpus
// counts as zero without touching the tokenizer.
func (tc *TokenCounter) CountTokens(ctx context.Context, corpus string) (int, error) {
	if corpus == "" {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	content := genai.NewContentFromText(corpus, genai.RoleUser)
	result, err := tc.tok.CountTokens([]*genai.Content{content}, nil)
	if err != nil {
		return 0, rufus.Errorf(rufus.EINTERNAL, "count tokens: %v", err)
	}
	return int(result.TotalTokens), nil
}
