package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/rufus"
	"google.golang.org/genai"
)

// DefaultAskModel is the generation model used to answer questions.
const DefaultAskModel = "gemini-2.5-flash"

// Ensure Asker implements rufus.Asker at compile time.
var _ rufus.Asker = (*Asker)(nil)

// Asker implements rufus.Asker by retrieving chunks and asking Gemini to
// answer from them.
type Asker struct {
	client    *genai.Client
	retrieval rufus.RetrievalService
	model     string
}

// NewAsker creates a new Asker.
func NewAsker(client *genai.Client, retrieval rufus.RetrievalService) *Asker {
	return &Asker{client: client, retrieval: retrieval, model: DefaultAskModel}
}

// Ask answers question from the k chunks most similar to it.
func (a *Asker) Ask(ctx context.Context, question string, k int) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", rufus.Errorf(rufus.EINVALID, "question required")
	}

	result, err := a.retrieval.Query(ctx, question, k)
	if err != nil {
		return "", err
	}
	if result.Len() == 0 {
		return "", rufus.Errorf(rufus.ENOTFOUND, "no indexed text to answer from")
	}

	prompt := BuildUserPrompt(result, question)
	config := BuildConfig()

	resp, err := a.client.Models.GenerateContent(ctx, a.model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: prompt}},
		}},
		config,
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil {
		return "", rufus.Errorf(rufus.EINTERNAL, "gemini returned nil result")
	}

	return resp.Text(), nil
}

// BuildConfig returns the GenerateContentConfig for Gemini API calls.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.4)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You are a helpful assistant answering questions about crawled web pages. Answer based only on the context provided. If the answer is not in the context, say so.",
			}},
		},
		Temperature: &temp,
	}
}

// BuildUserPrompt builds the user prompt containing retrieved chunks, best
// match first, and the question.
func BuildUserPrompt(result *rufus.RetrievalResult, question string) string {
	var sb strings.Builder
	sb.WriteString("<context>\n")
	for _, hit := range result.Hits {
		sb.WriteString("<chunk>\n")
		fmt.Fprintf(&sb, "<rank>%d</rank>\n", hit.Rank)
		fmt.Fprintf(&sb, "<content>%s</content>\n", hit.Text)
		sb.WriteString("</chunk>\n")
	}
	sb.WriteString("</context>\n\n")
	fmt.Fprintf(&sb, "Question: %s", question)
	return sb.String()
}
