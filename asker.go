package rufus

import "context"

// Asker answers natural language questions from retrieved chunks.
type Asker interface {
	// Ask retrieves the k chunks most relevant to question and answers it
	// from them. Returns ENOTREADY if no index has been built.
	Ask(ctx context.Context, question string, k int) (string, error)
}
