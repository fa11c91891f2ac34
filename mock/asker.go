package mock

import (
	"context"

	"github.com/fwojciec/rufus"
)

var _ rufus.Asker = (*Asker)(nil)

// Asker is a mock implementation of rufus.Asker.
type Asker struct {
	AskFn func(ctx context.Context, question string, k int) (string, error)
}

func (a *Asker) Ask(ctx context.Context, question string, k int) (string, error) {
	return a.AskFn(ctx, question, k)
}
