package domain

import "context"

// CompletionOptions bounds a completion request.
type CompletionOptions struct {
	MaxTokens   int
	Temperature float32
}

// Completer is a prompt-to-text contract for short explanatory rationales. Output is
// advisory only and never feeds back into ranking.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
}
