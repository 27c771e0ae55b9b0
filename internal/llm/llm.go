// Package llm wraps the text-generation API used by the routing, extraction,
// and analysis steps. The workflow depends only on the Generator interface;
// tests inject fakes.
package llm

import "context"

// Result is a completed generation plus the usage metadata recorded in the
// audit log.
type Result struct {
	Text             string
	Model            string
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Generator produces text from a prompt. Implementations must be safe for
// concurrent use.
type Generator interface {
	// Generate returns the raw model text for the prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateDetailed returns the model text plus usage metadata.
	GenerateDetailed(ctx context.Context, prompt string) (*Result, error)
}
