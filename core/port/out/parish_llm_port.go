package out

import "context"

// GenerationOptions tune a single provider call.
type GenerationOptions struct {
	Temperature     float64
	MaxOutputTokens int
}

// TextGenerator is the raw generation provider behind the gateway. A nil
// error with an empty string means the provider answered with an
// unusable shape; callers treat it as "no result", not as a failure.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string, opts GenerationOptions) (string, error)
	Name() string
}
