package domain

import "context"

// Generator turns a rendered prompt into free text. The pipeline never depends
// on its output for scoring; it only narrates an already assembled context.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, prompt string) (string, error)
}
