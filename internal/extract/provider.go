package extract

import "context"

// LLMProvider sends a prompt to a language model and returns the raw text
// response. Implementations exist for an OpenAI-compatible HTTP endpoint and
// a locally installed ollama binary.
type LLMProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
