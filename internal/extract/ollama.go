package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// OllamaProvider runs a locally installed model through the ollama CLI.
// Slower than a remote endpoint but free and quota-less, so no retry layer
// is wrapped around it.
type OllamaProvider struct {
	binary string // "ollama" unless overridden in tests
	model  string // e.g. "llama3"
}

// NewOllamaProvider creates a provider that shells out to ollama with the
// given model name.
func NewOllamaProvider(modelID string) *OllamaProvider {
	return &OllamaProvider{binary: "ollama", model: modelID}
}

// Model returns the configured model identifier, used in log events.
func (p *OllamaProvider) Model() string { return p.model }

// Complete runs `ollama run <model> <prompt>` and returns its stdout.
func (p *OllamaProvider) Complete(ctx context.Context, prompt string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.binary, "run", p.model, prompt)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ollama run %s: %w: %s", p.model, err, stderr.String())
	}
	return stdout.String(), nil
}
