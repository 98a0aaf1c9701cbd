package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Generator turns a prompt into text. It is the narrow interface the
// content repository depends on.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// TextGenerator adapts a Provider to Generator.
type TextGenerator struct {
	provider  Provider
	maxTokens int
	timeout   time.Duration
}

var _ Generator = (*TextGenerator)(nil)

// NewTextGenerator returns a Generator using p. A zero timeout means the
// call is bounded only by ctx.
func NewTextGenerator(p Provider, maxTokens int, timeout time.Duration) *TextGenerator {
	return &TextGenerator{provider: p, maxTokens: maxTokens, timeout: timeout}
}

// Generate sends prompt as a single user message and returns the trimmed text.
func (g *TextGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.provider.Generate(ctx, UserPrompt(prompt, g.maxTokens))
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		if resp.StopReason == "max_tokens" {
			return "", &ErrMaxTokensExceeded{}
		}
		return "", &ErrInvalidResponse{Err: fmt.Errorf("empty response from %s", g.provider.ModelID())}
	}
	return text, nil
}
