package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/jon4hz/eduquest/internal/config"
)

// NewProvider creates a Provider from configuration, wrapped with logging.
func NewProvider(ctx context.Context, cfg *config.LLMConfig) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case config.LLMProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case config.LLMProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case config.LLMProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL)
	case config.LLMProviderMock:
		mock := NewMockProvider()
		mock.Fallback = demoContent
		base = mock
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return WithLogging(base), nil
}

// demoContent produces a fixed lesson and quiz so the app can be tried
// without a provider account.
func demoContent(req Request) string {
	topic := "this topic"
	if len(req.Messages) > 0 {
		prompt := req.Messages[len(req.Messages)-1].Content
		if _, rest, ok := strings.Cut(prompt, "Teach about "); ok {
			if name, _, ok := strings.Cut(rest, " in an engaging"); ok {
				topic = name
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**What is %s?**\n\n", topic)
	fmt.Fprintf(&b, "- %s is something we can learn about step by step.\n", topic)
	b.WriteString("- Reading carefully helps you remember.\n\n")
	b.WriteString("Quiz:\n\n")
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&b, "Question %d: Which answer is correct for part %d of %s?\n", i, i, topic)
		b.WriteString("A) The first answer\nB) The second answer\nC) The third answer\nD) The fourth answer\n")
		b.WriteString("Answer: A\n\n")
	}
	return b.String()
}
