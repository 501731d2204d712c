package llm

import (
	"context"
	"fmt"

	"docqa/internal/config"
)

// LLM is the interface implemented by every chat model client. Generate
// produces a single completion for a system instruction and a user message.
type LLM interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// New creates an LLM client for the configured provider. The credential is
// the session's API key and model is the resolved model name; a non-empty
// model in the config overrides the session's choice.
func New(cfg config.LLMConfig, credential, model string) (LLM, error) {
	if cfg.Model != "" {
		model = cfg.Model
	}
	switch cfg.Provider {
	case "gigachat":
		return NewGigaChat(credential, model, cfg.BaseURL)
	case "ollama":
		return NewOllama(model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
