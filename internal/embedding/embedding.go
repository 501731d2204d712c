package embedding

import (
	"fmt"

	"docqa/internal/config"
)

// New creates an Embedding model instance for the configured provider. The
// credential is the API key of the chat session the model will serve.
func New(cfg config.EmbeddingConfig, credential string) (Embedding, error) {
	switch cfg.Provider {
	case "gigachat":
		return NewGigaChatModel(credential, cfg.Model, cfg.BaseURL)
	case "ollama":
		return NewOllamaModel(cfg.Model, cfg.BaseURL)
	case "huggingface":
		return NewHuggingFaceModel(credential, cfg.Model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
