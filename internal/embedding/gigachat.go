package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"docqa/internal/rag/interfaces"
)

const (
	// DefaultGigaChatBaseURL is the OpenAI-compatible GigaChat endpoint.
	DefaultGigaChatBaseURL = "https://gigachat.devices.sberbank.ru/api/v1"
	// DefaultGigaChatEmbeddingModel is the embedding model GigaChat serves.
	DefaultGigaChatEmbeddingModel = "Embeddings"
)

// GigaChatModel is an embedding client for the GigaChat API, which speaks the
// OpenAI wire protocol.
type GigaChatModel struct {
	client *openai.Client
	model  string
}

// NewGigaChatModel creates a GigaChat embedding client authenticated with the
// given API key.
func NewGigaChatModel(apiKey, modelName, baseURL string) (*GigaChatModel, error) {
	if baseURL == "" {
		baseURL = DefaultGigaChatBaseURL
	}
	if modelName == "" {
		modelName = DefaultGigaChatEmbeddingModel
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	client := openai.NewClientWithConfig(cfg)
	return &GigaChatModel{client: client, model: modelName}, nil
}

// Embed generates an embedding vector for a single text.
func (m *GigaChatModel) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch generates embedding vectors for a batch of texts.
func (m *GigaChatModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	req := openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(m.model),
	}

	resp, err := m.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, classifyGigaChatError(err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", interfaces.ErrProvider)
	}

	embeddings := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		embeddings[i] = d.Embedding
	}
	return embeddings, nil
}

// classifyGigaChatError maps a GigaChat API failure onto the shared error
// taxonomy: rejected credentials are distinguished from everything else.
func classifyGigaChatError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden {
			return fmt.Errorf("%w: %v", interfaces.ErrAuthentication, err)
		}
	}
	return fmt.Errorf("%w: %v", interfaces.ErrProvider, err)
}
