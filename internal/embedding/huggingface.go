package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"docqa/internal/rag/interfaces"
)

// HuggingFaceModel is an embedding client for the Hugging Face Inference API.
type HuggingFaceModel struct {
	client  *http.Client
	model   string
	apiKey  string
	baseURL string
}

// NewHuggingFaceModel creates a Hugging Face embedding client. An empty
// baseURL defaults to the public feature-extraction endpoint.
func NewHuggingFaceModel(apiKey, modelName, baseURL string) (*HuggingFaceModel, error) {
	if baseURL == "" {
		baseURL = "https://api-inference.huggingface.co/pipeline/feature-extraction/"
	}
	return &HuggingFaceModel{
		client:  &http.Client{},
		model:   modelName,
		apiKey:  apiKey,
		baseURL: baseURL,
	}, nil
}

// Embed generates an embedding vector for a single text.
func (m *HuggingFaceModel) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch generates embedding vectors for a batch of texts.
func (m *HuggingFaceModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	payload := map[string]interface{}{
		"inputs":  texts,
		"options": map[string]bool{"wait_for_model": true},
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+m.model, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to send request: %v", interfaces.ErrProvider, err)
	}
	defer resp.Body.Close()

	if err := classifyHuggingFaceStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	var embeddings [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&embeddings); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", interfaces.ErrProvider, err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", interfaces.ErrProvider)
	}
	return embeddings, nil
}

// classifyHuggingFaceStatus maps an Inference API status onto the shared error
// taxonomy: rejected credentials are distinguished from everything else.
func classifyHuggingFaceStatus(status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: inference api returned status %d", interfaces.ErrAuthentication, status)
	default:
		return fmt.Errorf("%w: inference api returned status %d", interfaces.ErrProvider, status)
	}
}
