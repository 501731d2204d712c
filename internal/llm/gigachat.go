package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"docqa/internal/rag/interfaces"
)

// DefaultGigaChatBaseURL is the OpenAI-compatible GigaChat endpoint.
const DefaultGigaChatBaseURL = "https://gigachat.devices.sberbank.ru/api/v1"

// requestTimeout bounds one completion request. Synthesis over a large
// retrieved context can run long, so the limit is generous.
const requestTimeout = 20 * time.Minute

// GigaChat is a chat model client for the GigaChat API, which speaks the
// OpenAI wire protocol.
type GigaChat struct {
	client *openai.Client
	model  string
}

// NewGigaChat creates a GigaChat client for the given API key and model name.
func NewGigaChat(apiKey, model, baseURL string) (*GigaChat, error) {
	if baseURL == "" {
		baseURL = DefaultGigaChatBaseURL
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = &http.Client{Timeout: requestTimeout}
	client := openai.NewClientWithConfig(cfg)
	return &GigaChat{client: client, model: model}, nil
}

// Generate produces a completion for the system instruction and user message.
func (g *GigaChat) Generate(ctx context.Context, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyGigaChatError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no completion choices returned", interfaces.ErrProvider)
	}
	return resp.Choices[0].Message.Content, nil
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
