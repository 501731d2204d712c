package embeddings

import (
	"context"

	"docqa/internal/embedding"
	"docqa/internal/rag/interfaces"
)

// Adapter exposes a provider embedding client as the pipeline's
// EmbeddingModel interface.
type Adapter struct {
	model embedding.Embedding
}

// NewAdapter wraps a provider embedding client.
func NewAdapter(model embedding.Embedding) *Adapter {
	return &Adapter{model: model}
}

// Embed generates one vector per input text, in order.
func (a *Adapter) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return a.model.EmbedBatch(ctx, texts)
}

// compile-time check to ensure Adapter implements the EmbeddingModel interface
var _ interfaces.EmbeddingModel = (*Adapter)(nil)
