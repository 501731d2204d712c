package interfaces

import (
	"context"

	"docqa/internal/rag/schema"
)

// Loader is the interface for loading a source file and converting it into a
// list of Document objects, one per logical unit.
type Loader interface {
	Load(ctx context.Context, path string) ([]*schema.Document, error)
}

// Splitter is the interface for splitting a list of Documents into smaller
// chunks.
type Splitter interface {
	Split(ctx context.Context, docs []*schema.Document) ([]*schema.Document, error)
}

// DocStore is the interface for storing and retrieving chunk texts by ID.
// The buildID scopes entries to one index build so that a replaced or cleared
// index can be purged without touching any other build's chunks.
type DocStore interface {
	Add(ctx context.Context, buildID string, docs map[string]*schema.Document) error
	Get(ctx context.Context, buildID string, ids []string) (map[string]*schema.Document, error)
	Purge(ctx context.Context, buildID string) error
}

// VectorStore is the interface for storing and querying chunk vectors.
// Query returns documents ordered by descending similarity, with the score in
// metadata under schema.MetadataKeyScore.
type VectorStore interface {
	Add(ctx context.Context, docs []*schema.Document) error
	Query(ctx context.Context, embedding []float32, topK int) ([]*schema.Document, error)
	Reset(ctx context.Context) error
}

// EmbeddingModel is the interface the pipelines use for a text embedding
// model: one vector per input text, order-preserving.
type EmbeddingModel interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// LLM is the interface for a chat model that can generate an answer from a
// system instruction and a user turn.
type LLM interface {
	Generate(ctx context.Context, system, user string) (string, error)
}
