package service

import (
	"context"

	"docqa/internal/config"
	"docqa/internal/database/milvus"
	"docqa/internal/database/redis"
	"docqa/internal/embedding"
	"docqa/internal/llm"
	"docqa/internal/rag/embeddings"
	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/storages/docstore"
	"docqa/internal/rag/storages/vectorstore"
	"docqa/pkg/logger"
)

// Providers supplies the external capabilities of the pipelines. The model
// clients are created per build because they carry the session's credential;
// the vector store is created per build so each build can be discarded as a
// unit; the doc store is shared because its keys are build-scoped.
type Providers struct {
	NewEmbedder    func(credential string) (interfaces.EmbeddingModel, error)
	NewLLM         func(credential, model string) (interfaces.LLM, error)
	NewVectorStore func(buildID string) (interfaces.VectorStore, error)
	DocStore       interfaces.DocStore
}

// DefaultProviders wires the configured backends: GigaChat, Ollama or Hugging
// Face model clients, a memory or Milvus vector store, and a memory or Redis
// doc store.
func DefaultProviders(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (Providers, error) {
	providers := Providers{
		NewEmbedder: func(credential string) (interfaces.EmbeddingModel, error) {
			model, err := embedding.New(cfg.Embedding, credential)
			if err != nil {
				return nil, err
			}
			return embeddings.NewAdapter(model), nil
		},
		NewLLM: func(credential, model string) (interfaces.LLM, error) {
			return llm.New(cfg.LLM, credential, model)
		},
	}

	switch cfg.VectorStore.Backend {
	case "milvus":
		milvusClient, err := milvus.GetClient(ctx, &cfg.VectorStore.Milvus)
		if err != nil {
			return Providers{}, err
		}
		providers.NewVectorStore = func(buildID string) (interfaces.VectorStore, error) {
			return vectorstore.NewMilvusStore(milvusClient, cfg.VectorStore.Milvus.Collection, buildID, log)
		}
	default:
		providers.NewVectorStore = func(buildID string) (interfaces.VectorStore, error) {
			return vectorstore.NewMemoryStore(), nil
		}
	}

	switch cfg.DocStore.Backend {
	case "redis":
		redisClient, err := redis.GetClient(&cfg.DocStore.Redis)
		if err != nil {
			return Providers{}, err
		}
		providers.DocStore = docstore.NewRedisDocStore(redisClient)
	default:
		providers.DocStore = docstore.NewInMemoryDocStore()
	}

	return providers, nil
}
