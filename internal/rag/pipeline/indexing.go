package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/schema"
	"docqa/pkg/logger"
)

// IndexingPipeline orchestrates loading, splitting, embedding and storing one
// document under a single index build.
type IndexingPipeline struct {
	splitter    interfaces.Splitter
	embedder    interfaces.EmbeddingModel
	docStore    interfaces.DocStore
	vectorStore interfaces.VectorStore
	log         *logger.Logger
}

// NewIndexingPipeline creates a new IndexingPipeline.
func NewIndexingPipeline(
	splitter interfaces.Splitter,
	embedder interfaces.EmbeddingModel,
	docStore interfaces.DocStore,
	vectorStore interfaces.VectorStore,
	log *logger.Logger,
) *IndexingPipeline {
	return &IndexingPipeline{
		splitter:    splitter,
		embedder:    embedder,
		docStore:    docStore,
		vectorStore: vectorStore,
		log:         log,
	}
}

// Run indexes the file at path under the given build ID and returns the IDs
// of the stored chunks. A document that yields no chunks returns an empty
// slice and no error; the caller decides what that means.
func (p *IndexingPipeline) Run(ctx context.Context, loader interfaces.Loader, path, buildID string) ([]string, error) {
	p.log.Info(fmt.Sprintf("Starting indexing for path: %s, build: %s", path, buildID))

	initialDocs, err := loader.Load(ctx, path)
	if err != nil {
		p.log.Error(fmt.Sprintf("Failed to load data: %v", err))
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	chunks, err := p.splitter.Split(ctx, initialDocs)
	if err != nil {
		p.log.Error(fmt.Sprintf("Failed to split documents: %v", err))
		return nil, fmt.Errorf("failed to split document: %w", err)
	}
	if len(chunks) == 0 {
		p.log.Warn(fmt.Sprintf("Document produced no chunks: %s", path))
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	embeddings, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		p.log.Error(fmt.Sprintf("Failed to embed chunks: %v", err))
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(chunks))
	}
	for i, chunk := range chunks {
		chunk.Embedding = embeddings[i]
	}

	// Store text and vectors concurrently.
	eg, gCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		chunkMap := make(map[string]*schema.Document, len(chunks))
		for _, chunk := range chunks {
			chunkMap[chunk.ID] = chunk
		}
		if err := p.docStore.Add(gCtx, buildID, chunkMap); err != nil {
			p.log.Error(fmt.Sprintf("Failed to add chunks to DocStore: %v", err))
			return err
		}
		return nil
	})
	eg.Go(func() error {
		if err := p.vectorStore.Add(gCtx, chunks); err != nil {
			p.log.Error(fmt.Sprintf("Failed to add chunks to VectorStore: %v", err))
			return err
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	ids := make([]string, len(chunks))
	for i, chunk := range chunks {
		ids[i] = chunk.ID
	}
	p.log.Info(fmt.Sprintf("Successfully indexed %d chunks for: %s", len(chunks), path))
	return ids, nil
}
