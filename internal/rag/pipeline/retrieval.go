package pipeline

import (
	"context"
	"fmt"

	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/schema"
	"docqa/pkg/logger"
)

// RetrievalPipeline retrieves the chunks most relevant to a question from one
// index build.
type RetrievalPipeline struct {
	embedder    interfaces.EmbeddingModel
	vectorStore interfaces.VectorStore
	docStore    interfaces.DocStore
	buildID     string
	topK        int
	log         *logger.Logger
}

// NewRetrievalPipeline creates a new RetrievalPipeline bound to one build.
func NewRetrievalPipeline(
	embedder interfaces.EmbeddingModel,
	vectorStore interfaces.VectorStore,
	docStore interfaces.DocStore,
	buildID string,
	topK int,
	log *logger.Logger,
) *RetrievalPipeline {
	return &RetrievalPipeline{
		embedder:    embedder,
		vectorStore: vectorStore,
		docStore:    docStore,
		buildID:     buildID,
		topK:        topK,
		log:         log,
	}
}

// Run embeds the query, searches the vector store and enriches the hits with
// their stored text. The relevance order of the search is preserved.
func (p *RetrievalPipeline) Run(ctx context.Context, query string) ([]*schema.Document, error) {
	p.log.Info(fmt.Sprintf("Starting retrieval for query of %d characters", len(query)))

	queryEmbeddings, err := p.embedder.Embed(ctx, []string{query})
	if err != nil {
		p.log.Error(fmt.Sprintf("Failed to embed query: %v", err))
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(queryEmbeddings) == 0 {
		return nil, fmt.Errorf("embedder returned no vector for the query")
	}

	hits, err := p.vectorStore.Query(ctx, queryEmbeddings[0], p.topK)
	if err != nil {
		p.log.Error(fmt.Sprintf("Failed to query vector store: %v", err))
		return nil, fmt.Errorf("failed to query vector store: %w", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	ids := make([]string, len(hits))
	for i, hit := range hits {
		ids[i] = hit.ID
	}
	stored, err := p.docStore.Get(ctx, p.buildID, ids)
	if err != nil {
		p.log.Error(fmt.Sprintf("Failed to fetch chunk texts: %v", err))
		return nil, fmt.Errorf("failed to fetch chunk texts: %w", err)
	}

	results := make([]*schema.Document, 0, len(hits))
	for _, hit := range hits {
		doc, ok := stored[hit.ID]
		if !ok {
			p.log.Warn(fmt.Sprintf("Chunk %s found in vector store but missing from doc store", hit.ID))
			continue
		}

		metadata := make(map[string]interface{}, len(doc.Metadata)+len(hit.Metadata))
		for k, v := range doc.Metadata {
			metadata[k] = v
		}
		for k, v := range hit.Metadata {
			metadata[k] = v
		}
		results = append(results, &schema.Document{ID: hit.ID, Text: doc.Text, Metadata: metadata})
	}

	p.log.Info(fmt.Sprintf("Retrieved %d chunks", len(results)))
	return results, nil
}
