package vectorstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"docqa/internal/database/milvus"
	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/schema"
	"docqa/pkg/logger"
)

const (
	// Schema fields of the shared chunk collection.
	FieldID        = "id"
	FieldBuildID   = "build_id"
	FieldEmbedding = "embedding"

	maxIDLength = 64
	ivfNList    = 128
	ivfNProbe   = 10
)

// MilvusStore is an adapter over the Milvus client that implements the
// VectorStore interface. All chains share one collection; each store instance
// only sees the vectors tagged with its own build ID, so replacing a chain is
// a matter of inserting under a new build and deleting the old one.
type MilvusStore struct {
	log        *logger.Logger
	client     client.Client
	collection string
	buildID    string

	mu    sync.Mutex
	ready bool
}

// NewMilvusStore creates a MilvusStore scoped to one index build. The
// collection is created lazily on the first Add, when the vector dimension
// becomes known.
func NewMilvusStore(milvusClient *milvus.MilvusClient, collection, buildID string, log *logger.Logger) (*MilvusStore, error) {
	if milvusClient == nil || milvusClient.Client == nil {
		return nil, fmt.Errorf("milvus client is not initialized")
	}
	return &MilvusStore{
		log:        log,
		client:     milvusClient.Client,
		collection: collection,
		buildID:    buildID,
	}, nil
}

// ensureCollection creates the collection and its index if they do not exist
// yet, then loads the collection for search.
func (s *MilvusStore) ensureCollection(ctx context.Context, dim int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}

	exists, err := s.client.HasCollection(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check Milvus collection: %w", err)
	}
	if !exists {
		collectionSchema := entity.NewSchema().
			WithName(s.collection).
			WithDescription("document chunk vectors").
			WithField(entity.NewField().
				WithName(FieldID).
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(maxIDLength).
				WithIsPrimaryKey(true)).
			WithField(entity.NewField().
				WithName(FieldBuildID).
				WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(maxIDLength)).
			WithField(entity.NewField().
				WithName(FieldEmbedding).
				WithDataType(entity.FieldTypeFloatVector).
				WithDim(int64(dim)))

		if err := s.client.CreateCollection(ctx, collectionSchema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("failed to create Milvus collection: %w", err)
		}

		idx, err := entity.NewIndexIvfFlat(entity.L2, ivfNList)
		if err != nil {
			return fmt.Errorf("failed to build Milvus index definition: %w", err)
		}
		if err := s.client.CreateIndex(ctx, s.collection, FieldEmbedding, idx, false); err != nil {
			return fmt.Errorf("failed to create Milvus index: %w", err)
		}
	}

	if err := s.client.LoadCollection(ctx, s.collection, false); err != nil {
		return fmt.Errorf("failed to load Milvus collection '%s': %w", s.collection, err)
	}

	s.ready = true
	return nil
}

// Add inserts the documents' embeddings, tagged with this store's build ID.
func (s *MilvusStore) Add(ctx context.Context, docs []*schema.Document) error {
	if len(docs) == 0 {
		return nil
	}

	dim := len(docs[0].Embedding)
	if dim == 0 {
		return fmt.Errorf("chunk %s has no embedding", docs[0].ID)
	}
	if err := s.ensureCollection(ctx, dim); err != nil {
		return err
	}

	ids := make([]string, len(docs))
	buildIDs := make([]string, len(docs))
	embeddings := make([][]float32, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
		buildIDs[i] = s.buildID
		embeddings[i] = doc.Embedding
	}

	idCol := entity.NewColumnVarChar(FieldID, ids)
	buildIDCol := entity.NewColumnVarChar(FieldBuildID, buildIDs)
	embeddingCol := entity.NewColumnFloatVector(FieldEmbedding, dim, embeddings)

	s.log.Info(fmt.Sprintf("Inserting %d chunks into Milvus collection: %s", len(docs), s.collection))
	if _, err := s.client.Insert(ctx, s.collection, "", idCol, buildIDCol, embeddingCol); err != nil {
		return fmt.Errorf("failed to insert data into Milvus: %w", err)
	}
	return nil
}

// Query searches this build's vectors and returns the closest chunk IDs, best
// match first, with the distance recorded under the score metadata key.
func (s *MilvusStore) Query(ctx context.Context, embedding []float32, topK int) ([]*schema.Document, error) {
	if err := s.ensureCollection(ctx, len(embedding)); err != nil {
		return nil, err
	}

	searchParams, _ := entity.NewIndexIvfFlatSearchParam(ivfNProbe)
	expr := fmt.Sprintf("%s == %q", FieldBuildID, s.buildID)

	searchResults, err := s.client.Search(
		ctx, s.collection, []string{}, expr, []string{FieldID},
		[]entity.Vector{entity.FloatVector(embedding)},
		FieldEmbedding, entity.L2, topK, searchParams,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search in Milvus: %w", err)
	}

	var results []*schema.Document
	for _, res := range searchResults {
		var idCol *entity.ColumnVarChar
		for _, field := range res.Fields {
			if col, ok := field.(*entity.ColumnVarChar); ok && col.Name() == FieldID {
				idCol = col
				break
			}
		}
		if idCol == nil {
			s.log.Warn("Search result is missing the ID field, skipping.")
			continue
		}

		idData := idCol.Data()
		for i := 0; i < res.ResultCount; i++ {
			results = append(results, &schema.Document{
				ID:       idData[i],
				Metadata: map[string]interface{}{schema.MetadataKeyScore: res.Scores[i]},
			})
		}
	}
	return results, nil
}

// Reset deletes every vector inserted under this store's build ID.
func (s *MilvusStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	ready := s.ready
	s.mu.Unlock()
	if !ready {
		exists, err := s.client.HasCollection(ctx, s.collection)
		if err != nil || !exists {
			return err
		}
	}

	expr := fmt.Sprintf("%s == %q", FieldBuildID, s.buildID)
	if err := s.client.Delete(ctx, s.collection, "", expr); err != nil {
		return fmt.Errorf("failed to delete build %s from Milvus: %w", s.buildID, err)
	}
	return nil
}

// compile-time check to ensure MilvusStore implements the VectorStore interface
var _ interfaces.VectorStore = (*MilvusStore)(nil)
