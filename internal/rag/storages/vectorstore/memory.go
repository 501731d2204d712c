package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/schema"
)

// MemoryStore is a brute-force in-memory vector store using cosine
// similarity. It holds the single live index of one session: process-scoped,
// never persisted, discarded on clear or on the next successful build.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	docs      []*schema.Document
}

// NewMemoryStore creates an empty MemoryStore. The vector dimension is fixed
// by the first Add.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Add stores the documents' embeddings. All vectors must share one dimension.
func (s *MemoryStore) Add(ctx context.Context, docs []*schema.Document) error {
	if len(docs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range docs {
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", doc.ID)
		}
		if s.dimension == 0 {
			s.dimension = len(doc.Embedding)
		}
		if len(doc.Embedding) != s.dimension {
			return fmt.Errorf("chunk %s has dimension %d, index has %d", doc.ID, len(doc.Embedding), s.dimension)
		}
	}

	s.docs = append(s.docs, docs...)
	return nil
}

// Query returns up to topK documents ordered by descending cosine similarity
// to the given vector. Scores are recorded under the score metadata key.
func (s *MemoryStore) Query(ctx context.Context, embedding []float32, topK int) ([]*schema.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if topK <= 0 {
		topK = 4
	}

	type scored struct {
		doc   *schema.Document
		score float32
	}
	results := make([]scored, 0, len(s.docs))
	for _, doc := range s.docs {
		results = append(results, scored{doc: doc, score: cosine(doc.Embedding, embedding)})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if topK > len(results) {
		topK = len(results)
	}
	out := make([]*schema.Document, 0, topK)
	for _, r := range results[:topK] {
		metadata := make(map[string]interface{}, len(r.doc.Metadata)+1)
		for k, v := range r.doc.Metadata {
			metadata[k] = v
		}
		metadata[schema.MetadataKeyScore] = r.score
		out = append(out, &schema.Document{ID: r.doc.ID, Metadata: metadata})
	}
	return out, nil
}

// Reset discards all stored vectors.
func (s *MemoryStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = 0
	s.docs = nil
	return nil
}

func cosine(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// compile-time check to ensure MemoryStore implements the VectorStore interface
var _ interfaces.VectorStore = (*MemoryStore)(nil)
