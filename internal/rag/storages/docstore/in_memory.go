package docstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/schema"
)

// InMemoryDocStore is a thread-safe, in-memory implementation of the DocStore
// interface. Keys carry a build-ID prefix so one build's chunks can be purged
// without scanning the others.
type InMemoryDocStore struct {
	mu   sync.RWMutex
	docs map[string]*schema.Document
}

// NewInMemoryDocStore creates a new instance of InMemoryDocStore.
func NewInMemoryDocStore() *InMemoryDocStore {
	return &InMemoryDocStore{
		docs: make(map[string]*schema.Document),
	}
}

func (s *InMemoryDocStore) buildKey(buildID, docID string) string {
	return fmt.Sprintf("%s:%s", buildID, docID)
}

// Add stores a map of chunk documents under the given build.
func (s *InMemoryDocStore) Add(ctx context.Context, buildID string, docs map[string]*schema.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, doc := range docs {
		s.docs[s.buildKey(buildID, id)] = doc
	}
	return nil
}

// Get retrieves chunk documents by ID for the given build. Missing IDs are
// simply absent from the result.
func (s *InMemoryDocStore) Get(ctx context.Context, buildID string, ids []string) (map[string]*schema.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*schema.Document)
	for _, id := range ids {
		if doc, ok := s.docs[s.buildKey(buildID, id)]; ok {
			result[id] = doc
		}
	}
	return result, nil
}

// Purge removes every chunk stored under the given build.
func (s *InMemoryDocStore) Purge(ctx context.Context, buildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := buildID + ":"
	for key := range s.docs {
		if strings.HasPrefix(key, prefix) {
			delete(s.docs, key)
		}
	}
	return nil
}

// compile-time check to ensure InMemoryDocStore implements the DocStore interface
var _ interfaces.DocStore = (*InMemoryDocStore)(nil)
