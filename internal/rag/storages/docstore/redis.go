package docstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/schema"
)

// RedisDocStore is a Redis-backed implementation of the DocStore interface.
// It stores one JSON value per chunk under docqa:<buildID>:<chunkID>, which
// lets a chunk store outlive the process even though the vector index does
// not. Embeddings are not persisted; the vector store owns those.
type RedisDocStore struct {
	client *redis.Client
}

// storedDoc is the JSON shape of one persisted chunk.
type storedDoc struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NewRedisDocStore creates a RedisDocStore on an established client.
func NewRedisDocStore(client *redis.Client) *RedisDocStore {
	return &RedisDocStore{client: client}
}

func (s *RedisDocStore) buildKey(buildID, docID string) string {
	return fmt.Sprintf("docqa:%s:%s", buildID, docID)
}

// Add stores a map of chunk documents under the given build.
func (s *RedisDocStore) Add(ctx context.Context, buildID string, docs map[string]*schema.Document) error {
	pipe := s.client.Pipeline()
	for id, doc := range docs {
		payload, err := json.Marshal(storedDoc{Text: doc.Text, Metadata: doc.Metadata})
		if err != nil {
			return fmt.Errorf("failed to encode chunk %s: %w", id, err)
		}
		pipe.Set(ctx, s.buildKey(buildID, id), payload, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store chunks in redis: %w", err)
	}
	return nil
}

// Get retrieves chunk documents by ID for the given build. Missing IDs are
// simply absent from the result.
func (s *RedisDocStore) Get(ctx context.Context, buildID string, ids []string) (map[string]*schema.Document, error) {
	result := make(map[string]*schema.Document)
	for _, id := range ids {
		payload, err := s.client.Get(ctx, s.buildKey(buildID, id)).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read chunk %s from redis: %w", id, err)
		}

		var stored storedDoc
		if err := json.Unmarshal(payload, &stored); err != nil {
			return nil, fmt.Errorf("failed to decode chunk %s: %w", id, err)
		}
		result[id] = &schema.Document{ID: id, Text: stored.Text, Metadata: stored.Metadata}
	}
	return result, nil
}

// Purge removes every chunk stored under the given build.
func (s *RedisDocStore) Purge(ctx context.Context, buildID string) error {
	iter := s.client.Scan(ctx, 0, fmt.Sprintf("docqa:%s:*", buildID), 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan redis keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete redis keys: %w", err)
	}
	return nil
}

// compile-time check to ensure RedisDocStore implements the DocStore interface
var _ interfaces.DocStore = (*RedisDocStore)(nil)
