package vectorstore

import (
	"context"
	"testing"

	"docqa/internal/rag/schema"
)

func addVectors(t *testing.T, s *MemoryStore, vectors map[string][]float32) {
	t.Helper()
	docs := make([]*schema.Document, 0, len(vectors))
	for id, v := range vectors {
		docs = append(docs, &schema.Document{ID: id, Embedding: v})
	}
	if err := s.Add(context.Background(), docs); err != nil {
		t.Fatalf("add: %v", err)
	}
}

func TestQueryIdenticalVectorIsTopRank(t *testing.T) {
	s := NewMemoryStore()
	addVectors(t, s, map[string][]float32{
		"a": {1, 0, 0},
		"b": {0, 1, 0},
		"c": {0.5, 0.5, 0},
	})

	hits, err := s.Query(context.Background(), []float32{0, 1, 0}, 3)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	if hits[0].ID != "b" {
		t.Errorf("top hit = %s, want b", hits[0].ID)
	}
	if _, ok := hits[0].Metadata[schema.MetadataKeyScore]; !ok {
		t.Error("top hit has no score metadata")
	}
}

func TestQueryScoresDescending(t *testing.T) {
	s := NewMemoryStore()
	addVectors(t, s, map[string][]float32{
		"a": {1, 0},
		"b": {0.9, 0.1},
		"c": {0, 1},
	})

	hits, err := s.Query(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	var prev float32 = 2
	for i, hit := range hits {
		score, ok := hit.Metadata[schema.MetadataKeyScore].(float32)
		if !ok {
			t.Fatalf("hit %d score missing", i)
		}
		if score > prev {
			t.Errorf("scores not descending at hit %d", i)
		}
		prev = score
	}
}

func TestQueryTopKBound(t *testing.T) {
	s := NewMemoryStore()
	addVectors(t, s, map[string][]float32{
		"a": {1, 0},
		"b": {0, 1},
	})

	hits, err := s.Query(context.Background(), []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}

	hits, err = s.Query(context.Background(), []float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
}

func TestAddRejectsDimensionMismatch(t *testing.T) {
	s := NewMemoryStore()
	addVectors(t, s, map[string][]float32{"a": {1, 0, 0}})

	err := s.Add(context.Background(), []*schema.Document{{ID: "b", Embedding: []float32{1, 0}}})
	if err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestReset(t *testing.T) {
	s := NewMemoryStore()
	addVectors(t, s, map[string][]float32{"a": {1, 0}})

	if err := s.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}
	hits, err := s.Query(context.Background(), []float32{1, 0}, 4)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected empty store after reset, got %d hits", len(hits))
	}

	// The dimension resets too; a different width is accepted again.
	addVectors(t, s, map[string][]float32{"b": {1, 0, 0, 0}})
}
