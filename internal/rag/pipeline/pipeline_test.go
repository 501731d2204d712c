package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/loaders"
	"docqa/internal/rag/schema"
	"docqa/internal/rag/splitters"
	"docqa/internal/rag/storages/docstore"
	"docqa/internal/rag/storages/vectorstore"
	"docqa/pkg/logger"
)

// stubEmbedder produces deterministic vectors from byte histograms, so equal
// texts embed identically and similar texts land close together.
type stubEmbedder struct {
	err error
}

func (e *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, 16)
		for _, b := range []byte(strings.ToLower(text)) {
			v[int(b)%16]++
		}
		vectors[i] = v
	}
	return vectors, nil
}

// stubLLM records the prompts it receives and echoes a canned answer.
type stubLLM struct {
	system string
	user   string
	answer string
	err    error
}

func (l *stubLLM) Generate(ctx context.Context, system, user string) (string, error) {
	l.system = system
	l.user = user
	if l.err != nil {
		return "", l.err
	}
	return l.answer, nil
}

func testLogger() *logger.Logger {
	logger.Init(logrus.ErrorLevel)
	return logger.New("test", "")
}

func writeCsv(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notes.csv")
	if err := os.WriteFile(path, []byte(rows), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestIndexingStoresChunksInBothStores(t *testing.T) {
	ctx := context.Background()
	docStore := docstore.NewInMemoryDocStore()
	vectorStore := vectorstore.NewMemoryStore()
	splitter := splitters.NewRecursiveSplitter(1000, 200)
	indexing := NewIndexingPipeline(splitter, &stubEmbedder{}, docStore, vectorStore, testLogger())

	path := writeCsv(t, "topic,note\ncompiler,the parser rejects cycles\n")
	loader, err := loaders.ForFile(path)
	if err != nil {
		t.Fatalf("loader: %v", err)
	}

	ids, err := indexing.Run(ctx, loader, path, "build-1")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(ids) == 0 {
		t.Fatal("expected chunk IDs")
	}

	stored, err := docStore.Get(ctx, "build-1", ids)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored) != len(ids) {
		t.Fatalf("doc store has %d of %d chunks", len(stored), len(ids))
	}

	hits, err := vectorStore.Query(ctx, mustEmbed(t, "compiler parser"), len(ids))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(hits) != len(ids) {
		t.Fatalf("vector store has %d of %d chunks", len(hits), len(ids))
	}
}

func TestIndexingEmptyDocumentYieldsNoChunks(t *testing.T) {
	docStore := docstore.NewInMemoryDocStore()
	vectorStore := vectorstore.NewMemoryStore()
	indexing := NewIndexingPipeline(splitters.NewRecursiveSplitter(1000, 200), &stubEmbedder{}, docStore, vectorStore, testLogger())

	path := writeCsv(t, "")
	loader, err := loaders.ForFile(path)
	if err != nil {
		t.Fatalf("loader: %v", err)
	}

	ids, err := indexing.Run(context.Background(), loader, path, "build-1")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no chunk IDs, got %d", len(ids))
	}
}

func TestIndexingPropagatesEmbedderFailure(t *testing.T) {
	wantErr := errors.New("quota exhausted")
	indexing := NewIndexingPipeline(
		splitters.NewRecursiveSplitter(1000, 200),
		&stubEmbedder{err: wantErr},
		docstore.NewInMemoryDocStore(),
		vectorstore.NewMemoryStore(),
		testLogger(),
	)

	path := writeCsv(t, "a,b\nc,d\n")
	loader, _ := loaders.ForFile(path)

	if _, err := indexing.Run(context.Background(), loader, path, "build-1"); !errors.Is(err, wantErr) {
		t.Fatalf("expected embedder error, got %v", err)
	}
}

func TestRetrievalEnrichesAndPreservesOrder(t *testing.T) {
	ctx := context.Background()
	docStore := docstore.NewInMemoryDocStore()
	vectorStore := vectorstore.NewMemoryStore()
	embedder := &stubEmbedder{}
	indexing := NewIndexingPipeline(splitters.NewRecursiveSplitter(1000, 200), embedder, docStore, vectorStore, testLogger())

	path := writeCsv(t, "the quick brown fox\nzzzz qqqq jjjj\n")
	loader, _ := loaders.ForFile(path)
	if _, err := indexing.Run(ctx, loader, path, "build-1"); err != nil {
		t.Fatalf("index: %v", err)
	}

	retrieval := NewRetrievalPipeline(embedder, vectorStore, docStore, "build-1", 2, testLogger())
	docs, err := retrieval.Run(ctx, "the quick brown fox")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(docs) == 0 {
		t.Fatal("expected retrieved documents")
	}
	if !strings.Contains(docs[0].Text, "quick brown fox") {
		t.Errorf("top document text = %q", docs[0].Text)
	}
	if _, ok := docs[0].Metadata[schema.MetadataKeyScore]; !ok {
		t.Error("retrieved document is missing its score")
	}
	if docs[0].Metadata[schema.MetadataKeyFileName] != "notes.csv" {
		t.Errorf("retrieved document lost stored metadata: %v", docs[0].Metadata)
	}
}

func TestQAPromptContainsContextAndQuestion(t *testing.T) {
	llm := &stubLLM{answer: "The fox is brown."}
	qa := NewQAPipeline(llm, testLogger())

	answer, err := qa.Run(context.Background(), "What color is the fox?", []*schema.Document{
		{ID: "c1", Text: "The fox is brown."},
		{ID: "c2", Text: "The dog is lazy."},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if answer != "The fox is brown." {
		t.Errorf("answer = %q", answer)
	}
	if !strings.Contains(llm.system, NotFoundReply) {
		t.Error("system instruction does not name the sentinel reply")
	}
	if !strings.Contains(llm.user, "Context 1:\nThe fox is brown.") {
		t.Errorf("prompt missing first context block: %q", llm.user)
	}
	if !strings.Contains(llm.user, "Context 2:\nThe dog is lazy.") {
		t.Errorf("prompt missing second context block: %q", llm.user)
	}
	if !strings.Contains(llm.user, "Question: What color is the fox?") {
		t.Errorf("prompt missing question: %q", llm.user)
	}
}

func TestQAErrorClassification(t *testing.T) {
	qa := NewQAPipeline(&stubLLM{err: errors.New("boom")}, testLogger())
	_, err := qa.Run(context.Background(), "q", []*schema.Document{{ID: "c", Text: "t"}})
	if !errors.Is(err, interfaces.ErrSynthesis) {
		t.Fatalf("expected synthesis error, got %v", err)
	}

	qa = NewQAPipeline(&stubLLM{err: interfaces.ErrAuthentication}, testLogger())
	_, err = qa.Run(context.Background(), "q", []*schema.Document{{ID: "c", Text: "t"}})
	if !errors.Is(err, interfaces.ErrAuthentication) {
		t.Fatalf("expected authentication error to pass through, got %v", err)
	}
	if errors.Is(err, interfaces.ErrSynthesis) {
		t.Fatal("authentication error must not be wrapped as synthesis")
	}
}

func mustEmbed(t *testing.T, text string) []float32 {
	t.Helper()
	vectors, err := (&stubEmbedder{}).Embed(context.Background(), []string{text})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	return vectors[0]
}
