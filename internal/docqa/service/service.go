package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"docqa/internal/config"
	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/loaders"
	"docqa/internal/rag/pipeline"
	"docqa/internal/rag/schema"
	"docqa/internal/rag/splitters"
	"docqa/internal/session"
	"docqa/pkg/logger"
)

// User-facing replies of the orchestrator.
const (
	MsgKeySaved     = "API key saved. It will be used for the next document you upload."
	MsgIndexed      = "Document indexed. You can now ask questions about it."
	MsgUploadFirst  = "Please upload a document first."
	MsgCleared      = "Knowledge base cleared."
	MsgAlreadyEmpty = "Knowledge base is already empty."
)

// MenuText is the reply to the start operation.
const MenuText = `Hello! Upload a document and I will answer questions about its content.

Available operations:
- set the GigaChat API key
- choose the model: Lite, Max or Pro
- upload a document (PDF, CSV, DOCX, XLSX or XLS)
- ask a question about the uploaded document
- clear the knowledge base`

var (
	// ErrCredentialRequired is returned when an index build is requested
	// before any API key is available.
	ErrCredentialRequired = errors.New("no API key configured")
	// ErrIndexingInProgress is returned when an index build is requested
	// while another build for the same chat is still running.
	ErrIndexingInProgress = errors.New("indexing already in progress")
	// ErrEmptyDocument is returned when a document yields no indexable text.
	ErrEmptyDocument = errors.New("document contains no readable text")
)

// Answer is the result of one question: the synthesized reply and the
// provenance of the chunks it was grounded on.
type Answer struct {
	Reply   string   `json:"reply"`
	Sources []Source `json:"sources,omitempty"`
}

// Source describes where one retrieved chunk came from.
type Source struct {
	FileName string  `json:"file_name,omitempty"`
	Location string  `json:"location,omitempty"`
	Score    float64 `json:"score,omitempty"`
}

// Service is the pipeline orchestrator. It owns one Session per chat and
// wires the configured providers into index builds and question answering.
type Service struct {
	cfg               *config.AppConfig
	log               *logger.Logger
	providers         Providers
	defaultCredential string

	mu       sync.Mutex
	sessions map[string]*Session
}

// New creates the orchestrator. The environment default credential is read
// once here and seeds every new session.
func New(cfg *config.AppConfig, log *logger.Logger, providers Providers) *Service {
	return &Service{
		cfg:               cfg,
		log:               log,
		providers:         providers,
		defaultCredential: os.Getenv(session.CredentialEnv),
		sessions:          make(map[string]*Session),
	}
}

// session returns the chat's session, creating it on first contact.
func (s *Service) session(chatID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chatID]
	if !ok {
		sess = newSession(s.defaultCredential)
		s.sessions[chatID] = sess
	}
	return sess
}

// Start ensures the chat has a session and returns the option menu.
func (s *Service) Start(chatID string) string {
	s.session(chatID)
	return MenuText
}

// SetKey stores the chat's API key. It takes effect on the next index build.
func (s *Service) SetKey(chatID, key string) string {
	s.session(chatID).settings.SetCredential(key)
	return MsgKeySaved
}

// SetModel selects the chat model variant. An unrecognized variant returns
// session.ErrInvalidModelVariant and leaves the selection unchanged.
func (s *Service) SetModel(chatID, variant string) (string, error) {
	sess := s.session(chatID)
	if err := sess.settings.SetVariant(variant); err != nil {
		return "", err
	}
	return fmt.Sprintf("Model set to %s. It will be used for the next document you upload.", sess.settings.Variant()), nil
}

// Model reports the chat's active model variant.
func (s *Service) Model(chatID string) string {
	sess := s.session(chatID)
	return fmt.Sprintf("Current model: %s. Available variants: %s.",
		sess.settings.Variant(), strings.Join(session.Variants(), ", "))
}

// State reports where the chat's session is in its indexing lifecycle.
func (s *Service) State(chatID string) State {
	sess := s.session(chatID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state
}

// Status describes the chat's session: its lifecycle state and, when a chain
// is live, the document it was built from and the number of indexed chunks.
type Status struct {
	State    State  `json:"state"`
	FileName string `json:"file,omitempty"`
	Chunks   int    `json:"chunks,omitempty"`
}

// Status reports the chat's session state together with the live index, if any.
func (s *Service) Status(chatID string) Status {
	sess := s.session(chatID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	status := Status{State: sess.state}
	if sess.chain != nil {
		status.FileName = sess.chain.fileName
		status.Chunks = len(sess.chain.chunkIDs)
	}
	return status
}

// Index builds a fresh chain from the staged file at path. The session's
// credential and model are snapshotted before the build; on success the new
// chain atomically replaces any previous one, on failure the prior state and
// chain survive untouched.
func (s *Service) Index(ctx context.Context, chatID, path, originalName string) (string, error) {
	sess := s.session(chatID)
	log := s.log.WithChat(chatID)

	sess.mu.Lock()
	if sess.state == StateIndexing {
		sess.mu.Unlock()
		return "", ErrIndexingInProgress
	}
	credential := sess.settings.Credential()
	if credential == "" {
		sess.mu.Unlock()
		return "", ErrCredentialRequired
	}
	model := sess.settings.Model()
	prevState := sess.state
	sess.state = StateIndexing
	sess.mu.Unlock()

	// Roll the state back unless a clear intervened while building.
	restore := func() {
		sess.mu.Lock()
		if sess.state == StateIndexing {
			sess.state = prevState
		}
		sess.mu.Unlock()
	}

	loader, err := loaders.ForFile(path)
	if err != nil {
		restore()
		return "", err
	}

	embedder, err := s.providers.NewEmbedder(credential)
	if err != nil {
		restore()
		return "", fmt.Errorf("failed to create embedding client: %w", err)
	}
	llmClient, err := s.providers.NewLLM(credential, model)
	if err != nil {
		restore()
		return "", fmt.Errorf("failed to create chat model client: %w", err)
	}

	buildID := uuid.New().String()
	vectorStore, err := s.providers.NewVectorStore(buildID)
	if err != nil {
		restore()
		return "", fmt.Errorf("failed to create vector store: %w", err)
	}

	splitter := splitters.NewRecursiveSplitter(s.cfg.Splitter.ChunkSize, s.cfg.Splitter.ChunkOverlap)
	indexing := pipeline.NewIndexingPipeline(splitter, embedder, s.providers.DocStore, vectorStore, log)

	chunkIDs, err := indexing.Run(ctx, loader, path, buildID)
	if err != nil {
		s.discard(ctx, vectorStore, buildID, log)
		restore()
		return "", err
	}
	if len(chunkIDs) == 0 {
		s.discard(ctx, vectorStore, buildID, log)
		restore()
		return "", ErrEmptyDocument
	}

	newChain := &chain{
		buildID:     buildID,
		fileName:    originalName,
		model:       model,
		vectorStore: vectorStore,
		retrieval:   pipeline.NewRetrievalPipeline(embedder, vectorStore, s.providers.DocStore, buildID, s.cfg.Retriever.TopK, log),
		qa:          pipeline.NewQAPipeline(llmClient, log),
		chunkIDs:    chunkIDs,
	}

	sess.mu.Lock()
	old := sess.chain
	sess.chain = newChain
	sess.state = StateReady
	sess.mu.Unlock()

	if old != nil {
		s.discard(ctx, old.vectorStore, old.buildID, log)
	}

	log.WithPayload(map[string]interface{}{
		"file":   originalName,
		"model":  model,
		"chunks": len(chunkIDs),
	}).Info("Index build complete")
	return MsgIndexed, nil
}

// Ask answers a question from the chat's live chain. Without a ready chain it
// returns the fixed upload-first reply instead of an error.
func (s *Service) Ask(ctx context.Context, chatID, question string) (Answer, error) {
	sess := s.session(chatID)

	sess.mu.Lock()
	live := sess.chain
	ready := sess.state == StateReady && live != nil
	sess.mu.Unlock()
	if !ready {
		return Answer{Reply: MsgUploadFirst}, nil
	}

	docs, err := live.retrieval.Run(ctx, question)
	if err != nil {
		return Answer{}, err
	}
	if len(docs) == 0 {
		return Answer{Reply: pipeline.NotFoundReply}, nil
	}

	reply, err := live.qa.Run(ctx, question, docs)
	if err != nil {
		return Answer{}, err
	}
	return Answer{Reply: reply, Sources: sourcesFrom(docs)}, nil
}

// Clear drops the chat's chain, its stored chunks and its staged uploads.
func (s *Service) Clear(ctx context.Context, chatID string) string {
	sess := s.session(chatID)
	log := s.log.WithChat(chatID)

	sess.mu.Lock()
	old := sess.chain
	sess.chain = nil
	sess.state = StateEmpty
	sess.mu.Unlock()

	if err := os.RemoveAll(filepath.Join(s.cfg.Uploads.Dir, chatID)); err != nil {
		log.Warn(fmt.Sprintf("Failed to remove staged uploads: %v", err))
	}

	if old == nil {
		return MsgAlreadyEmpty
	}
	s.discard(ctx, old.vectorStore, old.buildID, log)
	return MsgCleared
}

// discard drops one build from both stores. Failures are logged, not
// returned: the chain reference is already gone and the build ID is never
// reused, so leftovers are unreachable.
func (s *Service) discard(ctx context.Context, vectorStore interfaces.VectorStore, buildID string, log *logger.Logger) {
	if err := vectorStore.Reset(ctx); err != nil {
		log.Warn(fmt.Sprintf("Failed to reset vector store for build %s: %v", buildID, err))
	}
	if err := s.providers.DocStore.Purge(ctx, buildID); err != nil {
		log.Warn(fmt.Sprintf("Failed to purge doc store for build %s: %v", buildID, err))
	}
}

// sourcesFrom renders chunk provenance for the response.
func sourcesFrom(docs []*schema.Document) []Source {
	sources := make([]Source, 0, len(docs))
	for _, doc := range docs {
		src := Source{}
		if name, ok := doc.Metadata[schema.MetadataKeyFileName].(string); ok {
			src.FileName = name
		}
		if page, ok := doc.Metadata[schema.MetadataKeyPageLabel].(string); ok {
			src.Location = "page " + page
		} else if row, ok := doc.Metadata[schema.MetadataKeyRowIndex]; ok {
			src.Location = fmt.Sprintf("row %v", row)
		} else if sheet, ok := doc.Metadata[schema.MetadataKeySheetName].(string); ok {
			src.Location = "sheet " + sheet
		}
		switch score := doc.Metadata[schema.MetadataKeyScore].(type) {
		case float32:
			src.Score = float64(score)
		case float64:
			src.Score = score
		}
		sources = append(sources, src)
	}
	return sources
}
