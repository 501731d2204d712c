package service

import (
	"sync"

	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/pipeline"
	"docqa/internal/session"
)

// State describes where a session is in its indexing lifecycle.
type State string

const (
	// StateEmpty means no index exists and questions cannot be answered.
	StateEmpty State = "empty"
	// StateIndexing means an index build is in flight.
	StateIndexing State = "indexing"
	// StateReady means a chain is live and questions can be answered.
	StateReady State = "ready"
)

// chain binds one built index to the pipelines that query it. The credential
// and model it was built with are baked in; changing session settings after a
// build only affects the next build.
type chain struct {
	buildID     string
	fileName    string
	model       string
	vectorStore interfaces.VectorStore
	retrieval   *pipeline.RetrievalPipeline
	qa          *pipeline.QAPipeline
	chunkIDs    []string
}

// Session is the per-chat unit of isolation: its own settings, its own state
// and its own chain. One chat's questions never touch another chat's index.
type Session struct {
	mu       sync.Mutex
	settings *session.Settings
	state    State
	chain    *chain
}

func newSession(defaultCredential string) *Session {
	return &Session{
		settings: session.NewSettings(defaultCredential),
		state:    StateEmpty,
	}
}
