package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/config"
	"docqa/internal/docqa/service"
	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/storages/docstore"
	"docqa/internal/rag/storages/vectorstore"
	"docqa/internal/session"
	"docqa/pkg/logger"
)

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
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

type fixedLLM struct{}

func (fixedLLM) Generate(ctx context.Context, system, user string) (string, error) {
	return "The answer derived from the context.", nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	t.Setenv(session.CredentialEnv, "test-key")
	gin.SetMode(gin.TestMode)
	logger.Init(logrus.ErrorLevel)

	cfg := &config.AppConfig{}
	cfg.Uploads.Dir = filepath.Join(t.TempDir(), "uploads")
	cfg.Splitter.ChunkSize = 1000
	cfg.Splitter.ChunkOverlap = 200
	cfg.Retriever.TopK = 4

	providers := service.Providers{
		NewEmbedder: func(credential string) (interfaces.EmbeddingModel, error) {
			return fixedEmbedder{}, nil
		},
		NewLLM: func(credential, model string) (interfaces.LLM, error) {
			return fixedLLM{}, nil
		},
		NewVectorStore: func(buildID string) (interfaces.VectorStore, error) {
			return vectorstore.NewMemoryStore(), nil
		},
		DocStore: docstore.NewInMemoryDocStore(),
	}

	log := logger.New("test", "")
	orchestrator := service.New(cfg, log, providers)
	return SetupRouter(NewHandler(orchestrator, cfg.Uploads.Dir, log))
}

func doJSON(t *testing.T, r *gin.Engine, method, url, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func uploadFile(t *testing.T, r *gin.Engine, url, fileName, content string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t)
	w, resp := doJSON(t, r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", resp["status"])
}

func TestStartReturnsMenu(t *testing.T) {
	r := newTestRouter(t)
	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/chat/42/start", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, resp["reply"], "Upload a document")
}

func TestSetKeyValidation(t *testing.T) {
	r := newTestRouter(t)

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/chat/42/key", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "bad_request", resp["error"])

	w, resp = doJSON(t, r, http.MethodPost, "/api/v1/chat/42/key", `{"api_key":"secret"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, resp["reply"], "API key saved")
}

func TestSetModelVariants(t *testing.T) {
	r := newTestRouter(t)

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/chat/42/model", `{"variant":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_model_variant", resp["error"])

	w, resp = doJSON(t, r, http.MethodPost, "/api/v1/chat/42/model", `{"variant":"max"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, resp["reply"], "Max")

	w, resp = doJSON(t, r, http.MethodGet, "/api/v1/chat/42/model", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, resp["reply"], "Max")
}

func TestStatusEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/chat/42/status", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "empty", resp["state"])
	assert.NotContains(t, resp, "file")

	w, resp = uploadFile(t, r, "/api/v1/chat/42/documents", "notes.csv", "topic,note\nrelease,june\n")
	require.Equal(t, http.StatusOK, w.Code, "upload failed: %v", resp)

	w, resp = doJSON(t, r, http.MethodGet, "/api/v1/chat/42/status", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", resp["state"])
	assert.Equal(t, "notes.csv", resp["file"])
	assert.NotZero(t, resp["chunks"])
}

func TestQuestionBeforeUpload(t *testing.T) {
	r := newTestRouter(t)
	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/chat/42/questions", `{"question":"anything?"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.MsgUploadFirst, resp["reply"])
}

func TestUploadUnsupportedExtension(t *testing.T) {
	r := newTestRouter(t)
	w, resp := uploadFile(t, r, "/api/v1/chat/42/documents", "notes.txt", "plain text")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unsupported_format", resp["error"])
}

func TestUploadMismatchedContent(t *testing.T) {
	r := newTestRouter(t)
	// A PDF extension carrying plain text must be rejected by sniffing.
	w, resp := uploadFile(t, r, "/api/v1/chat/42/documents", "fake.pdf", "just some text")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unsupported_format", resp["error"])
}

func TestUploadAskClearRoundTrip(t *testing.T) {
	r := newTestRouter(t)

	w, resp := uploadFile(t, r, "/api/v1/chat/42/documents", "notes.csv",
		"topic,note\nrelease,the release ships in june\n")
	require.Equal(t, http.StatusOK, w.Code, "upload failed: %v", resp)
	assert.Equal(t, service.MsgIndexed, resp["reply"])

	w, resp = doJSON(t, r, http.MethodPost, "/api/v1/chat/42/questions", `{"question":"when does the release ship"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "The answer derived from the context.", resp["reply"])
	assert.NotEmpty(t, resp["sources"])

	w, resp = doJSON(t, r, http.MethodDelete, "/api/v1/chat/42/documents", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.MsgCleared, resp["reply"])

	w, resp = doJSON(t, r, http.MethodDelete, "/api/v1/chat/42/documents", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.MsgAlreadyEmpty, resp["reply"])
}

func TestSessionsIsolatedAcrossChats(t *testing.T) {
	r := newTestRouter(t)

	w, resp := uploadFile(t, r, "/api/v1/chat/1/documents", "notes.csv", "only,for chat one\n")
	require.Equal(t, http.StatusOK, w.Code, "upload failed: %v", resp)

	w, resp = doJSON(t, r, http.MethodPost, "/api/v1/chat/2/questions", `{"question":"anything?"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.MsgUploadFirst, resp["reply"])
}
