package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"docqa/internal/docqa/service"
	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/loaders"
	"docqa/internal/session"
	"docqa/pkg/logger"
)

// Orchestrator is the narrow surface the handlers need from the service.
type Orchestrator interface {
	Start(chatID string) string
	SetKey(chatID, key string) string
	SetModel(chatID, variant string) (string, error)
	Model(chatID string) string
	Status(chatID string) service.Status
	Index(ctx context.Context, chatID, path, originalName string) (string, error)
	Ask(ctx context.Context, chatID, question string) (service.Answer, error)
	Clear(ctx context.Context, chatID string) string
}

// Handler wraps the HTTP endpoint handlers around the orchestrator.
type Handler struct {
	orchestrator Orchestrator
	uploadsDir   string
	log          *logger.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(orchestrator Orchestrator, uploadsDir string, log *logger.Logger) *Handler {
	return &Handler{orchestrator: orchestrator, uploadsDir: uploadsDir, log: log}
}

// expectedMIMEs maps each supported extension to the content types an upload
// with that extension may legitimately carry.
var expectedMIMEs = map[string][]string{
	".pdf":  {"application/pdf"},
	".csv":  {"text/csv", "text/plain"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
	".xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "application/zip"},
	".xls":  {"application/vnd.ms-excel", "application/x-ole-storage"},
}

// Health reports service liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Start returns the option menu for a chat.
func (h *Handler) Start(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"reply": h.orchestrator.Start(c.Param("chat_id"))})
}

// SetKeyRequest is the JSON body of the key endpoint.
type SetKeyRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

// SetKey stores the chat's GigaChat API key.
func (h *Handler) SetKey(c *gin.Context) {
	var req SetKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"reply": "Send the key as JSON: {\"api_key\": \"<your key>\"}.",
			"error": "bad_request",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": h.orchestrator.SetKey(c.Param("chat_id"), req.APIKey)})
}

// SetModelRequest is the JSON body of the model endpoint.
type SetModelRequest struct {
	Variant string `json:"variant" binding:"required"`
}

// SetModel selects the chat's model variant.
func (h *Handler) SetModel(c *gin.Context) {
	usage := fmt.Sprintf("Choose one of: %s.", strings.Join(session.Variants(), ", "))

	var req SetModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"reply": usage, "error": "bad_request"})
		return
	}

	reply, err := h.orchestrator.SetModel(c.Param("chat_id"), req.Variant)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"reply": fmt.Sprintf("Unknown model %q. %s", req.Variant, usage),
			"error": "invalid_model_variant",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

// GetModel reports the chat's active model variant.
func (h *Handler) GetModel(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"reply": h.orchestrator.Model(c.Param("chat_id"))})
}

// GetStatus reports the state of the chat's index.
func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.orchestrator.Status(c.Param("chat_id")))
}

// UploadDocument stages the uploaded file and builds an index from it.
func (h *Handler) UploadDocument(c *gin.Context) {
	chatID := c.Param("chat_id")

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"reply": "Attach the document as multipart field \"file\".",
			"error": "bad_request",
		})
		return
	}

	fileName := filepath.Base(file.Filename)
	ext := strings.ToLower(filepath.Ext(fileName))
	if _, supported := expectedMIMEs[ext]; !supported {
		h.replyUnsupportedFormat(c)
		return
	}

	path := filepath.Join(h.uploadsDir, chatID, fileName)
	if err := c.SaveUploadedFile(file, path); err != nil {
		h.log.WithChat(chatID).Error(fmt.Sprintf("Failed to stage upload: %v", err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"reply": "Could not store the uploaded file. Please try again.",
			"error": "internal_error",
		})
		return
	}

	if !h.contentMatchesExtension(path, ext) {
		_ = os.Remove(path)
		c.JSON(http.StatusBadRequest, gin.H{
			"reply": "The file content does not match its extension.",
			"error": "unsupported_format",
		})
		return
	}

	reply, err := h.orchestrator.Index(c.Request.Context(), chatID, path, fileName)
	if err != nil {
		h.replyIndexError(c, chatID, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

// contentMatchesExtension sniffs the staged file and checks the detected type
// against the upload's extension.
func (h *Handler) contentMatchesExtension(path, ext string) bool {
	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return false
	}
	for _, expected := range expectedMIMEs[ext] {
		if detected.Is(expected) {
			return true
		}
	}
	return false
}

// AskQuestionRequest is the JSON body of the questions endpoint.
type AskQuestionRequest struct {
	Question string `json:"question" binding:"required"`
}

// AskQuestion answers a question from the chat's indexed document.
func (h *Handler) AskQuestion(c *gin.Context) {
	var req AskQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"reply": "Send the question as JSON: {\"question\": \"...\"}.",
			"error": "bad_request",
		})
		return
	}

	answer, err := h.orchestrator.Ask(c.Request.Context(), c.Param("chat_id"), req.Question)
	if err != nil {
		h.replyQueryError(c, c.Param("chat_id"), err)
		return
	}

	resp := gin.H{"reply": answer.Reply}
	if len(answer.Sources) > 0 {
		resp["sources"] = answer.Sources
	}
	c.JSON(http.StatusOK, resp)
}

// ClearDocuments drops the chat's knowledge base.
func (h *Handler) ClearDocuments(c *gin.Context) {
	reply := h.orchestrator.Clear(c.Request.Context(), c.Param("chat_id"))
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

func (h *Handler) replyUnsupportedFormat(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{
		"reply": fmt.Sprintf("Unsupported file format. Supported: %s.",
			strings.Join(loaders.SupportedExtensions(), ", ")),
		"error": "unsupported_format",
	})
}

// replyIndexError converts an index-build failure into a user-facing reply.
func (h *Handler) replyIndexError(c *gin.Context, chatID string, err error) {
	h.log.WithChat(chatID).Error(fmt.Sprintf("Index build failed: %v", err))

	switch {
	case errors.Is(err, loaders.ErrUnsupportedFormat):
		h.replyUnsupportedFormat(c)
	case errors.Is(err, service.ErrCredentialRequired):
		c.JSON(http.StatusUnauthorized, gin.H{
			"reply": "Set the GigaChat API key first.",
			"error": "authentication_error",
		})
	case errors.Is(err, interfaces.ErrAuthentication):
		c.JSON(http.StatusUnauthorized, gin.H{
			"reply": "The provider rejected the API key. Set a valid key and try again.",
			"error": "authentication_error",
		})
	case errors.Is(err, service.ErrIndexingInProgress):
		c.JSON(http.StatusConflict, gin.H{
			"reply": "A document is still being indexed. Please wait.",
			"error": "indexing_in_progress",
		})
	case errors.Is(err, service.ErrEmptyDocument):
		c.JSON(http.StatusBadRequest, gin.H{
			"reply": "The document contains no readable text.",
			"error": "empty_document",
		})
	case errors.Is(err, interfaces.ErrProvider):
		c.JSON(http.StatusBadGateway, gin.H{
			"reply": "The model provider is unavailable. Please try the upload again.",
			"error": "provider_error",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"reply": "Indexing failed. Please try again.",
			"error": "internal_error",
		})
	}
}

// replyQueryError converts a question failure into a user-facing reply.
func (h *Handler) replyQueryError(c *gin.Context, chatID string, err error) {
	h.log.WithChat(chatID).Error(fmt.Sprintf("Question failed: %v", err))

	switch {
	case errors.Is(err, interfaces.ErrAuthentication):
		c.JSON(http.StatusUnauthorized, gin.H{
			"reply": "The provider rejected the API key. Set a valid key and try again.",
			"error": "authentication_error",
		})
	case errors.Is(err, interfaces.ErrSynthesis):
		c.JSON(http.StatusBadGateway, gin.H{
			"reply": "The model could not produce an answer. Please try again.",
			"error": "synthesis_error",
		})
	case errors.Is(err, interfaces.ErrProvider):
		c.JSON(http.StatusBadGateway, gin.H{
			"reply": "The model provider is unavailable. Please try again.",
			"error": "provider_error",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"reply": "Something went wrong while answering. Please try again.",
			"error": "internal_error",
		})
	}
}
