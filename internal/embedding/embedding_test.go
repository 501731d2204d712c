package embedding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/rag/interfaces"
)

func huggingFaceServer(t *testing.T, status int, body string) *HuggingFaceModel {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	model, err := NewHuggingFaceModel("key", "some-model", srv.URL+"/")
	require.NoError(t, err)
	return model
}

func TestHuggingFaceEmbedBatch(t *testing.T) {
	model := huggingFaceServer(t, http.StatusOK, `[[0.25, 0.5], [1, 2]]`)

	vectors, err := model.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.25, 0.5}, vectors[0])
}

func TestHuggingFaceRejectedKeyIsAuthenticationError(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		model := huggingFaceServer(t, status, `{"error":"invalid token"}`)

		_, err := model.EmbedBatch(context.Background(), []string{"a"})
		require.ErrorIs(t, err, interfaces.ErrAuthentication, "status %d", status)
		assert.NotErrorIs(t, err, interfaces.ErrProvider, "status %d", status)
	}
}

func TestHuggingFaceOutageIsProviderError(t *testing.T) {
	model := huggingFaceServer(t, http.StatusServiceUnavailable, `{"error":"loading"}`)

	_, err := model.EmbedBatch(context.Background(), []string{"a"})
	require.ErrorIs(t, err, interfaces.ErrProvider)
	assert.NotErrorIs(t, err, interfaces.ErrAuthentication)
}

func TestHuggingFaceEmptyResponseIsProviderError(t *testing.T) {
	model := huggingFaceServer(t, http.StatusOK, `[]`)

	_, err := model.EmbedBatch(context.Background(), []string{"a"})
	require.ErrorIs(t, err, interfaces.ErrProvider)
}

func TestOllamaFailureIsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	t.Cleanup(srv.Close)

	model, err := NewOllamaModel("missing-model", srv.URL)
	require.NoError(t, err)

	_, err = model.Embed(context.Background(), "a")
	require.ErrorIs(t, err, interfaces.ErrProvider)

	_, err = model.EmbedBatch(context.Background(), []string{"a", "b"})
	require.ErrorIs(t, err, interfaces.ErrProvider)
}
