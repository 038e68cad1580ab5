package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homebase/backend/internal/infrastructure/config"
	"github.com/homebase/backend/internal/infrastructure/settings"
)

func TestBuildEmbeddingURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"完整路径", "https://api.openai.com/v1/embeddings", "https://api.openai.com/v1/embeddings"},
		{"v1 结尾", "https://api.openai.com/v1", "https://api.openai.com/v1/embeddings"},
		{"v1 斜杠结尾", "https://api.openai.com/v1/", "https://api.openai.com/v1/embeddings"},
		{"裸域名", "https://api.example.com", "https://api.example.com/v1/embeddings"},
		{"裸域名斜杠", "https://api.example.com/", "https://api.example.com/v1/embeddings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildEmbeddingURL(tt.input))
		})
	}
}

func setupEmbeddingClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "embedding-test-*")
	require.NoError(t, err)
	t.Cleanup(func() {
		os.RemoveAll(tmpDir)
		os.Unsetenv(config.EnvDataDir)
		config.ResetDataDir()
	})

	os.Setenv(config.EnvDataDir, tmpDir)
	config.ResetDataDir()

	store, err := settings.NewStore()
	require.NoError(t, err)

	cfg := store.Get()
	cfg.EmbeddingBaseURL = baseURL
	cfg.EmbeddingModel = "text-embedding-3-small"
	require.NoError(t, store.Update(cfg))

	return NewClient(store)
}

func TestEmbedTexts_OrdersByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)

		var req EmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Input, 2)

		// 故意乱序返回
		resp := map[string]any{
			"model": req.Model,
			"data": []map[string]any{
				{"index": 1, "embedding": []float32{0.2, 0.2}},
				{"index": 0, "embedding": []float32{0.1, 0.1}},
			},
			"usage": map[string]int{"prompt_tokens": 4, "total_tokens": 4},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := setupEmbeddingClient(t, server.URL)

	vectors, err := client.EmbedTexts(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.1}, vectors[0])
	assert.Equal(t, []float32{0.2, 0.2}, vectors[1])
}

func TestEmbedTexts_NotConfigured(t *testing.T) {
	client := setupEmbeddingClient(t, "")

	_, err := client.EmbedTexts(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
	assert.False(t, client.Configured())
}

func TestEmbedTexts_EmptyInput(t *testing.T) {
	client := setupEmbeddingClient(t, "http://localhost:1")

	_, err := client.EmbedTexts(context.Background(), nil)
	require.Error(t, err)
}
