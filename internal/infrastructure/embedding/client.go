package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/homebase/backend/internal/infrastructure/log"
	"github.com/homebase/backend/internal/infrastructure/settings"
)

// Client Embedding API 客户端
// 网关地址与模型从设置存储实时读取，热更新后无需重建客户端
type Client struct {
	store      *settings.Store
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient 创建 Embedding 客户端
func NewClient(store *settings.Store) *Client {
	return &Client{
		store: store,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log.NewModuleLogger("embedding", "client"),
	}
}

// buildEmbeddingURL 构建 Embedding API URL
// 支持多种输入格式，智能拼接 /v1/embeddings 路径
func buildEmbeddingURL(baseURL string) string {
	baseURL = strings.TrimSuffix(baseURL, "/")

	if strings.Contains(baseURL, "/v1/embeddings") {
		return baseURL
	}

	if strings.HasSuffix(baseURL, "/v1") {
		return baseURL + "/embeddings"
	}

	return fmt.Sprintf("%s/v1/embeddings", baseURL)
}

// EmbeddingRequest Embedding 请求
type EmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbeddingResponse Embedding 响应
type EmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// Configured embedding 网关是否已配置
func (c *Client) Configured() bool {
	cfg := c.store.Get()
	return cfg.EmbeddingBaseURL != "" && cfg.EmbeddingModel != ""
}

// EmbedTexts 批量向量化文本
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("texts cannot be empty")
	}

	cfg := c.store.Get()
	if cfg.EmbeddingBaseURL == "" || cfg.EmbeddingModel == "" {
		return nil, fmt.Errorf("embedding gateway not configured")
	}

	reqBody := EmbeddingRequest{
		Model: cfg.EmbeddingModel,
		Input: texts,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := buildEmbeddingURL(cfg.EmbeddingBaseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if cfg.EmbeddingAPIKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", cfg.EmbeddingAPIKey))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding API request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding API returned status %d: %s", resp.StatusCode, string(body))
	}

	var embResp EmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}

	if len(embResp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding API returned %d vectors for %d texts", len(embResp.Data), len(texts))
	}

	// 按 index 归位，部分网关不保证顺序
	vectors := make([][]float32, len(texts))
	for _, item := range embResp.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, fmt.Errorf("embedding API returned out-of-range index %d", item.Index)
		}
		vectors[item.Index] = item.Embedding
	}

	c.logger.Debug("Embedded texts",
		"count", len(texts),
		"model", cfg.EmbeddingModel,
		"tokens", embResp.Usage.TotalTokens,
	)

	return vectors, nil
}

// EmbedText 向量化单条文本
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
