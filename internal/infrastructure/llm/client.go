package llm

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

	domainChat "github.com/homebase/backend/internal/domain/chat"
	"github.com/homebase/backend/internal/infrastructure/log"
	"github.com/homebase/backend/internal/infrastructure/settings"
)

// Client LLM Chat 客户端
// 通过 OpenAI 兼容网关生成快照摘要；网关地址与模型从设置存储实时读取
type Client struct {
	store      *settings.Store
	httpClient *http.Client
	logger     *slog.Logger
}

// ChatRequest Chat API 请求
type ChatRequest struct {
	Messages []Message `json:"messages"`
	Model    string    `json:"model,omitempty"`
}

// Message Chat 消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse Chat API 响应
type ChatResponse struct {
	ID      string `json:"id,omitempty"`
	Model   string `json:"model,omitempty"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// NewClient 创建 LLM 客户端
func NewClient(store *settings.Store) *Client {
	return &Client{
		store: store,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
		logger: log.NewModuleLogger("llm", "client"),
	}
}

// GenerateSnapshot 为一段旧消息生成结构化压缩结果
// 调用方通过 ctx 控制超时/取消；失败时不产生任何副作用
func (c *Client) GenerateSnapshot(ctx context.Context, window []*domainChat.Message) (*domainChat.SummaryResult, error) {
	cfg := c.store.Get()

	prompt := buildPrompt(cfg.Language, window)

	reqBody := ChatRequest{
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
		Model: cfg.ChatModel,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimSuffix(cfg.ChatBaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if cfg.ChatAPIKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", cfg.ChatAPIKey))
	}

	c.logger.Debug("Sending snapshot summarization request",
		"url", url,
		"model", cfg.ChatModel,
		"window_messages", len(window),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("LLM API request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := c.readResponseBody(resp)
		return nil, fmt.Errorf("LLM API returned status %d: %s", resp.StatusCode, body)
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode LLM response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("LLM API returned no choices")
	}

	content := chatResp.Choices[0].Message.Content
	result, err := parseSummaryResult(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse summary JSON: %w", err)
	}

	c.logger.Info("Snapshot summarization successful",
		"model", cfg.ChatModel,
		"tokens", chatResp.Usage.TotalTokens,
		"key_points", len(result.KeyPoints),
	)

	return result, nil
}

// TestConnection 测试 LLM API 连接
func (c *Client) TestConnection(ctx context.Context) error {
	cfg := c.store.Get()

	reqBody := ChatRequest{
		Messages: []Message{
			{Role: "user", Content: "This is a test. Please respond with 'OK' in JSON format: {\"status\": \"OK\"}"},
		},
		Model: cfg.ChatModel,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal test request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimSuffix(cfg.ChatBaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create test request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if cfg.ChatAPIKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", cfg.ChatAPIKey))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("LLM connection test failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := c.readResponseBody(resp)
		return fmt.Errorf("LLM connection test failed with status %d: %s", resp.StatusCode, body)
	}

	c.logger.Info("LLM connection test successful", "model", cfg.ChatModel)
	return nil
}

// buildPrompt 构建摘要 Prompt
func buildPrompt(language string, window []*domainChat.Message) string {
	transcript := renderWindow(window)
	if language == "en-US" {
		return buildEnglishPrompt(transcript)
	}
	return buildChinesePrompt(transcript)
}

// renderWindow 把待压缩窗口渲染为纯文本对话
func renderWindow(window []*domainChat.Message) string {
	var b strings.Builder
	for _, msg := range window {
		switch msg.Role {
		case domainChat.RoleUser:
			b.WriteString("User: ")
		case domainChat.RoleAssistant:
			b.WriteString("Assistant: ")
		}
		b.WriteString(strings.TrimSpace(msg.Content))
		b.WriteString("\n\n")
	}
	return b.String()
}

// buildChinesePrompt 构建中文 Prompt
func buildChinesePrompt(transcript string) string {
	return fmt.Sprintf(`你是一个对话历史压缩专家。下面是一段即将被归档的对话历史，请生成结构化摘要，
保留之后仍可能被引用的事实（人名、项目、日期、决定、待办事项）。

对话内容：
%s

请提取以下信息并以 JSON 格式返回：

1. summary: 这段对话的综述（自由文本，覆盖主要话题和结论）
2. key_points: 原子化的关键事实列表（数组，按对话先后排序）
3. entities: 提到的人物、项目、日期等命名实体（数组）

要求：
- 摘要必须明显短于原文
- 请返回纯 JSON 格式，不要包含其他文本

返回 JSON。`, transcript)
}

// buildEnglishPrompt 构建英文 Prompt
func buildEnglishPrompt(transcript string) string {
	return fmt.Sprintf(`You compress chat history that is about to be archived. Preserve facts that
may be referenced later: names, projects, dates, decisions, and open tasks.

Conversation:
%s

Extract the following and return as JSON:

1. summary: free-text synthesis of this period (topics and conclusions)
2. key_points: atomic key facts (array, in conversation order)
3. entities: named people/projects/dates mentioned (array)

Requirements:
- The summary must be clearly shorter than the source
- Return pure JSON only, no other text

Return JSON.`, transcript)
}

// parseSummaryResult 解析 LLM 返回的摘要 JSON
// 部分模型会包一层 markdown 代码块，先剥掉再解析
func parseSummaryResult(content string) (*domainChat.SummaryResult, error) {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	var result domainChat.SummaryResult
	if err := json.Unmarshal([]byte(trimmed), &result); err != nil {
		return nil, err
	}
	if strings.TrimSpace(result.Summary) == "" {
		return nil, fmt.Errorf("empty summary in response")
	}
	return &result, nil
}

// readResponseBody 读取响应体
func (c *Client) readResponseBody(resp *http.Response) (string, error) {
	if resp.Body == nil {
		return "", nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
