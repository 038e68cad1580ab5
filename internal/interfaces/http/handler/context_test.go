package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	appChat "github.com/homebase/backend/internal/application/chat"
	domainChat "github.com/homebase/backend/internal/domain/chat"
	"github.com/homebase/backend/internal/infrastructure/config"
	"github.com/homebase/backend/internal/infrastructure/storage"
)

type fieldEstimator struct{}

func (fieldEstimator) CountTokens(text string) int {
	return len(strings.Fields(text))
}

type fixedGenerator struct {
	err error
}

func (g *fixedGenerator) GenerateSnapshot(_ context.Context, _ []*domainChat.Message) (*domainChat.SummaryResult, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &domainChat.SummaryResult{
		Summary:   "short summary",
		KeyPoints: []string{"fact"},
	}, nil
}

type handlerEnv struct {
	contextHandler *ContextHandler
	threadHandler  *ThreadHandler
	svc            *appChat.ContextService
	generator      *fixedGenerator
}

func setupHandlers(t *testing.T) *handlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tmpDir, err := os.MkdirTemp("", "homebase_handler_test_*")
	require.NoError(t, err)

	db, err := sql.Open("sqlite", filepath.Join(tmpDir, "test.db"))
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA journal_mode=WAL;")
	require.NoError(t, err)
	require.NoError(t, storage.InitSchema(db))

	t.Cleanup(func() {
		db.Close()
		os.RemoveAll(tmpDir)
	})

	cfg := &config.ContextConfig{
		BudgetTokens:            1000,
		ThresholdPercent:        70,
		MaxActiveMessages:       200,
		MinEligibleMessages:     4,
		MinActiveKeep:           4,
		SummarizeTimeoutSeconds: 5,
	}

	threads := storage.NewThreadRepository(db)
	messages := storage.NewMessageRepository(db)
	snapshots := storage.NewSnapshotRepository(db)
	generator := &fixedGenerator{}

	svc := appChat.NewContextService(cfg, threads, messages, snapshots, fieldEstimator{}, generator, nil, nil)
	assembler := appChat.NewAssembler(messages, snapshots)

	return &handlerEnv{
		contextHandler: NewContextHandler(svc),
		threadHandler:  NewThreadHandler(svc, assembler, nil),
		svc:            svc,
		generator:      generator,
	}
}

func newRouter(env *handlerEnv) *gin.Engine {
	router := gin.New()
	router.GET("/api/v1/chat/context", env.contextHandler.GetContext)
	router.POST("/api/v1/chat/context", env.contextHandler.PostContext)
	router.POST("/api/v1/chat/messages", env.threadHandler.AppendMessage)
	router.GET("/api/v1/chat/prompt", env.threadHandler.GetPrompt)
	router.GET("/api/v1/chat/snapshots", env.threadHandler.ListSnapshots)
	router.POST("/api/v1/chat/threads/:threadId/reset", env.threadHandler.ResetThread)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, payload any) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reqBody *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "响应应该是有效的 JSON")
	return w, body
}

// fillThread 写入 10 条各 80 token 的消息
func fillThread(t *testing.T, router *gin.Engine, threadID string) {
	t.Helper()
	for i := 0; i < 10; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		words := make([]string, 80)
		for j := range words {
			words[j] = fmt.Sprintf("m%d_%d", i, j)
		}
		w, _ := doJSON(t, router, http.MethodPost, "/api/v1/chat/messages", map[string]string{
			"threadId": threadID,
			"role":     role,
			"content":  strings.Join(words, " "),
		})
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestAppendMessage_Handler(t *testing.T) {
	env := setupHandlers(t)
	router := newRouter(env)

	t.Run("正常写入", func(t *testing.T) {
		w, body := doJSON(t, router, http.MethodPost, "/api/v1/chat/messages", map[string]string{
			"threadId": "t1",
			"role":     "user",
			"content":  "hello world",
		})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 0, int(body["code"].(float64)))

		data := body["data"].(map[string]interface{})
		msg := data["message"].(map[string]interface{})
		assert.Equal(t, float64(2), msg["estimated_tokens"])

		state := data["state"].(map[string]interface{})
		assert.Equal(t, float64(2), state["total_tokens"])
		assert.Equal(t, float64(1), state["active_message_count"])
	})

	t.Run("缺少字段", func(t *testing.T) {
		w, body := doJSON(t, router, http.MethodPost, "/api/v1/chat/messages", map[string]string{
			"threadId": "t1",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 800001, int(body["code"].(float64)))
	})

	t.Run("非法角色", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodPost, "/api/v1/chat/messages", map[string]string{
			"threadId": "t1",
			"role":     "system",
			"content":  "x",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetContext_Handler(t *testing.T) {
	env := setupHandlers(t)
	router := newRouter(env)

	t.Run("缺少 threadId", func(t *testing.T) {
		w, body := doJSON(t, router, http.MethodGet, "/api/v1/chat/context", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 800001, int(body["code"].(float64)))
	})

	t.Run("空会话", func(t *testing.T) {
		w, body := doJSON(t, router, http.MethodGet, "/api/v1/chat/context?threadId=t1", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		// 状态报告是扁平对象，state 不再嵌套
		data := body["data"].(map[string]interface{})
		assert.Equal(t, float64(0), data["total_tokens"])
		assert.Equal(t, false, data["needs_summarization"])
		assert.NotContains(t, data, "state")
	})

	t.Run("超过阈值", func(t *testing.T) {
		fillThread(t, router, "t2")

		w, body := doJSON(t, router, http.MethodGet, "/api/v1/chat/context?threadId=t2", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		data := body["data"].(map[string]interface{})
		assert.Equal(t, float64(800), data["total_tokens"])
		assert.InDelta(t, 80.0, data["context_utilization"].(float64), 0.001)
		assert.Equal(t, true, data["needs_summarization"])
	})
}

func TestPostContext_Handler(t *testing.T) {
	env := setupHandlers(t)
	router := newRouter(env)

	t.Run("低于阈值时跳过", func(t *testing.T) {
		for i := 0; i < 4; i++ {
			doJSON(t, router, http.MethodPost, "/api/v1/chat/messages", map[string]string{
				"threadId": "t1", "role": "user", "content": "short message",
			})
		}

		w, body := doJSON(t, router, http.MethodPost, "/api/v1/chat/context", map[string]string{
			"threadId": "t1",
		})
		assert.Equal(t, http.StatusOK, w.Code)

		data := body["data"].(map[string]interface{})
		assert.Equal(t, true, data["skipped"])
		assert.Equal(t, domainChat.SkipReasonWithinBudget, data["reason"])
	})

	t.Run("触发压缩", func(t *testing.T) {
		fillThread(t, router, "t2")

		w, body := doJSON(t, router, http.MethodPost, "/api/v1/chat/context", map[string]string{
			"threadId": "t2",
			"action":   "summarize",
		})
		assert.Equal(t, http.StatusOK, w.Code)

		data := body["data"].(map[string]interface{})
		assert.Equal(t, false, data["skipped"])
		snapshot := data["snapshot"].(map[string]interface{})
		assert.Equal(t, float64(5), snapshot["message_count"])
	})

	t.Run("status action 返回状态报告", func(t *testing.T) {
		w, body := doJSON(t, router, http.MethodPost, "/api/v1/chat/context", map[string]string{
			"threadId": "t2",
			"action":   "status",
		})
		assert.Equal(t, http.StatusOK, w.Code)

		data := body["data"].(map[string]interface{})
		assert.Equal(t, float64(1), data["snapshot_count"])
		assert.Equal(t, false, data["needs_summarization"])
	})

	t.Run("不支持的 action", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodPost, "/api/v1/chat/context", map[string]string{
			"threadId": "t1",
			"action":   "compact",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("摘要生成失败返回 502", func(t *testing.T) {
		fillThread(t, router, "t3")
		env.generator.err = fmt.Errorf("gateway down")
		defer func() { env.generator.err = nil }()

		w, body := doJSON(t, router, http.MethodPost, "/api/v1/chat/context", map[string]string{
			"threadId": "t3",
		})
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, 800004, int(body["code"].(float64)))
	})
}

func TestGetPrompt_Handler(t *testing.T) {
	env := setupHandlers(t)
	router := newRouter(env)

	fillThread(t, router, "t1")
	w, _ := doJSON(t, router, http.MethodPost, "/api/v1/chat/context", map[string]string{"threadId": "t1"})
	require.Equal(t, http.StatusOK, w.Code)

	w, body := doJSON(t, router, http.MethodGet, "/api/v1/chat/prompt?threadId=t1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	data := body["data"].(map[string]interface{})
	entries := data["entries"].([]interface{})
	// 1 条快照 system 条目 + 5 条活跃消息
	require.Len(t, entries, 6)

	first := entries[0].(map[string]interface{})
	assert.Equal(t, "system", first["role"])
	assert.Contains(t, first["content"].(string), "short summary")
}

func TestListSnapshotsAndReset_Handler(t *testing.T) {
	env := setupHandlers(t)
	router := newRouter(env)

	fillThread(t, router, "t1")
	doJSON(t, router, http.MethodPost, "/api/v1/chat/context", map[string]string{"threadId": "t1"})

	w, body := doJSON(t, router, http.MethodGet, "/api/v1/chat/snapshots?threadId=t1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]interface{})
	snapshots := data["snapshots"].([]interface{})
	require.Len(t, snapshots, 1)

	w, _ = doJSON(t, router, http.MethodPost, "/api/v1/chat/threads/t1/reset", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = doJSON(t, router, http.MethodGet, "/api/v1/chat/snapshots?threadId=t1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data = body["data"].(map[string]interface{})
	assert.Empty(t, data["snapshots"])
}
