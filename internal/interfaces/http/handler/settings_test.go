package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homebase/backend/internal/infrastructure/config"
	"github.com/homebase/backend/internal/infrastructure/llm"
	"github.com/homebase/backend/internal/infrastructure/settings"
)

func setupSettingsHandler(t *testing.T) (*SettingsHandler, *settings.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tmpDir, err := os.MkdirTemp("", "homebase_settings_handler_*")
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

	return NewSettingsHandler(store, llm.NewClient(store)), store
}

func TestSettingsHandler_GetMasksSecrets(t *testing.T) {
	handler, store := setupSettingsHandler(t)

	cfg := store.Get()
	cfg.ChatAPIKey = "sk-verysecret1234"
	require.NoError(t, store.Update(cfg))

	router := gin.New()
	router.GET("/api/v1/settings/gateway", handler.GetGateway)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/settings/gateway", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "****1234", data["chat_api_key"])
	// 落盘的值不受影响
	assert.Equal(t, "sk-verysecret1234", store.Get().ChatAPIKey)
}

func TestSettingsHandler_UpdateKeepsMaskedKey(t *testing.T) {
	handler, store := setupSettingsHandler(t)

	cfg := store.Get()
	cfg.ChatAPIKey = "sk-original"
	require.NoError(t, store.Update(cfg))

	router := gin.New()
	router.PUT("/api/v1/settings/gateway", handler.UpdateGateway)

	// 掩码值表示未修改
	payload := map[string]interface{}{
		"chat_base_url": "https://gateway.example.com/v1",
		"chat_api_key":  "****inal",
		"chat_model":    "gpt-4o",
		"language":      "en-US",
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings/gateway", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	updated := store.Get()
	assert.Equal(t, "sk-original", updated.ChatAPIKey)
	assert.Equal(t, "https://gateway.example.com/v1", updated.ChatBaseURL)
	assert.Equal(t, "gpt-4o", updated.ChatModel)
	assert.Equal(t, "en-US", updated.Language)
}
