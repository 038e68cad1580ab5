package settings

import (
	"os"
	"testing"

	"github.com/homebase/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupStore 在临时数据目录下创建 Store
func setupStore(t *testing.T) *Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "homebase_settings_*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	config.ResetDataDir()
	t.Setenv(config.EnvDataDir, tmpDir)
	t.Cleanup(config.ResetDataDir)

	store, err := NewStore()
	require.NoError(t, err)
	return store
}

func TestNewStore_WritesDefaults(t *testing.T) {
	store := setupStore(t)

	settings := store.Get()
	assert.Equal(t, "https://api.openai.com/v1", settings.ChatBaseURL)
	assert.Equal(t, "gpt-4o-mini", settings.ChatModel)
	assert.False(t, settings.RecallConfigured(), "默认配置不应启用召回")

	// 默认配置应已落盘
	_, err := os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestStore_UpdateRoundTrip(t *testing.T) {
	store := setupStore(t)

	updated := GatewaySettings{
		ChatBaseURL:      "http://gateway.local/v1",
		ChatAPIKey:       "sk-test",
		ChatModel:        "qwen-max",
		EmbeddingBaseURL: "http://gateway.local/v1",
		EmbeddingModel:   "text-embedding-3-small",
		QdrantHost:       "localhost",
		QdrantPort:       6334,
		Language:         "en-US",
	}
	require.NoError(t, store.Update(updated))
	assert.True(t, store.Get().RecallConfigured())

	// 新实例从磁盘读回
	store2, err := NewStore()
	require.NoError(t, err)
	got := store2.Get()
	assert.Equal(t, "qwen-max", got.ChatModel)
	assert.Equal(t, "sk-test", got.ChatAPIKey)
	assert.Equal(t, "localhost", got.QdrantHost)
}

func TestStore_UpdateFillsRequiredDefaults(t *testing.T) {
	store := setupStore(t)

	require.NoError(t, store.Update(GatewaySettings{Language: "zh-CN"}))

	got := store.Get()
	assert.Equal(t, "https://api.openai.com/v1", got.ChatBaseURL, "空 base URL 应回填默认")
	assert.Equal(t, "gpt-4o-mini", got.ChatModel, "空模型应回填默认")
}

func TestStore_Reload(t *testing.T) {
	store := setupStore(t)

	// 外部直接改写文件
	content := "chat_base_url: http://other/v1\nchat_model: glm-4\nlanguage: zh-CN\n"
	require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0600))

	require.NoError(t, store.Reload())
	assert.Equal(t, "glm-4", store.Get().ChatModel)
}
