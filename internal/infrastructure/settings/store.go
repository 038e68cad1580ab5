package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"log/slog"

	"github.com/homebase/backend/internal/infrastructure/config"
	"github.com/homebase/backend/internal/infrastructure/log"
	"gopkg.in/yaml.v3"
)

// GatewaySettings 外部 AI 网关配置
// 聊天补全用于快照摘要生成，embedding + qdrant 用于快照语义召回（可选）
type GatewaySettings struct {
	ChatBaseURL string `yaml:"chat_base_url" json:"chat_base_url"`
	ChatAPIKey  string `yaml:"chat_api_key" json:"chat_api_key,omitempty"`
	ChatModel   string `yaml:"chat_model" json:"chat_model"`

	EmbeddingBaseURL string `yaml:"embedding_base_url" json:"embedding_base_url,omitempty"`
	EmbeddingAPIKey  string `yaml:"embedding_api_key" json:"embedding_api_key,omitempty"`
	EmbeddingModel   string `yaml:"embedding_model" json:"embedding_model,omitempty"`

	QdrantHost string `yaml:"qdrant_host" json:"qdrant_host,omitempty"`
	QdrantPort int    `yaml:"qdrant_port" json:"qdrant_port,omitempty"`

	// Language 摘要输出语言：zh-CN 或 en-US
	Language string `yaml:"language" json:"language"`
}

// DefaultSettings 默认网关配置
func DefaultSettings() GatewaySettings {
	return GatewaySettings{
		ChatBaseURL: "https://api.openai.com/v1",
		ChatModel:   "gpt-4o-mini",
		QdrantPort:  6334,
		Language:    "zh-CN",
	}
}

// RecallConfigured 语义召回是否配置完整
func (s GatewaySettings) RecallConfigured() bool {
	return s.EmbeddingBaseURL != "" && s.EmbeddingModel != "" && s.QdrantHost != ""
}

// Store yaml 持久化的设置存储
// 文件被外部修改时通过 fsnotify 热加载
type Store struct {
	path    string
	mu      sync.RWMutex
	current GatewaySettings
	watch   *watcher
	logger  *slog.Logger
}

// NewStore 创建设置存储，文件不存在时写入默认配置
func NewStore() (*Store, error) {
	dir := config.GetDataDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}

	s := &Store{
		path:   filepath.Join(dir, "settings.yaml"),
		logger: log.NewModuleLogger("settings", "store"),
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		s.current = DefaultSettings()
		if err := s.persist(s.current); err != nil {
			return nil, err
		}
		return s, nil
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get 读取当前设置（返回副本）
func (s *Store) Get() GatewaySettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update 更新并持久化设置
func (s *Store) Update(settings GatewaySettings) error {
	if settings.ChatBaseURL == "" {
		settings.ChatBaseURL = DefaultSettings().ChatBaseURL
	}
	if settings.ChatModel == "" {
		settings.ChatModel = DefaultSettings().ChatModel
	}

	if err := s.persist(settings); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = settings
	s.mu.Unlock()

	s.logger.Info("Gateway settings updated",
		"chat_model", settings.ChatModel,
		"recall_configured", settings.RecallConfigured(),
	)
	return nil
}

// Reload 从磁盘重新加载设置
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings GatewaySettings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("failed to parse settings file: %w", err)
	}

	s.mu.Lock()
	s.current = settings
	s.mu.Unlock()
	return nil
}

// Path 设置文件路径
func (s *Store) Path() string {
	return s.path
}

// persist 写入 yaml 文件
// API key 落在本机数据目录下，文件权限收紧到仅属主可读
func (s *Store) persist(settings GatewaySettings) error {
	data, err := yaml.Marshal(&settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}
