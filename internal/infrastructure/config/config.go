package config

import (
	"os"
	"strconv"
)

// 环境变量覆盖项
const (
	// EnvHTTPPort HTTP 端口环境变量名
	EnvHTTPPort = "HOMEBASE_HTTP_PORT"
	// EnvMCPPort MCP 端口环境变量名
	EnvMCPPort = "HOMEBASE_MCP_PORT"
	// EnvContextBudget 上下文 token 预算
	EnvContextBudget = "HOMEBASE_CONTEXT_BUDGET"
	// EnvContextThreshold 压缩触发阈值（百分比）
	EnvContextThreshold = "HOMEBASE_CONTEXT_THRESHOLD"
	// EnvContextMaxActive 活跃消息数硬上限
	EnvContextMaxActive = "HOMEBASE_CONTEXT_MAX_ACTIVE"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	WebSocket WebSocketConfig
	Context   ContextConfig
	Discovery DiscoveryConfig
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTPPort string // 固定端口，用于单例锁
	MCPPort  string
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Path string // 留空表示使用默认数据目录下的 homebase.db
}

// WebSocketConfig WebSocket 配置
type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
}

// ContextConfig 无限上下文引擎配置
type ContextConfig struct {
	// BudgetTokens 活跃消息的 token 预算（模型上下文窗口中留给历史的部分）
	BudgetTokens int

	// ThresholdPercent 利用率达到该百分比时触发压缩
	ThresholdPercent float64

	// MaxActiveMessages 活跃消息数硬上限
	// 独立于 token 估算的兜底，即使估算失真也能约束压缩延迟
	MaxActiveMessages int

	// MinEligibleMessages 触发压缩所需的最少活跃消息数，低于该值时跳过
	MinEligibleMessages int

	// MinActiveKeep 压缩后至少保留的最近消息数，保证最新的对话上下文不被压掉
	MinActiveKeep int

	// SummarizeTimeoutSeconds 单次摘要生成调用的超时
	SummarizeTimeoutSeconds int
}

// DiscoveryConfig mDNS 服务发现配置
type DiscoveryConfig struct {
	Enabled     bool
	ServiceName string
	ServiceType string
}

// NewConfig 创建配置（默认值 + 环境变量覆盖）
func NewConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: getEnvWithDefault(EnvHTTPPort, ":19970"),
			MCPPort:  getEnvWithDefault(EnvMCPPort, ":19971"),
		},
		Database: DatabaseConfig{
			Path: "",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		Context: ContextConfig{
			BudgetTokens:            getEnvInt(EnvContextBudget, 8000),
			ThresholdPercent:        getEnvFloat(EnvContextThreshold, 70),
			MaxActiveMessages:       getEnvInt(EnvContextMaxActive, 200),
			MinEligibleMessages:     4,
			MinActiveKeep:           4,
			SummarizeTimeoutSeconds: 60,
		},
		Discovery: DiscoveryConfig{
			Enabled:     true,
			ServiceName: "homebase",
			ServiceType: "_homebase._tcp",
		},
	}
}

// NewServerConfig 创建服务器配置
func NewServerConfig(cfg *Config) *ServerConfig {
	return &cfg.Server
}

// NewDatabaseConfig 创建数据库配置
func NewDatabaseConfig(cfg *Config) *DatabaseConfig {
	return &cfg.Database
}

// NewContextConfig 创建上下文引擎配置
func NewContextConfig(cfg *Config) *ContextConfig {
	return &cfg.Context
}

// NewDiscoveryConfig 创建服务发现配置
func NewDiscoveryConfig(cfg *Config) *DiscoveryConfig {
	return &cfg.Discovery
}

// getEnvWithDefault 获取环境变量，带默认值
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt 获取整型环境变量
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

// getEnvFloat 获取浮点型环境变量
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		return defaultValue
	}
	return f
}
