package wire

import (
	"database/sql"

	"log/slog"

	"github.com/homebase/backend/internal/infrastructure/config"
	"github.com/homebase/backend/internal/infrastructure/discovery"
	applog "github.com/homebase/backend/internal/infrastructure/log"
	"github.com/homebase/backend/internal/infrastructure/settings"
	"github.com/homebase/backend/internal/infrastructure/vector"
	"github.com/homebase/backend/internal/infrastructure/websocket"
	"github.com/homebase/backend/internal/interfaces"
)

// Version 构建版本，由 ldflags 注入
var Version = "dev"

// App 应用主结构，组合所有服务
type App struct {
	HTTPServer    *interfaces.HTTPServer
	MCPServer     *interfaces.MCPServer
	wsHub         *websocket.Hub
	settingsStore *settings.Store
	advertiser    *discovery.Advertiser
	snapshotIndex *vector.SnapshotIndex
	cfg           *config.Config
	db            *sql.DB
	logger        *slog.Logger
}

// NewApp 创建应用实例
func NewApp(
	httpServer *interfaces.HTTPServer,
	mcpServer *interfaces.MCPServer,
	wsHub *websocket.Hub,
	settingsStore *settings.Store,
	advertiser *discovery.Advertiser,
	snapshotIndex *vector.SnapshotIndex,
	cfg *config.Config,
	db *sql.DB,
) *App {
	return &App{
		HTTPServer:    httpServer,
		MCPServer:     mcpServer,
		wsHub:         wsHub,
		settingsStore: settingsStore,
		advertiser:    advertiser,
		snapshotIndex: snapshotIndex,
		cfg:           cfg,
		db:            db,
		logger:        applog.NewModuleLogger("app", "main"),
	}
}

// Start 启动所有服务
func (a *App) Start() error {
	a.logger.Info("Starting homebase backend application")

	// 启动 WebSocket Hub
	a.wsHub.Start()

	// 监听设置文件，外部编辑后热加载
	if err := a.settingsStore.StartWatch(); err != nil {
		a.logger.Error("Failed to start settings watcher", "error", err)
	}

	// mDNS 广播，局域网客户端自动发现
	if err := a.advertiser.Start(a.cfg.Server.HTTPPort, Version); err != nil {
		a.logger.Error("Failed to start mDNS advertiser", "error", err)
	}

	// 启动 HTTP 服务器（goroutine）
	go func() {
		if err := a.HTTPServer.Start(); err != nil {
			a.logger.Error("HTTP server stopped", "error", err)
		}
	}()

	a.logger.Info("Homebase backend application started successfully")

	// MCP 服务器通过 HTTP Handler 提供服务，已注册 /mcp/sse 端点
	return nil
}

// Stop 停止所有服务
func (a *App) Stop() error {
	a.logger.Info("Stopping homebase backend application")

	if err := a.advertiser.Stop(); err != nil {
		a.logger.Error("Failed to stop mDNS advertiser", "error", err)
	}

	a.settingsStore.StopWatch()

	if err := a.snapshotIndex.Close(); err != nil {
		a.logger.Error("Failed to close snapshot index", "error", err)
	}

	if err := a.HTTPServer.Stop(); err != nil {
		a.logger.Error("Failed to stop HTTP server", "error", err)
		return err
	}
	if err := a.MCPServer.Stop(); err != nil {
		a.logger.Error("Failed to stop MCP server", "error", err)
		return err
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("Failed to close database connection", "error", err)
			return err
		}
	}

	a.logger.Info("Homebase backend application stopped successfully")
	return nil
}
