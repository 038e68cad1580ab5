package http

import (
	"context"
	"net/http"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/homebase/backend/internal/infrastructure/config"
	"github.com/homebase/backend/internal/infrastructure/log"
	"github.com/homebase/backend/internal/interfaces/http/handler"
	"github.com/homebase/backend/internal/interfaces/http/middleware"
	"github.com/homebase/backend/internal/interfaces/mcp"

	_ "github.com/homebase/backend/docs" // Swagger docs
)

// HTTPServer HTTP 服务器
type HTTPServer struct {
	router   *gin.Engine
	httpPort string
	server   *http.Server
	logger   *slog.Logger
}

// NewServer 创建 HTTP 服务器
func NewServer(
	cfg *config.ServerConfig,
	contextHandler *handler.ContextHandler,
	threadHandler *handler.ThreadHandler,
	settingsHandler *handler.SettingsHandler,
	wsHandler *handler.WSHandler,
	mcpServer *mcp.MCPServer,
) *HTTPServer {
	router := gin.Default()
	router.Use(middleware.EnsureUTF8Body())

	logger := log.NewModuleLogger("http", "server")

	// 注册路由
	api := router.Group("/api/v1")
	{
		// 上下文管理
		api.GET("/chat/context", contextHandler.GetContext)
		api.POST("/chat/context", contextHandler.PostContext)

		// 会话消息与 prompt
		api.POST("/chat/messages", threadHandler.AppendMessage)
		api.GET("/chat/prompt", threadHandler.GetPrompt)
		api.GET("/chat/snapshots", threadHandler.ListSnapshots)
		api.POST("/chat/threads/:threadId/reset", threadHandler.ResetThread)
		api.POST("/chat/recall", threadHandler.Recall)

		// 网关设置
		api.GET("/settings/gateway", settingsHandler.GetGateway)
		api.PUT("/settings/gateway", settingsHandler.UpdateGateway)
		api.POST("/settings/gateway/test", settingsHandler.TestGateway)

		// 上下文事件订阅
		api.GET("/ws", wsHandler.Subscribe)
	}

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// MCP SSE 端点
	if mcpServer != nil {
		router.Any("/mcp/sse", gin.WrapH(mcpServer.GetHandler()))
	}

	return &HTTPServer{
		router:   router,
		httpPort: cfg.HTTPPort,
		logger:   logger,
	}
}

// Start 启动服务器
func (s *HTTPServer) Start() error {
	s.server = &http.Server{
		Addr:    s.httpPort,
		Handler: s.router,
	}

	s.logger.Info("HTTP server starting",
		"port", s.httpPort,
	)

	return s.server.ListenAndServe()
}

// Shutdown 优雅关闭
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Stop 停止服务器
func (s *HTTPServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}
