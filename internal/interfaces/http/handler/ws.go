package handler

import (
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/homebase/backend/internal/infrastructure/config"
	applog "github.com/homebase/backend/internal/infrastructure/log"
	"github.com/homebase/backend/internal/infrastructure/websocket"
	"github.com/homebase/backend/internal/interfaces/http/response"
)

// WSHandler WebSocket 接入处理器
// 客户端按会话订阅，上下文事件（写入/压缩/重置）实时推送
type WSHandler struct {
	hub      *websocket.Hub
	upgrader gorillaws.Upgrader
	logger   *slog.Logger
}

// NewWSHandler 创建 WebSocket 处理器
func NewWSHandler(hub *websocket.Hub, cfg *config.Config) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.WebSocket.WriteBufferSize,
			// 本机局域网服务，不校验 Origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: applog.NewModuleLogger("http", "ws_handler"),
	}
}

// Subscribe 订阅会话的上下文事件
// @Summary 订阅会话的上下文事件（WebSocket）
// @Tags 会话
// @Param threadId query string true "会话 ID"
// @Router /ws [get]
func (h *WSHandler) Subscribe(c *gin.Context) {
	threadID := c.Query("threadId")
	if threadID == "" {
		response.Error(c, http.StatusBadRequest, 800001, "threadId 参数是必需的")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	client := &websocket.Connection{
		ThreadID: threadID,
		Send:     make(chan []byte, 16),
	}
	h.hub.Register(client)

	h.logger.Info("WebSocket client subscribed", "thread_id", threadID)

	go h.writePump(conn, client)
	go h.readPump(conn, client)
}

// writePump 把 hub 推送的事件写给客户端
func (h *WSHandler) writePump(conn *gorillaws.Conn, client *websocket.Connection) {
	defer conn.Close()
	for data := range client.Send {
		if err := conn.WriteMessage(gorillaws.TextMessage, data); err != nil {
			return
		}
	}
}

// readPump 消费客户端消息直到连接断开，断开时注销
func (h *WSHandler) readPump(conn *gorillaws.Conn, client *websocket.Connection) {
	defer func() {
		h.hub.Unregister(client)
		conn.Close()
		h.logger.Info("WebSocket client disconnected", "thread_id", client.ThreadID)
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
