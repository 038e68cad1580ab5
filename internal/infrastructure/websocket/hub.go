package websocket

import (
	"encoding/json"
	"sync"
)

// Hub WebSocket 连接管理中心
// 连接按会话线程分组，上下文事件只推给订阅该线程的客户端
type Hub struct {
	threads map[string]map[*Connection]bool
	// 注册连接
	register chan *Connection
	// 注销连接
	unregister chan *Connection
	// 广播消息
	broadcast chan *Message
	mu        sync.RWMutex
}

// Connection WebSocket 连接
type Connection struct {
	ThreadID string
	Send     chan []byte
}

// Message 消息
type Message struct {
	ThreadID string
	Data     []byte
}

// NewHub 创建 Hub
func NewHub() *Hub {
	return &Hub{
		threads:    make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *Message),
	}
}

// Run 运行 Hub（需要在 goroutine 中运行）
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.threads[conn.ThreadID] == nil {
				h.threads[conn.ThreadID] = make(map[*Connection]bool)
			}
			h.threads[conn.ThreadID][conn] = true
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if thread, ok := h.threads[conn.ThreadID]; ok {
				if _, ok := thread[conn]; ok {
					delete(thread, conn)
					close(conn.Send)
					if len(thread) == 0 {
						delete(h.threads, conn.ThreadID)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			if thread, ok := h.threads[msg.ThreadID]; ok {
				for conn := range thread {
					select {
					case conn.Send <- msg.Data:
					default:
						close(conn.Send)
						delete(thread, conn)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Start 启动 Hub（启动后台 goroutine）
func (h *Hub) Start() {
	go h.Run()
}

// Register 注册连接
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister 注销连接
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// PublishThreadEvent 向订阅指定线程的客户端推送事件
func (h *Hub) PublishThreadEvent(threadID string, event interface{}) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return err
	}
	h.broadcast <- &Message{
		ThreadID: threadID,
		Data:     jsonData,
	}
	return nil
}
