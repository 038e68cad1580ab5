package mcp

import (
	"net/http"

	appChat "github.com/homebase/backend/internal/application/chat"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPServer MCP 服务器
// 通过 SSE 暴露上下文管理工具，供外部 AI 客户端直接操作会话历史
type MCPServer struct {
	server         *mcp.Server
	handler        http.Handler
	contextService *appChat.ContextService
	assembler      *appChat.Assembler
	recallService  *appChat.RecallService
}

// NewServer 创建 MCP 服务器
func NewServer(
	contextService *appChat.ContextService,
	assembler *appChat.Assembler,
	recallService *appChat.RecallService,
) *MCPServer {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "homebase-backend",
			Version: "0.1.0",
		},
		nil, // 使用默认能力
	)

	mcpServer := &MCPServer{
		server:         server,
		contextService: contextService,
		assembler:      assembler,
		recallService:  recallService,
	}

	// 注册工具：get_context_status
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_context_status",
		Description: "Get the context status of a conversation thread: active token count, budget utilization, whether compaction is needed, and snapshot statistics. Parameters: thread_id (string, required) - conversation thread ID.",
	}, mcpServer.getContextStatusTool)

	// 注册工具：summarize_thread
	mcp.AddTool(server, &mcp.Tool{
		Name:        "summarize_thread",
		Description: "Trigger a context compaction pass on the specified thread. The oldest active messages are summarized into an immutable snapshot when the context budget threshold is reached; otherwise the call is a no-op with a skip reason. Parameters: thread_id (string, required) - conversation thread ID.",
	}, mcpServer.summarizeThreadTool)

	// 注册工具：get_thread_prompt
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_thread_prompt",
		Description: "Assemble the full prompt for a thread: archived snapshots as system entries first (in creation order), then all active messages in order. Parameters: thread_id (string, required) - conversation thread ID.",
	}, mcpServer.getThreadPromptTool)

	// 注册工具：recall_snapshots
	mcp.AddTool(server, &mcp.Tool{
		Name:        "recall_snapshots",
		Description: "Semantic search over archived conversation snapshots. Requires an embedding gateway and Qdrant to be configured. Parameters: query (string, required) - natural language query; thread_id (string, optional) - restrict to one thread; limit (int, optional) - max results, default 5.",
	}, mcpServer.recallSnapshotsTool)

	// 创建 SSE Handler
	handler := mcp.NewSSEHandler(
		func(r *http.Request) *mcp.Server {
			return server
		},
		nil,
	)

	mcpServer.handler = handler
	return mcpServer
}

// GetHandler 获取 HTTP Handler（用于集成到 HTTP 服务器）
func (s *MCPServer) GetHandler() http.Handler {
	return s.handler
}

// Start 启动服务器（HTTP/SSE 模式）
// MCP 服务器通过 HTTP Handler 提供服务，由 HTTP 服务器统一管理
func (s *MCPServer) Start() error {
	return nil
}

// Stop 停止服务器
func (s *MCPServer) Stop() error {
	return nil
}
