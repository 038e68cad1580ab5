package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	appChat "github.com/homebase/backend/internal/application/chat"
	domainChat "github.com/homebase/backend/internal/domain/chat"
	"github.com/homebase/backend/internal/interfaces/http/response"
)

// ThreadHandler 会话消息与 prompt 处理器
type ThreadHandler struct {
	contextService *appChat.ContextService
	assembler      *appChat.Assembler
	recallService  *appChat.RecallService
}

// NewThreadHandler 创建会话处理器
func NewThreadHandler(
	contextService *appChat.ContextService,
	assembler *appChat.Assembler,
	recallService *appChat.RecallService,
) *ThreadHandler {
	return &ThreadHandler{
		contextService: contextService,
		assembler:      assembler,
		recallService:  recallService,
	}
}

// AppendMessageRequest 追加消息请求
type AppendMessageRequest struct {
	ThreadID string `json:"threadId" binding:"required"`
	Role     string `json:"role" binding:"required"`
	Content  string `json:"content" binding:"required"`
}

// AppendMessageResponse 写入结果：消息本体 + 写入后的上下文状态
type AppendMessageResponse struct {
	Message *domainChat.Message      `json:"message"`
	State   *domainChat.ContextState `json:"state"`
}

// AppendMessage 追加一条消息
// @Summary 追加一条消息
// @Tags 会话
// @Accept json
// @Produce json
// @Param request body AppendMessageRequest true "消息"
// @Success 200 {object} response.Response{data=AppendMessageResponse}
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /chat/messages [post]
func (h *ThreadHandler) AppendMessage(c *gin.Context) {
	var req AppendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 800001, "请求参数错误: "+err.Error())
		return
	}

	msg, err := h.contextService.AppendMessage(req.ThreadID, domainChat.Role(req.Role), req.Content)
	if err != nil {
		switch {
		case errors.Is(err, domainChat.ErrInvalidThreadID),
			errors.Is(err, domainChat.ErrInvalidRole),
			errors.Is(err, domainChat.ErrEmptyContent):
			response.Error(c, http.StatusBadRequest, 800001, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, 800002, "写入消息失败: "+err.Error())
		}
		return
	}

	state, err := h.contextService.GetContextState(req.ThreadID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 800002, "查询上下文状态失败: "+err.Error())
		return
	}

	response.Success(c, AppendMessageResponse{Message: msg, State: state})
}

// PromptResponse 组装好的 prompt
type PromptResponse struct {
	ThreadID string                   `json:"threadId"`
	Entries  []domainChat.PromptEntry `json:"entries"`
}

// GetPrompt 组装会话的完整 prompt
// @Summary 组装会话的完整 prompt
// @Description 快照（system 条目）在前，活跃消息按顺序在后
// @Tags 会话
// @Produce json
// @Param threadId query string true "会话 ID"
// @Success 200 {object} response.Response{data=PromptResponse}
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /chat/prompt [get]
func (h *ThreadHandler) GetPrompt(c *gin.Context) {
	threadID := c.Query("threadId")
	if threadID == "" {
		response.Error(c, http.StatusBadRequest, 800001, "threadId 参数是必需的")
		return
	}

	entries, err := h.assembler.AssemblePrompt(threadID)
	if err != nil {
		if errors.Is(err, domainChat.ErrInvalidThreadID) {
			response.Error(c, http.StatusBadRequest, 800001, "threadId 非法")
			return
		}
		response.Error(c, http.StatusInternalServerError, 800002, "组装 prompt 失败: "+err.Error())
		return
	}

	response.Success(c, PromptResponse{ThreadID: threadID, Entries: entries})
}

// SnapshotListResponse 快照列表
type SnapshotListResponse struct {
	ThreadID  string                 `json:"threadId"`
	Snapshots []*domainChat.Snapshot `json:"snapshots"`
}

// ListSnapshots 查询会话的快照列表
// @Summary 查询会话的快照列表
// @Tags 会话
// @Produce json
// @Param threadId query string true "会话 ID"
// @Success 200 {object} response.Response{data=SnapshotListResponse}
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /chat/snapshots [get]
func (h *ThreadHandler) ListSnapshots(c *gin.Context) {
	threadID := c.Query("threadId")
	if threadID == "" {
		response.Error(c, http.StatusBadRequest, 800001, "threadId 参数是必需的")
		return
	}

	snapshots, err := h.assembler.ListSnapshots(threadID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 800002, "查询快照失败: "+err.Error())
		return
	}

	response.Success(c, SnapshotListResponse{ThreadID: threadID, Snapshots: snapshots})
}

// ResetThread 重置会话
// @Summary 重置会话
// @Description 删除会话的全部消息与快照，不可恢复
// @Tags 会话
// @Produce json
// @Param threadId path string true "会话 ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /chat/threads/{threadId}/reset [post]
func (h *ThreadHandler) ResetThread(c *gin.Context) {
	threadID := c.Param("threadId")

	if err := h.contextService.Reset(threadID); err != nil {
		if errors.Is(err, domainChat.ErrInvalidThreadID) {
			response.Error(c, http.StatusBadRequest, 800001, "threadId 非法")
			return
		}
		response.Error(c, http.StatusInternalServerError, 800002, "重置会话失败: "+err.Error())
		return
	}

	response.Success(c, gin.H{"threadId": threadID, "reset": true})
}

// RecallRequest 语义召回请求
type RecallRequest struct {
	Query    string `json:"query" binding:"required"`
	ThreadID string `json:"threadId,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// Recall 语义召回历史快照
// @Summary 语义召回历史快照
// @Description 用自然语言查询找回被压缩的历史；需要配置 embedding 网关和 Qdrant
// @Tags 会话
// @Accept json
// @Produce json
// @Param request body RecallRequest true "召回请求"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /chat/recall [post]
func (h *ThreadHandler) Recall(c *gin.Context) {
	var req RecallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 800001, "请求参数错误: "+err.Error())
		return
	}

	hits, err := h.recallService.Recall(c.Request.Context(), req.Query, req.ThreadID, req.Limit)
	if err != nil {
		if errors.Is(err, domainChat.ErrRecallUnavailable) {
			response.Error(c, http.StatusServiceUnavailable, 800006, "语义召回未配置")
			return
		}
		response.Error(c, http.StatusInternalServerError, 800002, "召回失败: "+err.Error())
		return
	}

	response.Success(c, gin.H{"hits": hits})
}
