package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	appChat "github.com/homebase/backend/internal/application/chat"
	domainChat "github.com/homebase/backend/internal/domain/chat"
	"github.com/homebase/backend/internal/interfaces/http/response"
)

// ContextHandler 上下文管理处理器
type ContextHandler struct {
	contextService *appChat.ContextService
}

// NewContextHandler 创建上下文处理器
func NewContextHandler(contextService *appChat.ContextService) *ContextHandler {
	return &ContextHandler{contextService: contextService}
}

// ContextActionRequest 上下文操作请求
type ContextActionRequest struct {
	ThreadID string `json:"threadId" binding:"required"`
	// Action summarize（默认）触发一次压缩判定；status 返回状态报告
	Action string `json:"action,omitempty"`
}

// GetContext 查询会话上下文状态
// @Summary 查询会话上下文状态
// @Description 返回活跃 token 数、利用率、是否需要压缩以及快照统计
// @Tags 上下文
// @Accept json
// @Produce json
// @Param threadId query string true "会话 ID"
// @Success 200 {object} response.Response{data=chat.ContextStatus}
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /chat/context [get]
func (h *ContextHandler) GetContext(c *gin.Context) {
	threadID := c.Query("threadId")
	if threadID == "" {
		response.Error(c, http.StatusBadRequest, 800001, "threadId 参数是必需的")
		return
	}

	status, err := h.contextService.GetContextStatus(threadID)
	if err != nil {
		if errors.Is(err, domainChat.ErrInvalidThreadID) {
			response.Error(c, http.StatusBadRequest, 800001, "threadId 非法")
			return
		}
		response.Error(c, http.StatusInternalServerError, 800002, "查询上下文状态失败: "+err.Error())
		return
	}

	response.Success(c, status)
}

// PostContext 触发上下文压缩
// @Summary 触发上下文压缩
// @Description 对指定会话执行一次压缩判定；不满足条件时返回 skipped 结果而非错误
// @Tags 上下文
// @Accept json
// @Produce json
// @Param request body ContextActionRequest true "压缩请求"
// @Success 200 {object} response.Response{data=chat.SummarizeOutcome}
// @Failure 400 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /chat/context [post]
func (h *ContextHandler) PostContext(c *gin.Context) {
	var req ContextActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 800001, "请求参数错误: "+err.Error())
		return
	}

	switch req.Action {
	case "", "summarize":
	case "status":
		status, err := h.contextService.GetContextStatus(req.ThreadID)
		if err != nil {
			if errors.Is(err, domainChat.ErrInvalidThreadID) {
				response.Error(c, http.StatusBadRequest, 800001, "threadId 非法")
				return
			}
			response.Error(c, http.StatusInternalServerError, 800002, "查询上下文状态失败: "+err.Error())
			return
		}
		response.Success(c, status)
		return
	default:
		response.Error(c, http.StatusBadRequest, 800001, "不支持的 action: "+req.Action)
		return
	}

	outcome, err := h.contextService.AutoSummarize(c.Request.Context(), req.ThreadID)
	if err != nil {
		switch {
		case errors.Is(err, domainChat.ErrInvalidThreadID):
			response.Error(c, http.StatusBadRequest, 800001, "threadId 非法")
		case errors.Is(err, domainChat.ErrSummarizationFailed):
			response.Error(c, http.StatusBadGateway, 800004, "摘要生成失败: "+err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, 800002, "压缩失败: "+err.Error())
		}
		return
	}

	response.Success(c, outcome)
}
