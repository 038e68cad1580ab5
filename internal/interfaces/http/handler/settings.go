package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/homebase/backend/internal/infrastructure/llm"
	"github.com/homebase/backend/internal/infrastructure/settings"
	"github.com/homebase/backend/internal/interfaces/http/response"
)

// SettingsHandler 网关设置处理器
type SettingsHandler struct {
	store     *settings.Store
	llmClient *llm.Client
}

// NewSettingsHandler 创建设置处理器
func NewSettingsHandler(store *settings.Store, llmClient *llm.Client) *SettingsHandler {
	return &SettingsHandler{store: store, llmClient: llmClient}
}

// GetGateway 查询网关设置
// @Summary 查询网关设置
// @Tags 设置
// @Produce json
// @Success 200 {object} response.Response{data=settings.GatewaySettings}
// @Router /settings/gateway [get]
func (h *SettingsHandler) GetGateway(c *gin.Context) {
	cfg := h.store.Get()
	// API Key 不回显明文
	if cfg.ChatAPIKey != "" {
		cfg.ChatAPIKey = maskSecret(cfg.ChatAPIKey)
	}
	if cfg.EmbeddingAPIKey != "" {
		cfg.EmbeddingAPIKey = maskSecret(cfg.EmbeddingAPIKey)
	}
	response.Success(c, cfg)
}

// UpdateGateway 更新网关设置
// @Summary 更新网关设置
// @Tags 设置
// @Accept json
// @Produce json
// @Param request body settings.GatewaySettings true "网关设置"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /settings/gateway [put]
func (h *SettingsHandler) UpdateGateway(c *gin.Context) {
	var req settings.GatewaySettings
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 800001, "请求参数错误: "+err.Error())
		return
	}

	// 掩码值表示未修改，保留原有密钥
	current := h.store.Get()
	if isMasked(req.ChatAPIKey) {
		req.ChatAPIKey = current.ChatAPIKey
	}
	if isMasked(req.EmbeddingAPIKey) {
		req.EmbeddingAPIKey = current.EmbeddingAPIKey
	}

	if err := h.store.Update(req); err != nil {
		response.Error(c, http.StatusInternalServerError, 800002, "保存设置失败: "+err.Error())
		return
	}

	response.Success(c, gin.H{"updated": true})
}

// TestGateway 测试网关连通性
// @Summary 测试网关连通性
// @Description 向配置的 Chat 网关发送一次测试请求
// @Tags 设置
// @Produce json
// @Success 200 {object} response.Response
// @Failure 502 {object} response.ErrorResponse
// @Router /settings/gateway/test [post]
func (h *SettingsHandler) TestGateway(c *gin.Context) {
	if err := h.llmClient.TestConnection(c.Request.Context()); err != nil {
		response.Error(c, http.StatusBadGateway, 800005, "网关连接测试失败: "+err.Error())
		return
	}
	response.Success(c, gin.H{"ok": true})
}

// maskSecret 密钥掩码，保留末 4 位
func maskSecret(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

// isMasked 判断是否是掩码值
func isMasked(value string) bool {
	return len(value) >= 4 && value[:4] == "****"
}
