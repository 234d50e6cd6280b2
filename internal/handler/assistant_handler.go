// Package handler 提供助手相关的 HTTP 处理器
package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-assist/internal/middleware"
	"github.com/ashwinyue/next-assist/internal/model"
	"github.com/ashwinyue/next-assist/internal/service/ai"
	"github.com/ashwinyue/next-assist/internal/service/assistant"
	"github.com/ashwinyue/next-assist/internal/service/catalog"
	"github.com/ashwinyue/next-assist/internal/service/store"
)

// AssistantService 会话管理器对外的操作集合
type AssistantService interface {
	StartSession(ctx context.Context, scope store.Scope) (*assistant.Snapshot, error)
	GetSnapshot(ctx context.Context, scope store.Scope) (*assistant.Snapshot, error)
	SendMessage(ctx context.Context, scope store.Scope, text string, attachment *ai.Attachment) (*assistant.TurnResult, error)
	HandleAction(ctx context.Context, scope store.Scope, action model.Action, label string) (*assistant.TurnResult, error)
	EndSession(ctx context.Context, scope store.Scope) error
	ClearCurrentConversation(ctx context.Context, scope store.Scope) error
	LoadConversation(ctx context.Context, scope store.Scope, archiveID string) (*assistant.Snapshot, error)
	RateMessage(ctx context.Context, scope store.Scope, rating bool, messageID *string) error
	ListArchive(ctx context.Context, scope store.Scope) []model.ArchiveEntry
	GetArchive(ctx context.Context, scope store.Scope, id string) (*model.ArchiveEntry, error)
	DeleteArchive(ctx context.Context, scope store.Scope, id string) error
}

var _ AssistantService = (*assistant.Manager)(nil)

// AssistantHandler 助手处理器
type AssistantHandler struct {
	svc AssistantService
}

// NewAssistantHandler 创建助手处理器
func NewAssistantHandler(svc AssistantService) *AssistantHandler {
	return &AssistantHandler{svc: svc}
}

// SendMessageRequest 发送消息请求
type SendMessageRequest struct {
	Message    string         `json:"message"`
	Attachment *ai.Attachment `json:"attachment,omitempty"`
}

// HandleActionRequest 执行动作请求
type HandleActionRequest struct {
	Action model.Action `json:"action"`
	Label  string       `json:"label,omitempty"`
}

// FeedbackRequest 评分请求
type FeedbackRequest struct {
	Rating    *bool   `json:"rating"`
	MessageID *string `json:"message_id,omitempty"`
}

// scope 由认证身份得出会话作用域，角色无法解析时直接返回 403
func (h *AssistantHandler) scope(c *gin.Context) (store.Scope, bool) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		Forbidden(c, "missing identity")
		return store.Scope{}, false
	}
	role, ok := catalog.ResolveRole(id)
	if !ok {
		Forbidden(c, "unknown role")
		return store.Scope{}, false
	}
	return store.Scope{TenantID: id.TenantID, Role: role, CallerID: id.CallerID()}, true
}

// StartSession 开始会话
// @Summary      开始会话
// @Description  已有会话时直接返回，否则恢复或新建
// @Tags         助手
// @Produce      json
// @Success      200  {object}  SuccessResponse
// @Router       /api/v1/assistant/session [post]
func (h *AssistantHandler) StartSession(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}

	snap, err := h.svc.StartSession(c.Request.Context(), scope)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, snap)
}

// GetSession 获取当前会话快照
// @Router       /api/v1/assistant/session [get]
func (h *AssistantHandler) GetSession(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}

	snap, err := h.svc.GetSnapshot(c.Request.Context(), scope)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, snap)
}

// EndSession 结束会话
// @Router       /api/v1/assistant/session [delete]
func (h *AssistantHandler) EndSession(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}

	if err := h.svc.EndSession(c.Request.Context(), scope); err != nil {
		Error(c, err)
		return
	}

	NoContent(c)
}

// SendMessage 发送消息
// @Summary      发送消息
// @Tags         助手
// @Accept       json
// @Produce      json
// @Param        request  body      SendMessageRequest  true  "消息"
// @Success      200      {object}  SuccessResponse
// @Router       /api/v1/assistant/messages [post]
func (h *AssistantHandler) SendMessage(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" && req.Attachment == nil {
		BadRequest(c, "message is required")
		return
	}

	result, err := h.svc.SendMessage(c.Request.Context(), scope, req.Message, req.Attachment)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, result)
}

// HandleAction 执行动作（快捷菜单或消息中的按钮）
// @Router       /api/v1/assistant/actions [post]
func (h *AssistantHandler) HandleAction(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}

	var req HandleActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if req.Action.Type == "" {
		BadRequest(c, "action.type is required")
		return
	}

	result, err := h.svc.HandleAction(c.Request.Context(), scope, req.Action, req.Label)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, result)
}

// ClearConversation 归档并清空当前对话
// @Router       /api/v1/assistant/clear [post]
func (h *AssistantHandler) ClearConversation(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}

	if err := h.svc.ClearCurrentConversation(c.Request.Context(), scope); err != nil {
		Error(c, err)
		return
	}

	NoContent(c)
}

// ListArchive 历史对话列表
// @Router       /api/v1/assistant/archive [get]
func (h *AssistantHandler) ListArchive(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}

	Success(c, h.svc.ListArchive(c.Request.Context(), scope))
}

// GetArchive 读取单条历史对话
// @Router       /api/v1/assistant/archive/{id} [get]
func (h *AssistantHandler) GetArchive(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}

	entry, err := h.svc.GetArchive(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, entry)
}

// LoadArchive 载入历史对话作为当前对话
// @Router       /api/v1/assistant/archive/{id}/load [post]
func (h *AssistantHandler) LoadArchive(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}

	snap, err := h.svc.LoadConversation(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, snap)
}

// DeleteArchive 删除单条历史对话
// @Router       /api/v1/assistant/archive/{id} [delete]
func (h *AssistantHandler) DeleteArchive(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteArchive(c.Request.Context(), scope, c.Param("id")); err != nil {
		Error(c, err)
		return
	}

	NoContent(c)
}

// Feedback 对当前会话评分
// @Router       /api/v1/assistant/feedback [post]
func (h *AssistantHandler) Feedback(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}

	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if req.Rating == nil {
		BadRequest(c, "rating is required")
		return
	}

	if err := h.svc.RateMessage(c.Request.Context(), scope, *req.Rating, req.MessageID); err != nil {
		Error(c, err)
		return
	}

	Created(c, gin.H{"rating": *req.Rating})
}

// Menu 当前角色的默认快捷菜单
// @Router       /api/v1/assistant/menu [get]
func (h *AssistantHandler) Menu(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}

	Success(c, gin.H{
		"role":         scope.Role,
		"menu_options": catalog.MenuFor(scope.Role),
	})
}
