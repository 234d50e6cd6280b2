package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-assist/internal/middleware"
	"github.com/ashwinyue/next-assist/internal/model"
	"github.com/ashwinyue/next-assist/internal/service/catalog"
	"github.com/ashwinyue/next-assist/internal/service/tenant"
)

// TenantService 租户助手配置操作
type TenantService interface {
	GetAssistantConfig(ctx context.Context, tenantID string) (*model.AssistantConfig, error)
	UpdateAssistantConfig(ctx context.Context, tenantID string, cfg *model.AssistantConfig) (*model.AssistantConfig, error)
}

var _ TenantService = (*tenant.Service)(nil)

// TenantHandler 租户配置处理器
type TenantHandler struct {
	svc TenantService
}

// NewTenantHandler 创建租户配置处理器
func NewTenantHandler(svc TenantService) *TenantHandler {
	return &TenantHandler{svc: svc}
}

// administrator 只有 master 与 adm 可以管理助手配置
func administrator(c *gin.Context) (catalog.Identity, bool) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		Forbidden(c, "missing identity")
		return catalog.Identity{}, false
	}
	role, ok := catalog.ResolveRole(id)
	if !ok || (role != model.RoleMaster && role != model.RoleAdm) {
		Forbidden(c, "administrator role required")
		return catalog.Identity{}, false
	}
	return id, true
}

// GetAssistantConfig 获取租户的助手配置
// @Summary      获取助手配置
// @Tags         租户管理
// @Produce      json
// @Success      200  {object}  SuccessResponse
// @Router       /api/v1/assistant/config [get]
func (h *TenantHandler) GetAssistantConfig(c *gin.Context) {
	id, ok := administrator(c)
	if !ok {
		return
	}

	cfg, err := h.svc.GetAssistantConfig(c.Request.Context(), id.TenantID)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, cfg)
}

// UpdateAssistantConfig 更新租户的助手配置
// @Summary      更新助手配置
// @Tags         租户管理
// @Accept       json
// @Produce      json
// @Param        request  body      model.AssistantConfig  true  "助手配置"
// @Success      200      {object}  SuccessResponse
// @Router       /api/v1/assistant/config [put]
func (h *TenantHandler) UpdateAssistantConfig(c *gin.Context) {
	id, ok := administrator(c)
	if !ok {
		return
	}

	var cfg model.AssistantConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		BadRequest(c, err.Error())
		return
	}

	updated, err := h.svc.UpdateAssistantConfig(c.Request.Context(), id.TenantID, &cfg)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, updated)
}
