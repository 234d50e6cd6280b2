package handler

import (
	"github.com/ashwinyue/next-assist/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Assistant *AssistantHandler
	Tenant    *TenantHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Assistant: NewAssistantHandler(svc.Assistant),
		Tenant:    NewTenantHandler(svc.Tenant),
	}
}
