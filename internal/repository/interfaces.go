// Package repository 定义数据访问接口
// 接口抽象使依赖注入和单元测试成为可能
package repository

import (
	"context"

	"github.com/ashwinyue/next-assist/internal/model"
)

// AssistantConfigReader 租户助手配置读取
type AssistantConfigReader interface {
	GetAssistantConfig(ctx context.Context, tenantID string) (*model.AssistantConfig, error)
}

// AssistantConfigRepository 租户助手配置读写
type AssistantConfigRepository interface {
	AssistantConfigReader
	UpdateAssistantConfig(ctx context.Context, tenantID string, cfg *model.AssistantConfig) error
}

// SessionRecordRepository 会话持久化记录
type SessionRecordRepository interface {
	Create(ctx context.Context, session *model.AssistantSession) error
	GetByID(ctx context.Context, id string) (*model.AssistantSession, error)
	Update(ctx context.Context, id string, updates map[string]any) error
}

// FeedbackWriter 评分写入
type FeedbackWriter interface {
	Create(ctx context.Context, fb *model.AssistantFeedback) error
}

// BillingReader 业务数据只读访问
// 页大小（5 或 10）由实现固定
type BillingReader interface {
	ActiveServices(ctx context.Context, tenantID, customerID string) ([]model.CustomerService, error)
	ActivePlans(ctx context.Context, tenantID string) ([]model.Plan, error)
	PendingPayments(ctx context.Context, tenantID, customerID string) ([]model.Payment, error)
	PendingCharges(ctx context.Context, tenantID, resellerID string) ([]model.Charge, error)
	OverdueCharges(ctx context.Context, tenantID, resellerID string) ([]model.Charge, error)
	CountOverdueCharges(ctx context.Context, tenantID, resellerID string) (int64, error)
	SoonestExpiringService(ctx context.Context, tenantID, customerID string) (*model.CustomerService, error)
	Customers(ctx context.Context, tenantID, resellerID, search string) ([]model.Customer, error)
	Resellers(ctx context.Context, tenantID, search string) ([]model.Reseller, error)
	Stats(ctx context.Context, tenantID, resellerID string) (model.ContextStats, error)
}

// 确保实现了接口
var (
	_ AssistantConfigRepository = (*TenantRepository)(nil)
	_ SessionRecordRepository   = (*SessionRepository)(nil)
	_ FeedbackWriter            = (*FeedbackRepository)(nil)
	_ BillingReader             = (*BillingRepository)(nil)
)
