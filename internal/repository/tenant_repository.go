// Package repository 数据访问层
package repository

import (
	"context"
	"errors"

	"github.com/ashwinyue/next-assist/internal/model"
	"gorm.io/gorm"
)

// TenantRepository 租户仓库
type TenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository 创建租户仓库
func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// Create 创建租户
func (r *TenantRepository) Create(ctx context.Context, tenant *model.Tenant) error {
	return r.db.WithContext(ctx).Create(tenant).Error
}

// GetByID 根据 ID 获取租户
func (r *TenantRepository) GetByID(ctx context.Context, id string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// GetAssistantConfig 获取租户的助手配置
// 租户不存在时返回 (nil, nil)，未配置时返回默认配置
func (r *TenantRepository) GetAssistantConfig(ctx context.Context, tenantID string) (*model.AssistantConfig, error) {
	tenant, err := r.GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if tenant.AssistantConfig == nil {
		return model.DefaultAssistantConfig(), nil
	}
	return tenant.AssistantConfig, nil
}

// UpdateAssistantConfig 更新租户的助手配置
func (r *TenantRepository) UpdateAssistantConfig(ctx context.Context, tenantID string, cfg *model.AssistantConfig) error {
	return r.db.WithContext(ctx).Model(&model.Tenant{}).
		Where("id = ?", tenantID).
		Update("assistant_config", cfg).Error
}
