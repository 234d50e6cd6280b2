package repository

import (
	"context"
	"errors"

	"github.com/ashwinyue/next-assist/internal/model"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// 有界读取的页大小，属于查询契约，调用方不可协商
const (
	smallPage = 5
	largePage = 10
)

// BillingRepository 业务数据只读访问（服务、套餐、付款、账单、客户、代理商）
type BillingRepository struct {
	db *gorm.DB
}

// NewBillingRepository 创建业务数据仓库
func NewBillingRepository(db *gorm.DB) *BillingRepository {
	return &BillingRepository{db: db}
}

// ActiveServices 客户的有效服务（前 10）
func (r *BillingRepository) ActiveServices(ctx context.Context, tenantID, customerID string) ([]model.CustomerService, error) {
	var items []model.CustomerService
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ? AND status = ?", tenantID, customerID, model.ServiceStatusActive).
		Order("expires_at ASC").
		Limit(largePage).
		Find(&items).Error
	return items, err
}

// ActivePlans 可订购套餐（前 10）
func (r *BillingRepository) ActivePlans(ctx context.Context, tenantID string) ([]model.Plan, error) {
	var plans []model.Plan
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Order("price ASC").
		Limit(largePage).
		Find(&plans).Error
	return plans, err
}

// PendingPayments 客户待付款单（前 5）
func (r *BillingRepository) PendingPayments(ctx context.Context, tenantID, customerID string) ([]model.Payment, error) {
	var payments []model.Payment
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ? AND status IN ?", tenantID, customerID,
			[]string{model.BillingStatusPending, model.BillingStatusOverdue}).
		Order("due_date ASC").
		Limit(smallPage).
		Find(&payments).Error
	return payments, err
}

// PendingCharges 运营侧未结账单（前 10），resellerID 为空时查询整个租户
func (r *BillingRepository) PendingCharges(ctx context.Context, tenantID, resellerID string) ([]model.Charge, error) {
	var charges []model.Charge
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status IN ?", tenantID,
			[]string{model.BillingStatusPending, model.BillingStatusOverdue})
	if resellerID != "" {
		query = query.Where("reseller_id = ?", resellerID)
	}
	err := query.Order("due_date ASC").Limit(largePage).Find(&charges).Error
	return charges, err
}

// OverdueCharges 逾期账单（前 10）
func (r *BillingRepository) OverdueCharges(ctx context.Context, tenantID, resellerID string) ([]model.Charge, error) {
	var charges []model.Charge
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, model.BillingStatusOverdue)
	if resellerID != "" {
		query = query.Where("reseller_id = ?", resellerID)
	}
	err := query.Order("due_date ASC").Limit(largePage).Find(&charges).Error
	return charges, err
}

// CountOverdueCharges 逾期账单数量
func (r *BillingRepository) CountOverdueCharges(ctx context.Context, tenantID, resellerID string) (int64, error) {
	var n int64
	query := r.db.WithContext(ctx).Model(&model.Charge{}).
		Where("tenant_id = ? AND status = ?", tenantID, model.BillingStatusOverdue)
	if resellerID != "" {
		query = query.Where("reseller_id = ?", resellerID)
	}
	err := query.Count(&n).Error
	return n, err
}

// SoonestExpiringService 最早到期的有效服务，没有时返回 nil
func (r *BillingRepository) SoonestExpiringService(ctx context.Context, tenantID, customerID string) (*model.CustomerService, error) {
	var item model.CustomerService
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ? AND status = ?", tenantID, customerID, model.ServiceStatusActive).
		Order("expires_at ASC").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Customers 客户列表（前 10）
func (r *BillingRepository) Customers(ctx context.Context, tenantID, resellerID, search string) ([]model.Customer, error) {
	var customers []model.Customer
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if resellerID != "" {
		query = query.Where("reseller_id = ?", resellerID)
	}
	if search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}
	err := query.Order("created_at DESC").Limit(largePage).Find(&customers).Error
	return customers, err
}

// Resellers 代理商列表（前 10）
func (r *BillingRepository) Resellers(ctx context.Context, tenantID, search string) ([]model.Reseller, error) {
	var resellers []model.Reseller
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}
	err := query.Order("created_at DESC").Limit(largePage).Find(&resellers).Error
	return resellers, err
}

// Stats 汇总统计，多个计数并行查询
func (r *BillingRepository) Stats(ctx context.Context, tenantID, resellerID string) (model.ContextStats, error) {
	var customers, pending, overdue, services int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q := r.db.WithContext(gctx).Model(&model.Customer{}).Where("tenant_id = ?", tenantID)
		if resellerID != "" {
			q = q.Where("reseller_id = ?", resellerID)
		}
		return q.Count(&customers).Error
	})
	g.Go(func() error {
		q := r.db.WithContext(gctx).Model(&model.Charge{}).
			Where("tenant_id = ? AND status = ?", tenantID, model.BillingStatusPending)
		if resellerID != "" {
			q = q.Where("reseller_id = ?", resellerID)
		}
		return q.Count(&pending).Error
	})
	g.Go(func() error {
		n, err := r.CountOverdueCharges(gctx, tenantID, resellerID)
		overdue = n
		return err
	})
	g.Go(func() error {
		return r.db.WithContext(gctx).Model(&model.CustomerService{}).
			Where("tenant_id = ? AND status = ?", tenantID, model.ServiceStatusActive).
			Count(&services).Error
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return model.ContextStats{
		"customers":       float64(customers),
		"pending_charges": float64(pending),
		"overdue_charges": float64(overdue),
		"active_services": float64(services),
	}, nil
}
