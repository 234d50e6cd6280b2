package repository

import (
	"context"

	"github.com/ashwinyue/next-assist/internal/model"
	"gorm.io/gorm"
)

// SessionRepository 助手会话持久化记录
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建会话仓库
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create 创建会话记录
func (r *SessionRepository) Create(ctx context.Context, session *model.AssistantSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// GetByID 获取会话记录
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*model.AssistantSession, error) {
	var session model.AssistantSession
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Update 按字段更新会话记录，只写入 updates 中的列
func (r *SessionRepository) Update(ctx context.Context, id string, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&model.AssistantSession{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ListByTenant 列出租户的会话记录
func (r *SessionRepository) ListByTenant(ctx context.Context, tenantID string, offset, limit int) ([]*model.AssistantSession, error) {
	var sessions []*model.AssistantSession
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("started_at DESC").
		Offset(offset).Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

// FeedbackRepository 评分记录
type FeedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository 创建评分仓库
func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create 写入评分，同时更新会话上的 rating
func (r *FeedbackRepository) Create(ctx context.Context, fb *model.AssistantFeedback) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(fb).Error; err != nil {
			return err
		}
		return tx.Model(&model.AssistantSession{}).
			Where("id = ?", fb.SessionID).
			Update("rating", fb.Rating).Error
	})
}

// ListBySession 获取会话的评分
func (r *FeedbackRepository) ListBySession(ctx context.Context, sessionID string) ([]*model.AssistantFeedback, error) {
	var list []*model.AssistantFeedback
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}
