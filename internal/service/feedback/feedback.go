// Package feedback 记录会话评分
package feedback

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ashwinyue/next-assist/internal/model"
	"github.com/ashwinyue/next-assist/internal/pkg/zlog"
	"github.com/ashwinyue/next-assist/internal/repository"
)

// ErrNoDurableSession 会话尚未持久化，无法评分
var ErrNoDurableSession = errors.New("no durable session to rate")

// Service 评分服务
type Service struct {
	repo repository.FeedbackWriter
}

// NewService 创建评分服务
func NewService(repo repository.FeedbackWriter) *Service {
	return &Service{repo: repo}
}

// Record 写入评分并更新会话上的 rating，messageID 可为空
func (s *Service) Record(ctx context.Context, sessionID, tenantID string, rating bool, messageID *string) (*model.AssistantFeedback, error) {
	if sessionID == "" {
		return nil, ErrNoDurableSession
	}

	fb := &model.AssistantFeedback{
		SessionID: sessionID,
		TenantID:  tenantID,
		MessageID: messageID,
		Rating:    rating,
	}
	if err := s.repo.Create(ctx, fb); err != nil {
		return nil, fmt.Errorf("record feedback: %w", err)
	}

	zlog.Info("feedback recorded",
		zap.String("session_id", sessionID),
		zap.String("tenant_id", tenantID),
		zap.Bool("rating", rating))
	return fb, nil
}
