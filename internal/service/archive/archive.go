// Package archive 提供历史对话归档：最多保留 N 条，超过保留期的条目在读取时清理
package archive

import (
	"context"
	"errors"
	"time"

	"github.com/ashwinyue/next-assist/internal/model"
	"github.com/ashwinyue/next-assist/internal/pkg/zlog"
	"github.com/ashwinyue/next-assist/internal/service/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultLimit 归档条数上限
	DefaultLimit = 10
	// DefaultRetention 归档保留时长
	DefaultRetention = 7 * 24 * time.Hour
	// MinMessages 少于该条数的会话不归档
	MinMessages = 2
)

// ErrEntryNotFound 归档条目不存在
var ErrEntryNotFound = errors.New("archive entry not found")

// Service 归档服务
type Service struct {
	store     store.Store[store.Scope, []model.ArchiveEntry]
	limit     int
	retention time.Duration
	now       func() time.Time
}

// NewService 创建归档服务
func NewService(st store.Store[store.Scope, []model.ArchiveEntry], limit int, retention time.Duration) *Service {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Service{
		store:     st,
		limit:     limit,
		retention: retention,
		now:       time.Now,
	}
}

// WithClock 替换时钟（测试用）
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// List 读取归档，新的在前；解析失败视为空归档
func (s *Service) List(ctx context.Context, scope store.Scope) []model.ArchiveEntry {
	entries, err := s.store.Get(ctx, scope)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			zlog.Warn("archive read failed, treating as empty",
				zap.String("scope", scope.String()), zap.Error(err))
		}
		return []model.ArchiveEntry{}
	}

	kept := s.prune(entries)
	if len(kept) != len(entries) {
		if err := s.store.Set(ctx, scope, kept); err != nil {
			zlog.Warn("archive prune write failed",
				zap.String("scope", scope.String()), zap.Error(err))
		}
	}
	return kept
}

// Save 归档一段对话
// 消息少于 MinMessages 时不归档并返回 nil；同一 sessionID 只保留最新一条
func (s *Service) Save(ctx context.Context, scope store.Scope, sessionID *string, messages []model.Message) (*model.ArchiveEntry, error) {
	if len(messages) < MinMessages {
		return nil, nil
	}

	entry := model.ArchiveEntry{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Messages:  append([]model.Message(nil), messages...),
		Timestamp: s.now(),
	}

	existing := s.List(ctx, scope)
	next := make([]model.ArchiveEntry, 0, len(existing)+1)
	next = append(next, entry)
	for _, e := range existing {
		if sessionID != nil && e.SessionID != nil && *e.SessionID == *sessionID {
			// 保留原 ID，客户端持有的引用继续有效
			next[0].ID = e.ID
			continue
		}
		next = append(next, e)
	}
	if len(next) > s.limit {
		next = next[:s.limit]
	}

	if err := s.store.Set(ctx, scope, next); err != nil {
		return nil, err
	}
	return &next[0], nil
}

// Get 获取单条归档
func (s *Service) Get(ctx context.Context, scope store.Scope, id string) (*model.ArchiveEntry, error) {
	for _, e := range s.List(ctx, scope) {
		if e.ID == id {
			entry := e
			return &entry, nil
		}
	}
	return nil, ErrEntryNotFound
}

// Delete 删除单条归档
func (s *Service) Delete(ctx context.Context, scope store.Scope, id string) error {
	entries := s.List(ctx, scope)
	next := make([]model.ArchiveEntry, 0, len(entries))
	found := false
	for _, e := range entries {
		if e.ID == id {
			found = true
			continue
		}
		next = append(next, e)
	}
	if !found {
		return ErrEntryNotFound
	}
	return s.store.Set(ctx, scope, next)
}

func (s *Service) prune(entries []model.ArchiveEntry) []model.ArchiveEntry {
	cutoff := s.now().Add(-s.retention)
	kept := make([]model.ArchiveEntry, 0, len(entries))
	for _, e := range entries {
		if e.Timestamp.Before(cutoff) {
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) > s.limit {
		kept = kept[:s.limit]
	}
	return kept
}
