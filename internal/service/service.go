// Package service 组装助手引擎的各个服务
package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ashwinyue/next-assist/internal/config"
	"github.com/ashwinyue/next-assist/internal/model"
	"github.com/ashwinyue/next-assist/internal/pkg/zlog"
	"github.com/ashwinyue/next-assist/internal/repository"
	"github.com/ashwinyue/next-assist/internal/service/ai"
	"github.com/ashwinyue/next-assist/internal/service/analyzer"
	"github.com/ashwinyue/next-assist/internal/service/archive"
	"github.com/ashwinyue/next-assist/internal/service/assistant"
	"github.com/ashwinyue/next-assist/internal/service/callback"
	"github.com/ashwinyue/next-assist/internal/service/dispatch"
	"github.com/ashwinyue/next-assist/internal/service/feedback"
	"github.com/ashwinyue/next-assist/internal/service/intent"
	"github.com/ashwinyue/next-assist/internal/service/store"
	"github.com/ashwinyue/next-assist/internal/service/tenant"
)

// Services 服务集合
type Services struct {
	Config    *config.Config
	Assistant *assistant.Manager
	Archive   *archive.Service
	Feedback  *feedback.Service
	Analyzer  *analyzer.Analyzer
	Registry  *dispatch.Registry
	Tenant    *tenant.Service
	AI        ai.Collaborator
}

// NewServices 创建所有服务
// redisClient 为 nil 时缓冲区与归档使用进程内存储
func NewServices(ctx context.Context, repo *repository.Repositories, cfg *config.Config, redisClient *redis.Client) (*Services, error) {
	acfg := cfg.Assistant

	buffers, archives := newStores(redisClient, acfg.BufferTTL(), acfg.ArchiveRetention())

	chatModel, err := ai.NewChatModel(ctx, cfg.AI)
	if err != nil {
		zlog.Warn("failed to create chat model, ai collaborator disabled", zap.Error(err))
		chatModel = nil
	}
	var collaborator ai.Collaborator
	if chatModel != nil {
		collaborator = ai.NewLLMCollaborator(chatModel, repo.Billing, acfg.HistoryWindow,
			ai.WithCallbacks(callback.NewLogger(cfg.App.Debug)))
	}

	registry := dispatch.NewRegistry(repo.Billing)
	archiveSvc := archive.NewService(archives, acfg.ArchiveLimit, acfg.ArchiveRetention())
	feedbackSvc := feedback.NewService(repo.Feedback)
	analyzerSvc := analyzer.New(repo.Billing,
		analyzer.WithThreshold(acfg.AnomalyThreshold),
		analyzer.WithExpiringWindow(acfg.ExpiringWindow()),
	)

	manager := assistant.NewManager(assistant.Deps{
		Configs:    repo.Tenant,
		Sessions:   repo.Session,
		Buffers:    buffers,
		Archive:    archiveSvc,
		Registry:   registry,
		Classifier: intent.NewClassifier(intent.DefaultRules),
		AI:         collaborator,
		Analyzer:   analyzerSvc,
		Feedback:   feedbackSvc,
	}, assistant.Options{
		RestoreWindow: acfg.RestoreWindow(),
		FlushDelay:    acfg.FlushDelay(),
	})

	zlog.Info("assistant services initialized",
		zap.Bool("ai_enabled", collaborator != nil),
		zap.Bool("redis_store", redisClient != nil),
		zap.Int("actions", len(model.AllActionTypes)))

	return &Services{
		Config:    cfg,
		Assistant: manager,
		Archive:   archiveSvc,
		Feedback:  feedbackSvc,
		Analyzer:  analyzerSvc,
		Registry:  registry,
		Tenant:    tenant.NewService(repo.Tenant),
		AI:        collaborator,
	}, nil
}

// newStores 创建缓冲区与归档存储
func newStores(client *redis.Client, bufferTTL, archiveTTL time.Duration) (
	store.Store[store.Scope, model.ActiveBuffer],
	store.Store[store.Scope, []model.ArchiveEntry],
) {
	if client == nil {
		return store.NewMemoryStore[store.Scope, model.ActiveBuffer](),
			store.NewMemoryStore[store.Scope, []model.ArchiveEntry]()
	}
	return store.NewRedisStore[store.Scope, model.ActiveBuffer](client, store.BufferPrefix, bufferTTL),
		store.NewRedisStore[store.Scope, []model.ArchiveEntry](client, store.ArchivePrefix, archiveTTL)
}

// Close 落盘待写入的会话记录并等待后台任务结束
func (s *Services) Close(ctx context.Context) {
	s.Assistant.Close(ctx)
}
