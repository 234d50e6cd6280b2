// Package assistant 会话管理：会话的创建、恢复、结束与清空，协调派发、分析与归档
package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ashwinyue/next-assist/internal/model"
	"github.com/ashwinyue/next-assist/internal/pkg/zlog"
	"github.com/ashwinyue/next-assist/internal/repository"
	"github.com/ashwinyue/next-assist/internal/service/ai"
	"github.com/ashwinyue/next-assist/internal/service/analyzer"
	"github.com/ashwinyue/next-assist/internal/service/archive"
	"github.com/ashwinyue/next-assist/internal/service/catalog"
	"github.com/ashwinyue/next-assist/internal/service/dispatch"
	"github.com/ashwinyue/next-assist/internal/service/feedback"
	"github.com/ashwinyue/next-assist/internal/service/intent"
	"github.com/ashwinyue/next-assist/internal/service/store"
)

const (
	// DefaultRestoreWindow 超过该时长未活动的缓冲区不再恢复
	DefaultRestoreWindow = 24 * time.Hour
	// DefaultFlushDelay 持久化记录的合并写入延迟
	DefaultFlushDelay = 1500 * time.Millisecond
	// DefaultWelcomeMessage 租户未配置时的欢迎语
	DefaultWelcomeMessage = "Olá! Sou seu assistente virtual. Como posso ajudar?"
)

// Options 会话管理参数
type Options struct {
	RestoreWindow time.Duration
	FlushDelay    time.Duration
}

// Deps 会话管理依赖
type Deps struct {
	Configs    repository.AssistantConfigReader
	Sessions   repository.SessionRecordRepository
	Buffers    store.Store[store.Scope, model.ActiveBuffer]
	Archive    *archive.Service
	Registry   *dispatch.Registry
	Classifier *intent.Classifier
	AI         ai.Collaborator // 可为 nil
	Analyzer   *analyzer.Analyzer
	Feedback   *feedback.Service
}

// lane 每个作用域一条车道，车道内的操作严格串行
type lane struct {
	mu  sync.Mutex
	ctx *SessionContext

	pendMu  sync.Mutex
	pending *flushSnapshot
	timer   *time.Timer

	writeMu sync.Mutex
}

// Manager 会话管理器
type Manager struct {
	deps Deps
	opts Options
	now  func() time.Time

	mu    sync.Mutex
	lanes map[store.Scope]*lane
}

// NewManager 创建会话管理器
func NewManager(deps Deps, opts Options) *Manager {
	if opts.RestoreWindow <= 0 {
		opts.RestoreWindow = DefaultRestoreWindow
	}
	if opts.FlushDelay <= 0 {
		opts.FlushDelay = DefaultFlushDelay
	}
	return &Manager{
		deps:  deps,
		opts:  opts,
		now:   time.Now,
		lanes: make(map[store.Scope]*lane),
	}
}

// WithClock 替换时钟（测试用）
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// lane 获取作用域的车道
func (m *Manager) lane(scope store.Scope) *lane {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lanes[scope]
	if !ok {
		l = &lane{}
		m.lanes[scope] = l
	}
	return l
}

// loadConfig 读取租户配置并补齐默认值
func (m *Manager) loadConfig(ctx context.Context, tenantID string) (model.AssistantConfig, error) {
	cfg, err := m.deps.Configs.GetAssistantConfig(ctx, tenantID)
	if err != nil {
		return model.AssistantConfig{}, fmt.Errorf("load assistant config: %w", err)
	}
	if cfg == nil || !cfg.IsActive {
		return model.AssistantConfig{}, ErrAssistantUnavailable
	}

	out := *cfg
	if out.WelcomeMessage == "" {
		out.WelcomeMessage = DefaultWelcomeMessage
	}
	if out.BusinessHours == "" {
		out.BusinessHours = dispatch.DefaultBusinessHours
	}
	out.MenuOptions = append([]model.MenuOption(nil), cfg.MenuOptions...)
	return out, nil
}

// menuFor 租户自定义菜单优先，否则使用角色菜单
func menuFor(cfg model.AssistantConfig, role model.RoleClass) []model.MenuOption {
	if len(cfg.MenuOptions) > 0 {
		return append([]model.MenuOption(nil), cfg.MenuOptions...)
	}
	return catalog.MenuFor(role)
}

// StartSession 开始会话；已有活跃会话或可恢复的缓冲区时直接返回
func (m *Manager) StartSession(ctx context.Context, scope store.Scope) (*Snapshot, error) {
	l := m.lane(scope)
	l.mu.Lock()
	defer l.mu.Unlock()

	cfg, err := m.loadConfig(ctx, scope.TenantID)
	if err != nil {
		return nil, err
	}

	if l.ctx != nil && len(l.ctx.Messages) > 0 {
		l.ctx.Config = cfg
		return m.snapshot(l.ctx, false), nil
	}

	if sc := m.restore(ctx, scope, cfg); sc != nil {
		l.ctx = sc
		m.triggerAnalysis(sc)
		return m.snapshot(sc, true), nil
	}

	sc := &SessionContext{
		Scope:     scope,
		Status:    model.SessionStatusActive,
		StartedAt: m.now(),
		Config:    cfg,
	}
	l.ctx = sc

	welcome := m.welcome(ctx, sc)
	m.append(ctx, sc, welcome)

	record := &model.AssistantSession{
		TenantID:     scope.TenantID,
		RoleClass:    scope.Role,
		CallerID:     scope.CallerID,
		Status:       model.SessionStatusActive,
		StartedAt:    sc.StartedAt,
		Messages:     model.MessageList(sc.Messages),
		MessageCount: len(sc.Messages),
		Stats:        sc.Stats,
	}
	if err := m.deps.Sessions.Create(ctx, record); err != nil {
		zlog.Warn("create durable session failed, continuing in memory",
			zap.String("scope", scope.String()), zap.Error(err))
	} else {
		id := record.ID
		sc.SessionID = &id
		m.persist(ctx, sc)
	}

	zlog.Info("assistant session started",
		zap.String("scope", scope.String()),
		zap.String("session_id", sc.durableID()))

	m.triggerAnalysis(sc)
	return m.snapshot(sc, false), nil
}

// welcome 构造欢迎消息；AI 开场失败时回退到租户静态配置
func (m *Manager) welcome(ctx context.Context, sc *SessionContext) model.Message {
	text := sc.Config.WelcomeMessage
	menu := menuFor(sc.Config, sc.Scope.Role)

	if sc.Config.AIEnabled && m.deps.AI != nil {
		reply, err := m.deps.AI.Init(ctx, ai.Caller{
			TenantID: sc.Scope.TenantID,
			Role:     sc.Scope.Role,
			CallerID: sc.Scope.CallerID,
		})
		switch {
		case err != nil:
			if !errors.Is(err, ai.ErrDisabled) {
				zlog.Warn("ai init failed, using static welcome",
					zap.String("scope", sc.Scope.String()), zap.Error(err))
			}
		case reply != nil && reply.Response != "":
			text = reply.Response
			if len(reply.MenuOptions) > 0 {
				menu = reply.MenuOptions
			}
			sc.Stats = reply.Stats
		}
	}

	msg := m.botMessage(text)
	msg.MenuOptions = menu
	msg.IsWelcome = true
	return msg
}

// RestoreFromStore 从缓冲区恢复会话，返回是否恢复成功
func (m *Manager) RestoreFromStore(ctx context.Context, scope store.Scope) (bool, error) {
	l := m.lane(scope)
	l.mu.Lock()
	defer l.mu.Unlock()

	cfg, err := m.loadConfig(ctx, scope.TenantID)
	if err != nil {
		return false, err
	}
	sc := m.restore(ctx, scope, cfg)
	if sc == nil {
		return false, nil
	}
	l.ctx = sc
	return true, nil
}

// restore 读取缓冲区，最后一条消息超过恢复窗口时丢弃
func (m *Manager) restore(ctx context.Context, scope store.Scope, cfg model.AssistantConfig) *SessionContext {
	buf, err := m.deps.Buffers.Get(ctx, scope)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			zlog.Warn("read active buffer failed", zap.String("scope", scope.String()), zap.Error(err))
		}
		return nil
	}
	if len(buf.Messages) == 0 {
		return nil
	}

	sc := &SessionContext{
		Scope:     scope,
		SessionID: buf.SessionID,
		Status:    model.SessionStatusActive,
		StartedAt: buf.Messages[0].Timestamp,
		Messages:  buf.Messages,
		Config:    cfg,
	}
	if m.now().Sub(sc.lastActivity()) >= m.opts.RestoreWindow {
		zlog.Debug("active buffer expired, cold start", zap.String("scope", scope.String()))
		return nil
	}
	return sc
}

// EndSession 结束会话：先归档，再更新持久化记录，最后清空缓冲区
func (m *Manager) EndSession(ctx context.Context, scope store.Scope) error {
	l := m.lane(scope)
	l.mu.Lock()
	defer l.mu.Unlock()

	sc := m.current(ctx, l, scope)
	if sc == nil {
		return ErrNoActiveSession
	}
	l.ctx = sc

	m.cancelFlush(l)
	m.archiveCurrent(ctx, sc)

	if id := sc.durableID(); id != "" {
		updates := map[string]any{
			"status":               model.SessionStatusEnded,
			"ended_at":             m.now(),
			"resolved_by_ai":       sc.resolvedByAI(),
			"transferred_to_human": sc.TransferredToHuman,
			"messages":             model.MessageList(sc.Messages),
			"message_count":        len(sc.Messages),
		}
		if err := m.deps.Sessions.Update(ctx, id, updates); err != nil {
			zlog.Warn("end durable session failed", zap.String("session_id", id), zap.Error(err))
		}
	}

	m.reset(ctx, l)
	zlog.Info("assistant session ended", zap.String("scope", scope.String()), zap.String("session_id", sc.durableID()))
	return nil
}

// ClearCurrentConversation 归档并清空当前对话，不标记持久化记录为结束
func (m *Manager) ClearCurrentConversation(ctx context.Context, scope store.Scope) error {
	l := m.lane(scope)
	l.mu.Lock()
	defer l.mu.Unlock()

	if sc := m.current(ctx, l, scope); sc != nil {
		l.ctx = sc
		m.cancelFlush(l)
		m.archiveCurrent(ctx, sc)
		m.writeDurable(ctx, l, newFlushSnapshot(sc))
	}

	m.reset(ctx, l)
	return nil
}

// LoadConversation 用归档条目替换当前对话，当前对话先归档
func (m *Manager) LoadConversation(ctx context.Context, scope store.Scope, archiveID string) (*Snapshot, error) {
	l := m.lane(scope)
	l.mu.Lock()
	defer l.mu.Unlock()

	cfg, err := m.loadConfig(ctx, scope.TenantID)
	if err != nil {
		return nil, err
	}

	entry, err := m.deps.Archive.Get(ctx, scope, archiveID)
	if err != nil {
		return nil, err
	}

	if cur := m.current(ctx, l, scope); cur != nil {
		m.cancelFlush(l)
		m.archiveCurrent(ctx, cur)
		m.writeDurable(ctx, l, newFlushSnapshot(cur))
	}

	msgs := append([]model.Message(nil), entry.Messages...)
	sc := &SessionContext{
		Scope:     scope,
		SessionID: entry.SessionID,
		Status:    model.SessionStatusActive,
		Messages:  msgs,
		Config:    cfg,
	}
	if len(msgs) > 0 {
		sc.StartedAt = msgs[0].Timestamp
	}
	l.ctx = sc
	m.persist(ctx, sc)
	m.deps.Analyzer.Forget(scope)
	m.triggerAnalysis(sc)

	return m.snapshot(sc, true), nil
}

// GetSnapshot 当前会话快照，内存中没有时尝试从缓冲区恢复
func (m *Manager) GetSnapshot(ctx context.Context, scope store.Scope) (*Snapshot, error) {
	l := m.lane(scope)
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ctx != nil {
		return m.snapshot(l.ctx, false), nil
	}

	cfg, err := m.loadConfig(ctx, scope.TenantID)
	if err != nil {
		return nil, err
	}
	sc := m.restore(ctx, scope, cfg)
	if sc == nil {
		return nil, ErrNoActiveSession
	}
	l.ctx = sc
	return m.snapshot(sc, true), nil
}

// RateMessage 对当前会话评分
func (m *Manager) RateMessage(ctx context.Context, scope store.Scope, rating bool, messageID *string) error {
	l := m.lane(scope)
	l.mu.Lock()
	sessionID := ""
	if l.ctx != nil {
		sessionID = l.ctx.durableID()
	}
	l.mu.Unlock()

	_, err := m.deps.Feedback.Record(ctx, sessionID, scope.TenantID, rating, messageID)
	return err
}

// ListArchive 历史对话列表
func (m *Manager) ListArchive(ctx context.Context, scope store.Scope) []model.ArchiveEntry {
	return m.deps.Archive.List(ctx, scope)
}

// GetArchive 读取单条历史对话
func (m *Manager) GetArchive(ctx context.Context, scope store.Scope, id string) (*model.ArchiveEntry, error) {
	return m.deps.Archive.Get(ctx, scope, id)
}

// DeleteArchive 删除单条历史对话
func (m *Manager) DeleteArchive(ctx context.Context, scope store.Scope, id string) error {
	return m.deps.Archive.Delete(ctx, scope, id)
}

// Close 停止所有延迟写入并立即落盘，等待后台分析结束
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	lanes := make([]*lane, 0, len(m.lanes))
	for _, l := range m.lanes {
		lanes = append(lanes, l)
	}
	m.mu.Unlock()

	for _, l := range lanes {
		m.flushNow(ctx, l)
	}
	m.deps.Analyzer.Wait()
}

// current 内存中的会话，没有时读取缓冲区（进程重启后缓冲区仍需归档）
func (m *Manager) current(ctx context.Context, l *lane, scope store.Scope) *SessionContext {
	if l.ctx != nil {
		return l.ctx
	}
	return m.restoreAny(ctx, scope)
}

// restoreAny 读取缓冲区，不检查恢复窗口（清空时也要归档过期对话）
func (m *Manager) restoreAny(ctx context.Context, scope store.Scope) *SessionContext {
	buf, err := m.deps.Buffers.Get(ctx, scope)
	if err != nil || len(buf.Messages) == 0 {
		return nil
	}
	return &SessionContext{
		Scope:     scope,
		SessionID: buf.SessionID,
		Status:    model.SessionStatusActive,
		Messages:  buf.Messages,
	}
}

// archiveCurrent 两条以上消息时写入归档，失败只记录警告
func (m *Manager) archiveCurrent(ctx context.Context, sc *SessionContext) {
	if len(sc.Messages) < archive.MinMessages {
		return
	}
	if _, err := m.deps.Archive.Save(ctx, sc.Scope, sc.SessionID, sc.Messages); err != nil {
		zlog.Warn("archive conversation failed", zap.String("scope", sc.Scope.String()), zap.Error(err))
	}
}

// reset 清空缓冲区与内存状态
func (m *Manager) reset(ctx context.Context, l *lane) {
	if l.ctx != nil {
		scope := l.ctx.Scope
		if err := m.deps.Buffers.Delete(ctx, scope); err != nil {
			zlog.Warn("clear active buffer failed", zap.String("scope", scope.String()), zap.Error(err))
		}
		m.deps.Analyzer.Forget(scope)
	}
	l.ctx = nil
}

// append 追加消息并持久化缓冲区
func (m *Manager) append(ctx context.Context, sc *SessionContext, msgs ...model.Message) {
	if len(msgs) == 0 {
		return
	}
	sc.Messages = append(sc.Messages, msgs...)
	m.persist(ctx, sc)
}

// persist 写入缓冲区，失败只记录警告
func (m *Manager) persist(ctx context.Context, sc *SessionContext) {
	buf := model.ActiveBuffer{Messages: sc.Messages, SessionID: sc.SessionID}
	if err := m.deps.Buffers.Set(ctx, sc.Scope, buf); err != nil {
		zlog.Warn("persist active buffer failed", zap.String("scope", sc.Scope.String()), zap.Error(err))
	}
}

func (m *Manager) triggerAnalysis(sc *SessionContext) {
	m.deps.Analyzer.Trigger(analyzer.Input{
		Scope:         sc.Scope,
		Messages:      sc.Messages,
		ExecutiveMode: sc.Config.ExecutiveMode,
		UsageCount:    sc.UsageCount,
	})
}

func (m *Manager) snapshot(sc *SessionContext, restored bool) *Snapshot {
	return &Snapshot{
		SessionID:     sc.SessionID,
		Status:        sc.Status,
		Role:          sc.Scope.Role,
		StartedAt:     sc.StartedAt,
		Messages:      append([]model.Message(nil), sc.Messages...),
		MenuOptions:   menuFor(sc.Config, sc.Scope.Role),
		Alerts:        m.deps.Analyzer.Alerts(sc.Scope),
		Stats:         sc.Stats,
		ExecutiveMode: sc.Config.ExecutiveMode,
		Restored:      restored,
	}
}

func (m *Manager) botMessage(content string) model.Message {
	return model.Message{
		ID:        uuid.New().String(),
		Role:      model.MessageRoleBot,
		Content:   content,
		Timestamp: m.now(),
	}
}

func (m *Manager) userMessage(content string) model.Message {
	return model.Message{
		ID:        uuid.New().String(),
		Role:      model.MessageRoleUser,
		Content:   content,
		Timestamp: m.now(),
	}
}
