package assistant

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ashwinyue/next-assist/internal/model"
	"github.com/ashwinyue/next-assist/internal/pkg/zlog"
)

const flushTimeout = 10 * time.Second

// flushSnapshot 待写入持久化记录的会话副本
type flushSnapshot struct {
	sessionID          string
	messages           model.MessageList
	stats              model.ContextStats
	transferredToHuman bool
}

func newFlushSnapshot(sc *SessionContext) *flushSnapshot {
	return &flushSnapshot{
		sessionID:          sc.durableID(),
		messages:           append(model.MessageList(nil), sc.Messages...),
		stats:              sc.Stats,
		transferredToHuman: sc.TransferredToHuman,
	}
}

// scheduleFlush 延迟写入持久化记录，延迟内的多次追加合并为一次写入
func (m *Manager) scheduleFlush(l *lane, sc *SessionContext) {
	if sc.durableID() == "" {
		return
	}

	l.pendMu.Lock()
	defer l.pendMu.Unlock()

	l.pending = newFlushSnapshot(sc)
	if l.timer != nil {
		l.timer.Stop()
	}
	l.timer = time.AfterFunc(m.opts.FlushDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		m.flushNow(ctx, l)
	})
}

// cancelFlush 取消待写入的内容
func (m *Manager) cancelFlush(l *lane) {
	l.pendMu.Lock()
	defer l.pendMu.Unlock()
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.pending = nil
}

// flushNow 立即写入待写入的内容
// 写入串行执行，每次取最新的副本，旧副本不会覆盖新副本
func (m *Manager) flushNow(ctx context.Context, l *lane) {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.pendMu.Lock()
	snap := l.pending
	l.pending = nil
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.pendMu.Unlock()

	if snap == nil {
		return
	}
	m.write(ctx, snap)
}

// writeDurable 同步写入给定副本
func (m *Manager) writeDurable(ctx context.Context, l *lane, snap *flushSnapshot) {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	m.write(ctx, snap)
}

func (m *Manager) write(ctx context.Context, snap *flushSnapshot) {
	if snap.sessionID == "" {
		return
	}
	updates := map[string]any{
		"messages":             snap.messages,
		"message_count":        len(snap.messages),
		"transferred_to_human": snap.transferredToHuman,
	}
	if len(snap.stats) > 0 {
		updates["stats"] = snap.stats
	}
	if err := m.deps.Sessions.Update(ctx, snap.sessionID, updates); err != nil {
		zlog.Warn("flush durable session failed", zap.String("session_id", snap.sessionID), zap.Error(err))
	}
}
