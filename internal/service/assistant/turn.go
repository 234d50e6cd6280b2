package assistant

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/ashwinyue/next-assist/internal/model"
	"github.com/ashwinyue/next-assist/internal/pkg/zlog"
	"github.com/ashwinyue/next-assist/internal/service/ai"
	"github.com/ashwinyue/next-assist/internal/service/dispatch"
	"github.com/ashwinyue/next-assist/internal/service/store"
)

const (
	fallbackPrompt = "Não entendi bem. Escolha uma das opções abaixo para continuar."
	ackDone        = "Pronto! Sua solicitação foi executada."
	ackNavigate    = "Certo, abrindo a página solicitada."
)

// turn 一轮处理中累积的结果
type turn struct {
	start    int
	navigate string
	handoff  *dispatch.Handoff
}

// SendMessage 处理自由文本：优先交给 AI，AI 关闭或失败时使用关键词分类
func (m *Manager) SendMessage(ctx context.Context, scope store.Scope, text string, attachment *ai.Attachment) (*TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" && attachment == nil {
		return nil, ErrEmptyMessage
	}

	l := m.lane(scope)
	l.mu.Lock()
	defer l.mu.Unlock()

	sc := l.ctx
	if sc == nil {
		return nil, ErrNoActiveSession
	}

	t := &turn{start: len(sc.Messages)}
	history := append([]model.Message(nil), sc.Messages...)
	m.append(ctx, sc, m.userMessage(text))

	handled := false
	var aiErr error
	if sc.Config.AIEnabled && m.deps.AI != nil {
		reply, err := m.deps.AI.Respond(ctx, ai.RespondRequest{
			Caller: ai.Caller{
				TenantID: scope.TenantID,
				Role:     scope.Role,
				CallerID: scope.CallerID,
			},
			SessionID:  sc.durableID(),
			Message:    text,
			History:    history,
			Attachment: attachment,
		})
		if err != nil {
			if !errors.Is(err, ai.ErrDisabled) {
				aiErr = err
				zlog.Warn("ai respond failed, using fallback classifier",
					zap.String("scope", scope.String()),
					zap.String("kind", string(ai.ClassifyError(err))),
					zap.Error(err))
			}
		} else {
			handled = true
			if len(reply.Stats) > 0 {
				sc.Stats = reply.Stats
			}
			if reply.Response != "" {
				msg := m.botMessage(reply.Response)
				msg.MenuOptions = reply.MenuOptions
				m.append(ctx, sc, msg)
			}
			if reply.Action != nil {
				m.runAction(ctx, sc, t, *reply.Action, reply.Response == "")
			}
		}
	}

	if !handled {
		if in := m.deps.Classifier.Classify(text); in.Matched {
			m.runAction(ctx, sc, t, in.Action, true)
		} else {
			content := fallbackPrompt
			if aiErr != nil {
				content = ai.Apology(aiErr)
			}
			msg := m.botMessage(content)
			msg.MenuOptions = menuFor(sc.Config, scope.Role)
			m.append(ctx, sc, msg)
		}
	}

	return m.finishTurn(l, sc, t), nil
}

// HandleAction 处理快捷动作，label 非空时先追加一条用户消息
// 处理器没有产生回复时补一条确认消息，保证用户总能看到响应
func (m *Manager) HandleAction(ctx context.Context, scope store.Scope, action model.Action, label string) (*TurnResult, error) {
	if !action.Type.IsValid() {
		return nil, ErrInvalidAction
	}

	l := m.lane(scope)
	l.mu.Lock()
	defer l.mu.Unlock()

	sc := l.ctx
	if sc == nil {
		return nil, ErrNoActiveSession
	}

	t := &turn{start: len(sc.Messages)}
	if label = strings.TrimSpace(label); label != "" {
		msg := m.userMessage(label)
		a := action
		msg.Action = &a
		m.append(ctx, sc, msg)
	}

	m.runAction(ctx, sc, t, action, true)
	return m.finishTurn(l, sc, t), nil
}

// runAction 派发动作并追加结果；处理器出错时追加按错误类型分类的致歉消息
func (m *Manager) runAction(ctx context.Context, sc *SessionContext, t *turn, action model.Action, ack bool) {
	env := dispatch.Env{
		TenantID: sc.Scope.TenantID,
		CallerID: sc.Scope.CallerID,
		Role:     sc.Scope.Role,
		Config:   sc.Config,
		Stats:    sc.Stats,
	}

	res, err := m.deps.Registry.Dispatch(ctx, env, action)
	if err != nil {
		zlog.Error("action failed",
			zap.String("scope", sc.Scope.String()),
			zap.String("action", string(action.Type)),
			zap.Error(err))
		msg := m.botMessage(ai.Apology(err))
		msg.MenuOptions = menuFor(sc.Config, sc.Scope.Role)
		m.append(ctx, sc, msg)
		return
	}

	if m.deps.Registry.IsNonCritical(action.Type) {
		sc.UsageCount++
	}
	if res.TransferredToHuman {
		sc.TransferredToHuman = true
	}
	if res.Navigate != "" {
		t.navigate = res.Navigate
	}
	if res.Handoff != nil {
		t.handoff = res.Handoff
	}

	msgs := res.Messages
	if !res.Produced() {
		if !ack {
			return
		}
		content := ackDone
		if res.Navigate != "" {
			content = ackNavigate
		}
		msgs = []model.Message{m.botMessage(content)}
	}

	if msgs[0].Action == nil {
		a := action
		msgs[0].Action = &a
	}
	m.append(ctx, sc, msgs...)
}

// finishTurn 触发后台分析与延迟写入，返回本轮追加的消息
func (m *Manager) finishTurn(l *lane, sc *SessionContext, t *turn) *TurnResult {
	m.triggerAnalysis(sc)
	m.scheduleFlush(l, sc)

	return &TurnResult{
		Messages: append([]model.Message(nil), sc.Messages[t.start:]...),
		Navigate: t.navigate,
		Handoff:  t.handoff,
		Alerts:   m.deps.Analyzer.Alerts(sc.Scope),
	}
}
