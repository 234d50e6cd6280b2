package assistant

import (
	"errors"
	"time"

	"github.com/ashwinyue/next-assist/internal/model"
	"github.com/ashwinyue/next-assist/internal/service/dispatch"
	"github.com/ashwinyue/next-assist/internal/service/store"
)

var (
	// ErrAssistantUnavailable 租户不存在或关闭了助手
	ErrAssistantUnavailable = errors.New("assistant unavailable for tenant")
	// ErrNoActiveSession 作用域下没有活跃会话
	ErrNoActiveSession = errors.New("no active session")
	// ErrEmptyMessage 空消息
	ErrEmptyMessage = errors.New("empty message")
	// ErrInvalidAction 未知动作类型
	ErrInvalidAction = errors.New("invalid action")
)

// SessionContext 单个作用域的会话状态，只由 Manager 在车道锁内修改
type SessionContext struct {
	Scope              store.Scope
	SessionID          *string
	Status             model.SessionStatus
	StartedAt          time.Time
	Messages           []model.Message
	Config             model.AssistantConfig
	Stats              model.ContextStats
	TransferredToHuman bool
	// UsageCount 非关键动作的使用次数，作为执行模式的偏好信号
	UsageCount int
}

// durableID 持久化记录 ID，未创建时为空
func (s *SessionContext) durableID() string {
	if s.SessionID == nil {
		return ""
	}
	return *s.SessionID
}

// lastActivity 最后一条消息时间
func (s *SessionContext) lastActivity() time.Time {
	if len(s.Messages) == 0 {
		return time.Time{}
	}
	return s.Messages[len(s.Messages)-1].Timestamp
}

// resolvedByAI 没有请求过人工即视为 AI 解决
func (s *SessionContext) resolvedByAI() bool {
	for _, m := range s.Messages {
		if m.Action == nil {
			continue
		}
		if m.Action.Type == model.ActionTransferHuman || m.Action.Type == model.ActionRequestHelp {
			return false
		}
	}
	return true
}

// Snapshot 会话的只读视图
type Snapshot struct {
	SessionID     *string             `json:"session_id,omitempty"`
	Status        model.SessionStatus `json:"status"`
	Role          model.RoleClass     `json:"role"`
	StartedAt     time.Time           `json:"started_at"`
	Messages      []model.Message     `json:"messages"`
	MenuOptions   []model.MenuOption  `json:"menu_options"`
	Alerts        []string            `json:"alerts"`
	Stats         model.ContextStats  `json:"stats,omitempty"`
	ExecutiveMode bool                `json:"executive_mode"`
	Restored      bool                `json:"restored"`
}

// TurnResult 一次发送或动作的结果
type TurnResult struct {
	// Messages 本轮追加的消息
	Messages []model.Message   `json:"messages"`
	Navigate string            `json:"navigate,omitempty"`
	Handoff  *dispatch.Handoff `json:"handoff,omitempty"`
	Alerts   []string          `json:"alerts"`
}
