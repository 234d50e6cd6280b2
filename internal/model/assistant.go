// Package model 提供助手会话相关的数据模型
package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// RoleClass 调用方能力等级
type RoleClass string

const (
	RoleMaster   RoleClass = "master"   // 平台管理员
	RoleAdm      RoleClass = "adm"      // 租户管理员
	RoleReseller RoleClass = "reseller" // 代理商
	RoleCustomer RoleClass = "customer" // 终端客户
)

// AllRoleClasses 所有角色等级
var AllRoleClasses = []RoleClass{RoleMaster, RoleAdm, RoleReseller, RoleCustomer}

// IsOperator 是否为运营侧角色
func (r RoleClass) IsOperator() bool {
	return r == RoleMaster || r == RoleAdm || r == RoleReseller
}

// MessageRole 消息发送方
type MessageRole string

const (
	MessageRoleBot  MessageRole = "bot"
	MessageRoleUser MessageRole = "user"
)

// MenuOption 快捷菜单项
type MenuOption struct {
	ID     string     `json:"id"`
	Label  string     `json:"label"`
	Action ActionType `json:"action"`
}

// RichContentType 富内容类型
type RichContentType string

const (
	RichServices     RichContentType = "services"
	RichCharges      RichContentType = "charges"
	RichPlans        RichContentType = "plans"
	RichCustomers    RichContentType = "customers"
	RichResellers    RichContentType = "resellers"
	RichMetrics      RichContentType = "metrics"
	RichConfirmation RichContentType = "confirmation"
)

// RichContent 富内容，Data 由展示层解释
type RichContent struct {
	Type RichContentType `json:"type"`
	Data []any           `json:"data"`
}

// Message 会话中的一轮消息，追加后不可修改
type Message struct {
	ID             string       `json:"id"`
	Role           MessageRole  `json:"role"`
	Content        string       `json:"content"`
	Timestamp      time.Time    `json:"timestamp"`
	MenuOptions    []MenuOption `json:"menu_options,omitempty"`
	Action         *Action      `json:"action,omitempty"`
	RichContent    *RichContent `json:"rich_content,omitempty"`
	Suggestions    []string     `json:"suggestions,omitempty"`
	IsWelcome      bool         `json:"is_welcome,omitempty"`
	AutoExecutable bool         `json:"auto_executable,omitempty"`
}

// MessageList 消息列表（JSON 列）
type MessageList []Message

// Value 实现 driver.Valuer 接口
func (l MessageList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]Message{})
	}
	return json.Marshal(l)
}

// Scan 实现 sql.Scanner 接口
func (l *MessageList) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return nil
	}
	return json.Unmarshal(b, l)
}

// ContextStats AI 上下文步骤给出的统计数据
type ContextStats map[string]float64

// Value 实现 driver.Valuer 接口
func (s ContextStats) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan 实现 sql.Scanner 接口
func (s *ContextStats) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(b, s)
}

// PendingAction 待处理事项
type PendingAction struct {
	Type    string `json:"type"`
	Count   int    `json:"count"`
	Message string `json:"message"`
}

// ProactiveAnalysis 后台分析结果，不持久化
type ProactiveAnalysis struct {
	PendingActions []PendingAction `json:"pending_actions"`
	Suggestions    []string        `json:"suggestions"`
	Alerts         []string        `json:"alerts"`
}

// MaxProactiveAlerts 展示给用户的主动提醒上限
const MaxProactiveAlerts = 3

// Merged 按 建议、告警、待办 的顺序合并，最多 MaxProactiveAlerts 条
func (p ProactiveAnalysis) Merged() []string {
	out := make([]string, 0, MaxProactiveAlerts)
	out = append(out, p.Suggestions...)
	out = append(out, p.Alerts...)
	for _, pa := range p.PendingActions {
		out = append(out, pa.Message)
	}
	if len(out) > MaxProactiveAlerts {
		out = out[:MaxProactiveAlerts]
	}
	return out
}

// ArchiveEntry 归档的历史对话
type ArchiveEntry struct {
	ID        string    `json:"id"`
	SessionID *string   `json:"session_id,omitempty"`
	Messages  []Message `json:"messages"`
	Timestamp time.Time `json:"timestamp"`
}

// ActiveBuffer 当前会话缓冲区
type ActiveBuffer struct {
	Messages  []Message `json:"messages"`
	SessionID *string   `json:"session_id,omitempty"`
}
