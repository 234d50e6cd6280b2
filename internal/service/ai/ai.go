// Package ai 提供 AI 协作者：会话开场与自由文本回复
package ai

import (
	"context"
	"errors"

	"github.com/ashwinyue/next-assist/internal/model"
)

// ErrDisabled 未配置模型或租户关闭了 AI
var ErrDisabled = errors.New("ai collaborator disabled")

// Caller 调用方标识
type Caller struct {
	TenantID string
	Role     model.RoleClass
	CallerID string
}

// InitReply 开场结果
type InitReply struct {
	Response    string
	MenuOptions []model.MenuOption // 模型未给出时为空
	Stats       model.ContextStats
}

// Attachment 附件描述（只传递给模型，不做解析）
type Attachment struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	URL      string `json:"url"`
}

// RespondRequest 自由文本请求
type RespondRequest struct {
	Caller
	SessionID  string
	Message    string
	History    []model.Message
	Attachment *Attachment
}

// RespondReply 自由文本回复，Action 非空时由调用方继续派发
type RespondReply struct {
	Response    string
	Action      *model.Action
	MenuOptions []model.MenuOption // 模型未给出时为空
	Stats       model.ContextStats
}

// Collaborator AI 协作者
type Collaborator interface {
	Init(ctx context.Context, caller Caller) (*InitReply, error)
	Respond(ctx context.Context, req RespondRequest) (*RespondReply, error)
}
