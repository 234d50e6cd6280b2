package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionStatus 会话状态
type SessionStatus string

const (
	SessionStatusActive SessionStatus = "active"
	SessionStatusEnded  SessionStatus = "ended"
)

// AssistantSession 助手会话的持久化记录，用于审计和评分
type AssistantSession struct {
	ID                 string        `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID           string        `json:"tenant_id" gorm:"type:varchar(36);index;not null"`
	RoleClass          RoleClass     `json:"role_class" gorm:"type:varchar(20);index"`
	CallerID           string        `json:"caller_id" gorm:"type:varchar(64);index"`
	Status             SessionStatus `json:"status" gorm:"type:varchar(20);index;default:'active'"`
	StartedAt          time.Time     `json:"started_at"`
	EndedAt            *time.Time    `json:"ended_at,omitempty"`
	TransferredToHuman bool          `json:"transferred_to_human" gorm:"default:false"`
	ResolvedByAI       *bool         `json:"resolved_by_ai,omitempty"`
	Rating             *bool         `json:"rating,omitempty"`
	Messages           MessageList   `json:"messages" gorm:"type:jsonb"`
	MessageCount       int           `json:"message_count" gorm:"default:0"`
	Stats              ContextStats  `json:"stats,omitempty" gorm:"type:jsonb"`
	CreatedAt          time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// BeforeCreate GORM 钩子，创建前生成 UUID
func (s *AssistantSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (AssistantSession) TableName() string {
	return "assistant_sessions"
}

// AssistantFeedback 会话评分记录
type AssistantFeedback struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	SessionID string    `json:"session_id" gorm:"type:varchar(36);index;not null"`
	TenantID  string    `json:"tenant_id" gorm:"type:varchar(36);index;not null"`
	MessageID *string   `json:"message_id,omitempty" gorm:"type:varchar(36)"`
	Rating    bool      `json:"rating"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate GORM 钩子
func (f *AssistantFeedback) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (AssistantFeedback) TableName() string {
	return "assistant_feedback"
}
