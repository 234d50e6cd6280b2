// Package model 提供租户相关的数据模型
package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant 租户
type Tenant struct {
	ID          string `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name        string `json:"name" gorm:"type:varchar(255);not null"`
	Description string `json:"description" gorm:"type:text"`
	Status      string `json:"status" gorm:"type:varchar(50);default:'active'"`
	Business    string `json:"business" gorm:"type:varchar(255)"`

	// 配置字段（JSON）
	AssistantConfig *AssistantConfig `json:"assistant_config,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate GORM 钩子
func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (Tenant) TableName() string {
	return "tenants"
}

// AssistantConfig 租户的助手配置
type AssistantConfig struct {
	WelcomeMessage string       `json:"welcome_message"`
	MenuOptions    []MenuOption `json:"menu_options,omitempty"`
	BusinessHours  string       `json:"business_hours"`
	WhatsappNumber string       `json:"whatsapp_number"`
	IsActive       bool         `json:"is_active"`
	AIEnabled      bool         `json:"ai_enabled"`
	ExecutiveMode  bool         `json:"executive_mode"`
}

// DefaultAssistantConfig 租户存在但未配置助手时使用的默认配置
func DefaultAssistantConfig() *AssistantConfig {
	return &AssistantConfig{IsActive: true, AIEnabled: true}
}

// Value 实现 driver.Valuer for AssistantConfig
func (c *AssistantConfig) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	return json.Marshal(c)
}

// Scan 实现 sql.Scanner for AssistantConfig
func (c *AssistantConfig) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(b, c)
}
