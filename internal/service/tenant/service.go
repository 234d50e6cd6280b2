// Package tenant 提供租户助手配置的管理
package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/ashwinyue/next-assist/internal/model"
	"github.com/ashwinyue/next-assist/internal/pkg/zlog"
	"github.com/ashwinyue/next-assist/internal/repository"
)

// maxMenuOptions 自定义快捷菜单的最大条数
const maxMenuOptions = 8

var (
	// ErrTenantNotFound 租户不存在
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrInvalidConfig 配置校验失败
	ErrInvalidConfig = errors.New("invalid assistant config")
)

// Service 租户配置服务
type Service struct {
	repo repository.AssistantConfigRepository
}

// NewService 创建租户配置服务
func NewService(repo repository.AssistantConfigRepository) *Service {
	return &Service{repo: repo}
}

// GetAssistantConfig 获取租户的助手配置
func (s *Service) GetAssistantConfig(ctx context.Context, tenantID string) (*model.AssistantConfig, error) {
	cfg, err := s.repo.GetAssistantConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrTenantNotFound
	}
	return cfg, nil
}

// UpdateAssistantConfig 校验并保存租户的助手配置
// 已在进行的会话保留开始时的配置，新会话生效
func (s *Service) UpdateAssistantConfig(ctx context.Context, tenantID string, cfg *model.AssistantConfig) (*model.AssistantConfig, error) {
	if _, err := s.GetAssistantConfig(ctx, tenantID); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	normalized := *cfg
	normalized.WelcomeMessage = strings.TrimSpace(cfg.WelcomeMessage)
	normalized.BusinessHours = strings.TrimSpace(cfg.BusinessHours)
	normalized.WhatsappNumber = digits(cfg.WhatsappNumber)

	if err := s.repo.UpdateAssistantConfig(ctx, tenantID, &normalized); err != nil {
		return nil, fmt.Errorf("update assistant config: %w", err)
	}

	zlog.Info("assistant config updated",
		zap.String("tenant_id", tenantID),
		zap.Bool("is_active", normalized.IsActive),
		zap.Bool("ai_enabled", normalized.AIEnabled),
		zap.Int("menu_options", len(normalized.MenuOptions)))
	return &normalized, nil
}

// Validate 校验配置
func Validate(cfg *model.AssistantConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is required", ErrInvalidConfig)
	}
	if len(cfg.MenuOptions) > maxMenuOptions {
		return fmt.Errorf("%w: at most %d menu options", ErrInvalidConfig, maxMenuOptions)
	}

	seen := make(map[string]bool, len(cfg.MenuOptions))
	for i, opt := range cfg.MenuOptions {
		if strings.TrimSpace(opt.ID) == "" || strings.TrimSpace(opt.Label) == "" {
			return fmt.Errorf("%w: menu option %d needs id and label", ErrInvalidConfig, i)
		}
		if seen[opt.ID] {
			return fmt.Errorf("%w: duplicate menu option id %q", ErrInvalidConfig, opt.ID)
		}
		seen[opt.ID] = true
		if !opt.Action.IsValid() {
			return fmt.Errorf("%w: unknown action %q", ErrInvalidConfig, opt.Action)
		}
	}

	if cfg.WhatsappNumber != "" {
		n := len(digits(cfg.WhatsappNumber))
		if n < 10 || n > 15 {
			return fmt.Errorf("%w: whatsapp number must have 10 to 15 digits", ErrInvalidConfig)
		}
	}
	return nil
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
