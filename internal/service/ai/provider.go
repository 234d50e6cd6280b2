package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/ashwinyue/next-assist/internal/config"
)

// NewChatModel 按配置创建 OpenAI 兼容的 ChatModel，未配置 provider 时返回 (nil, nil)
func NewChatModel(ctx context.Context, cfg config.AIConfig) (einomodel.BaseChatModel, error) {
	var apiKey, baseURL, modelName string
	var timeout int

	switch cfg.Provider {
	case "":
		return nil, nil
	case "openai":
		apiKey = cfg.OpenAI.APIKey
		baseURL = cfg.OpenAI.BaseURL
		modelName = cfg.OpenAI.Model
		timeout = cfg.OpenAI.Timeout
	case "alibaba", "qwen", "dashscope":
		apiKey = cfg.Alibaba.AccessKeySecret
		baseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
		modelName = cfg.Alibaba.Model
		timeout = cfg.Alibaba.Timeout
	case "deepseek":
		apiKey = cfg.DeepSeek.APIKey
		baseURL = cfg.DeepSeek.BaseURL
		modelName = cfg.DeepSeek.Model
		timeout = cfg.DeepSeek.Timeout
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if apiKey == "" {
		return nil, fmt.Errorf("api_key is required for provider: %s", cfg.Provider)
	}

	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	temperature := float32(0.3)

	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      apiKey,
		BaseURL:     baseURL,
		Model:       modelName,
		Temperature: &temperature,
		Timeout:     time.Duration(timeout) * time.Second,
	})
}
