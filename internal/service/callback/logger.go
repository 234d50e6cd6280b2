// Package callback 提供 Eino Callback 日志支持
package callback

import (
	"context"
	"time"

	"github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/ashwinyue/next-assist/internal/pkg/zlog"
)

// maxLogged 日志中内容的最大长度
const maxLogged = 200

type startKey struct{}

// Logger 日志回调处理器
// 实现 callbacks.Handler 接口，记录模型调用的耗时与 token 用量
type Logger struct {
	EnableDebug bool // 是否记录输出内容
	now         func() time.Time
}

var _ callbacks.Handler = (*Logger)(nil)

// NewLogger 创建日志回调处理器
func NewLogger(enableDebug bool) *Logger {
	return &Logger{EnableDebug: enableDebug, now: time.Now}
}

// OnStart 记录开始时间
func (l *Logger) OnStart(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
	if l.EnableDebug {
		if in := einomodel.ConvCallbackInput(input); in != nil {
			zlog.Debug("model call started",
				zap.String("name", info.Name),
				zap.Int("messages", len(in.Messages)))
		}
	}
	return context.WithValue(ctx, startKey{}, l.now())
}

// OnEnd 记录耗时与 token 用量
func (l *Logger) OnEnd(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
	fields := []zap.Field{
		zap.String("name", info.Name),
		zap.String("type", info.Type),
		zap.Duration("latency", l.elapsed(ctx)),
	}
	if out := einomodel.ConvCallbackOutput(output); out != nil {
		if out.TokenUsage != nil {
			fields = append(fields,
				zap.Int("prompt_tokens", out.TokenUsage.PromptTokens),
				zap.Int("completion_tokens", out.TokenUsage.CompletionTokens))
		}
		if l.EnableDebug && out.Message != nil {
			fields = append(fields, zap.String("content", truncate(out.Message.Content)))
		}
	}
	zlog.Info("model call finished", fields...)
	return ctx
}

// OnError 组件执行出错时调用
func (l *Logger) OnError(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
	zlog.Warn("model call failed",
		zap.String("name", info.Name),
		zap.String("type", info.Type),
		zap.Duration("latency", l.elapsed(ctx)),
		zap.Error(err))
	return ctx
}

// OnStartWithStreamInput 流式输入，不读取内容
func (l *Logger) OnStartWithStreamInput(ctx context.Context, info *callbacks.RunInfo, input *schema.StreamReader[callbacks.CallbackInput]) context.Context {
	input.Close()
	return context.WithValue(ctx, startKey{}, l.now())
}

// OnEndWithStreamOutput 流式输出，不读取内容
func (l *Logger) OnEndWithStreamOutput(ctx context.Context, info *callbacks.RunInfo, output *schema.StreamReader[callbacks.CallbackOutput]) context.Context {
	output.Close()
	zlog.Info("model stream finished",
		zap.String("name", info.Name),
		zap.Duration("latency", l.elapsed(ctx)))
	return ctx
}

func (l *Logger) elapsed(ctx context.Context) time.Duration {
	start, ok := ctx.Value(startKey{}).(time.Time)
	if !ok {
		return 0
	}
	return l.now().Sub(start)
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxLogged {
		return s
	}
	return string(r[:maxLogged]) + "..."
}
