package callback

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ashwinyue/next-assist/internal/pkg/zlog"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	zlog.Set(zap.New(core))
	t.Cleanup(func() { zlog.Set(zap.NewNop()) })
	return logs
}

func TestLogger_OnEndRecordsUsageAndLatency(t *testing.T) {
	logs := observe(t)
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	l := NewLogger(true)
	l.now = func() time.Time { return now }

	info := &callbacks.RunInfo{Name: "assistant", Type: "OpenAI"}
	ctx := l.OnStart(context.Background(), info, &einomodel.CallbackInput{
		Messages: []*schema.Message{schema.UserMessage("oi")},
	})
	now = now.Add(300 * time.Millisecond)
	l.OnEnd(ctx, info, &einomodel.CallbackOutput{
		Message:    schema.AssistantMessage(strings.Repeat("a", 300), nil),
		TokenUsage: &einomodel.TokenUsage{PromptTokens: 12, CompletionTokens: 30},
	})

	finished := logs.FilterMessage("model call finished").All()
	require.Len(t, finished, 1)
	fields := finished[0].ContextMap()
	assert.Equal(t, int64(12), fields["prompt_tokens"])
	assert.Equal(t, int64(30), fields["completion_tokens"])
	assert.Equal(t, 300*time.Millisecond, fields["latency"])
	assert.Len(t, []rune(fields["content"].(string)), maxLogged+3)

	assert.Equal(t, 1, logs.FilterMessage("model call started").Len())
}

func TestLogger_OnErrorWarns(t *testing.T) {
	logs := observe(t)
	l := NewLogger(false)

	l.OnError(context.Background(), &callbacks.RunInfo{Name: "assistant"}, errors.New("boom"))

	entries := logs.FilterMessage("model call failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestLogger_NoDebugSkipsContent(t *testing.T) {
	logs := observe(t)
	l := NewLogger(false)

	info := &callbacks.RunInfo{Name: "assistant"}
	ctx := l.OnStart(context.Background(), info, &einomodel.CallbackInput{})
	l.OnEnd(ctx, info, &einomodel.CallbackOutput{Message: schema.AssistantMessage("segredo", nil)})

	assert.Equal(t, 0, logs.FilterMessage("model call started").Len())
	entries := logs.FilterMessage("model call finished").All()
	require.Len(t, entries, 1)
	_, hasContent := entries[0].ContextMap()["content"]
	assert.False(t, hasContent)
}
