// Package testutil 提供测试辅助工具
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ashwinyue/next-assist/internal/model"
	"github.com/ashwinyue/next-assist/internal/service/store"
)

// TimeoutContext 返回带超时的 context，测试结束时自动取消
func TimeoutContext(t *testing.T, d time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	t.Cleanup(cancel)
	return ctx
}

// CanceledContext 返回已取消的 context
func CanceledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// Clock 可手动推进的时钟，可被后台 goroutine 并发读取
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock 创建时钟
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now 当前时间
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance 推进时钟
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Scope 测试用作用域
func Scope(tenantID string, role model.RoleClass, callerID string) store.Scope {
	return store.Scope{TenantID: tenantID, Role: role, CallerID: callerID}
}

// UserMessage 构造用户消息
func UserMessage(content string, ts time.Time) model.Message {
	return model.Message{
		ID:        fmt.Sprintf("u-%d", ts.UnixNano()),
		Role:      model.MessageRoleUser,
		Content:   content,
		Timestamp: ts,
	}
}

// BotMessage 构造机器人消息
func BotMessage(content string, ts time.Time) model.Message {
	return model.Message{
		ID:        fmt.Sprintf("b-%d", ts.UnixNano()),
		Role:      model.MessageRoleBot,
		Content:   content,
		Timestamp: ts,
	}
}

// Conversation 构造 n 条交替的消息，时间间隔一分钟，最后一条时间为 last
func Conversation(n int, last time.Time) []model.Message {
	msgs := make([]model.Message, 0, n)
	for i := 0; i < n; i++ {
		ts := last.Add(-time.Duration(n-1-i) * time.Minute)
		if i%2 == 0 {
			msgs = append(msgs, BotMessage(fmt.Sprintf("bot %d", i), ts))
		} else {
			msgs = append(msgs, UserMessage(fmt.Sprintf("user %d", i), ts))
		}
	}
	return msgs
}
