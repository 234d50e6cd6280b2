// Package store 提供按租户作用域的类型化键值存储
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/ashwinyue/next-assist/internal/model"
)

var (
	// ErrNotFound 键不存在
	ErrNotFound = errors.New("store: key not found")
	// ErrDecode 存储内容无法解析
	ErrDecode = errors.New("store: decode failed")
)

// Store 类型化键值存储
// Get 在键不存在时返回 ErrNotFound
type Store[K fmt.Stringer, V any] interface {
	Get(ctx context.Context, key K) (V, error)
	Set(ctx context.Context, key K, value V) error
	Delete(ctx context.Context, key K) error
}

// Scope 会话作用域：同一租户、同一角色、同一调用方最多一个活跃会话
type Scope struct {
	TenantID string
	Role     model.RoleClass
	CallerID string
}

// String 实现 fmt.Stringer，租户 ID 在最前，方便按租户扫描
func (s Scope) String() string {
	return fmt.Sprintf("%s:%s:%s", s.TenantID, s.Role, s.CallerID)
}
