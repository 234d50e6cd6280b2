package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore 内存实现，值以 JSON 形式保存，避免调用方共享可变切片
type MemoryStore[K fmt.Stringer, V any] struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore 创建内存存储
func NewMemoryStore[K fmt.Stringer, V any]() *MemoryStore[K, V] {
	return &MemoryStore[K, V]{data: make(map[string][]byte)}
}

// Get 实现 Store
func (s *MemoryStore[K, V]) Get(ctx context.Context, key K) (V, error) {
	var zero V
	s.mu.RLock()
	raw, ok := s.data[key.String()]
	s.mu.RUnlock()
	if !ok {
		return zero, ErrNotFound
	}

	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return v, nil
}

// Set 实现 Store
func (s *MemoryStore[K, V]) Set(ctx context.Context, key K, value V) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	s.mu.Lock()
	s.data[key.String()] = raw
	s.mu.Unlock()
	return nil
}

// Delete 实现 Store
func (s *MemoryStore[K, V]) Delete(ctx context.Context, key K) error {
	s.mu.Lock()
	delete(s.data, key.String())
	s.mu.Unlock()
	return nil
}

// PutRaw 直接写入原始字节（测试中用于模拟损坏数据）
func (s *MemoryStore[K, V]) PutRaw(key K, raw []byte) {
	s.mu.Lock()
	s.data[key.String()] = raw
	s.mu.Unlock()
}

// Len 当前键数量
func (s *MemoryStore[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
