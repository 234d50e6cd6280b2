package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key 前缀
const (
	BufferPrefix  = "assistant:buffer:"
	ArchivePrefix = "assistant:archive:"
)

// RedisStore Redis 实现，值序列化为 JSON
type RedisStore[K fmt.Stringer, V any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore 创建 Redis 存储，ttl 为 0 表示不过期
func NewRedisStore[K fmt.Stringer, V any](client *redis.Client, prefix string, ttl time.Duration) *RedisStore[K, V] {
	return &RedisStore[K, V]{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisStore[K, V]) key(k K) string {
	return s.prefix + k.String()
}

// Get 实现 Store
func (s *RedisStore[K, V]) Get(ctx context.Context, key K) (V, error) {
	var zero V
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, ErrNotFound
		}
		return zero, err
	}
	if len(val) == 0 {
		return zero, ErrNotFound
	}

	var v V
	if err := json.Unmarshal(val, &v); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return v, nil
}

// Set 实现 Store
func (s *RedisStore[K, V]) Set(ctx context.Context, key K, value V) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return s.client.Set(ctx, s.key(key), data, s.ttl).Err()
}

// Delete 实现 Store
func (s *RedisStore[K, V]) Delete(ctx context.Context, key K) error {
	return s.client.Del(ctx, s.key(key)).Err()
}
