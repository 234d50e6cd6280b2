package store

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashwinyue/next-assist/internal/model"
)

var testScope = Scope{TenantID: "t1", Role: model.RoleCustomer, CallerID: "c1"}

func TestScope_String(t *testing.T) {
	assert.Equal(t, "t1:customer:c1", testScope.String())
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore[Scope, model.ActiveBuffer]()

	_, err := s.Get(ctx, testScope)
	assert.ErrorIs(t, err, ErrNotFound)

	buf := model.ActiveBuffer{Messages: []model.Message{{ID: "m1", Content: "oi"}}}
	require.NoError(t, s.Set(ctx, testScope, buf))

	got, err := s.Get(ctx, testScope)
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "oi", got.Messages[0].Content)

	require.NoError(t, s.Delete(ctx, testScope))
	_, err = s.Get(ctx, testScope)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore[Scope, []model.ArchiveEntry]()

	entries := []model.ArchiveEntry{{ID: "a1"}}
	require.NoError(t, s.Set(ctx, testScope, entries))
	entries[0].ID = "changed"

	got, err := s.Get(ctx, testScope)
	require.NoError(t, err)
	assert.Equal(t, "a1", got[0].ID)
}

func TestMemoryStore_ScopesAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore[Scope, []model.ArchiveEntry]()

	other := Scope{TenantID: "t2", Role: model.RoleCustomer, CallerID: "c1"}
	require.NoError(t, s.Set(ctx, testScope, []model.ArchiveEntry{{ID: "a1"}}))

	_, err := s.Get(ctx, other)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_CorruptData(t *testing.T) {
	s := NewMemoryStore[Scope, model.ActiveBuffer]()
	s.PutRaw(testScope, []byte("{not json"))

	_, err := s.Get(context.Background(), testScope)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore[Scope, int]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Set(ctx, testScope, i)
			_, _ = s.Get(ctx, testScope)
		}(i)
	}
	wg.Wait()

	_, err := s.Get(ctx, testScope)
	assert.NoError(t, err)
}

// newTestRedis 需要设置 REDIS_ADDR 才运行
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisStore_RoundTrip(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()
	prefix := "test:" + time.Now().Format("150405.000000") + ":"
	s := NewRedisStore[Scope, model.ActiveBuffer](client, prefix, time.Minute)
	t.Cleanup(func() { _ = s.Delete(context.Background(), testScope) })

	_, err := s.Get(ctx, testScope)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, testScope, model.ActiveBuffer{Messages: []model.Message{{ID: "m1"}}}))
	got, err := s.Get(ctx, testScope)
	require.NoError(t, err)
	assert.Equal(t, "m1", got.Messages[0].ID)

	ttl, err := client.TTL(ctx, prefix+testScope.String()).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, client.Set(ctx, prefix+testScope.String(), "garbage", time.Minute).Err())
	_, err = s.Get(ctx, testScope)
	assert.ErrorIs(t, err, ErrDecode)
}
