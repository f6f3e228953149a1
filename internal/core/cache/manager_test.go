package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/config"
	"github.com/cooperwalter/recipe-and-me/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(size int) *Manager {
	return NewManager(config.CacheConfig{Enabled: true, MaxSize: size, TTL: time.Minute})
}

func TestManagerGetSet(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(10)
	defer m.Close()

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrCacheMiss)

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	// 回傳值為複本
	got[0] = 'x'
	again, _ := m.Get(ctx, "k")
	assert.Equal(t, []byte("v"), again)
}

func TestManagerExpiry(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(10)
	defer m.Close()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
}

func TestManagerEvictsLeastUsed(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(2)
	defer m.Close()

	require.NoError(t, m.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), 0))
	_, err := m.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, m.Set(ctx, "c", []byte("3"), 0))

	_, err = m.Get(ctx, "b")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
	_, err = m.Get(ctx, "a")
	assert.NoError(t, err)
	_, err = m.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestManagerDeletePrefix(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(10)
	defer m.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, m.Set(ctx, fmt.Sprintf("recipes:list:%d", i), []byte("x"), 0))
	}
	require.NoError(t, m.Set(ctx, "recipes:detail:1", []byte("x"), 0))

	require.NoError(t, m.DeletePrefix(ctx, "recipes:list:"))
	assert.Equal(t, 1, m.Stats()["size"])

	require.NoError(t, m.Delete(ctx, "recipes:detail:1"))
	assert.Equal(t, 0, m.Stats()["size"])
}

func TestManagerStats(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(10)
	defer m.Close()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))
	_, _ = m.Get(ctx, "k")
	_, _ = m.Get(ctx, "nope")

	stats := m.Stats()
	assert.Equal(t, int64(1), stats["hits"])
	assert.Equal(t, int64(1), stats["misses"])
	assert.InDelta(t, 0.5, stats["hit_ratio"], 1e-9)
}

func TestNewFallsBackToMemory(t *testing.T) {
	cfg := &config.Config{
		Cache: config.CacheConfig{Enabled: true, Backend: "redis", MaxSize: 5, TTL: time.Minute},
		Redis: config.RedisConfig{Addr: "127.0.0.1:1"},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	b := New(ctx, cfg)
	require.NotNil(t, b)
	defer b.Close()
	_, ok := b.(*Manager)
	assert.True(t, ok)

	cfg.Cache.Enabled = false
	assert.Nil(t, New(ctx, cfg))
}
