// Package cache 提供記憶體與 Redis 兩種位元組快取
package cache

import (
	"context"
	"time"

	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/config"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/metrics"
	"github.com/cooperwalter/recipe-and-me/internal/pkg/common"

	"go.uber.org/zap"
)

// Backend 快取後端
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
	Ping(ctx context.Context) error
	Stats() map[string]interface{}
	Close() error
}

var (
	_ Backend = (*Manager)(nil)
	_ Backend = (*RedisStore)(nil)
)

// New 依設定建立快取；停用時回傳 nil，Redis 連線失敗時退回記憶體快取
func New(ctx context.Context, cfg *config.Config) Backend {
	if !cfg.Cache.Enabled {
		common.LogInfo("快取已停用")
		return nil
	}

	if cfg.Cache.Backend == "redis" {
		store, err := NewRedisStore(ctx, cfg.Redis, cfg.Cache)
		if err == nil {
			return store
		}
		common.LogWarn("Redis 無法連線，改用記憶體快取",
			zap.String("addr", cfg.Redis.Addr),
			zap.Error(err),
		)
	}
	return NewManager(cfg.Cache)
}

// recordLookup 記錄命中或未命中
func recordLookup(backend, key string, hit bool) {
	if hit {
		common.LogCacheHit(backend, key)
		metrics.CacheRequestsTotal.WithLabelValues(backend, "hit").Inc()
		return
	}
	common.LogCacheMiss(backend, key)
	metrics.CacheRequestsTotal.WithLabelValues(backend, "miss").Inc()
}
