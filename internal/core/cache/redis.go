package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/config"
	"github.com/cooperwalter/recipe-and-me/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// scanBatch 每次 SCAN 取回的鍵數
const scanBatch = 200

// RedisStore Redis 緩存
type RedisStore struct {
	client     redis.UniversalClient
	defaultTTL time.Duration
}

// NewRedisStore 創建 Redis 緩存並測試連接
func NewRedisStore(ctx context.Context, redisCfg config.RedisConfig, cacheCfg config.CacheConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})

	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	common.LogInfo("Redis 快取已連線", zap.String("addr", redisCfg.Addr), zap.Int("db", redisCfg.DB))
	return NewRedisStoreWithClient(client, cacheCfg.TTL), nil
}

// NewRedisStoreWithClient 以既有客戶端建立
func NewRedisStoreWithClient(client redis.UniversalClient, defaultTTL time.Duration) *RedisStore {
	return &RedisStore{client: client, defaultTTL: defaultTTL}
}

// Get 獲取緩存
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			recordLookup("redis", key, false)
			return nil, common.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}
	recordLookup("redis", key, true)
	return data, nil
}

// Set 設置緩存
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Delete 刪除緩存
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache: %w", err)
	}
	return nil
}

// DeletePrefix 以 SCAN 逐批刪除前綴相符的鍵
func (s *RedisStore) DeletePrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	deleted := 0
	for {
		keys, next, err := s.client.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
		if err != nil {
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	common.LogDebug("Redis 快取前綴清除", zap.String("prefix", prefix), zap.Int("deleted", deleted))
	return nil
}

// Ping 檢查連線
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Stats 回傳連線池統計
func (s *RedisStore) Stats() map[string]interface{} {
	stats := map[string]interface{}{"backend": "redis"}
	if c, ok := s.client.(*redis.Client); ok {
		ps := c.PoolStats()
		stats["hits"] = ps.Hits
		stats["misses"] = ps.Misses
		stats["total_conns"] = ps.TotalConns
		stats["idle_conns"] = ps.IdleConns
	}
	return stats
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}
