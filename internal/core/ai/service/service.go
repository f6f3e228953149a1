// Package service 語言模型補全服務：快取、排隊、重試與斷路器
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cooperwalter/recipe-and-me/internal/core/ai/openai"
	"github.com/cooperwalter/recipe-and-me/internal/core/ai/openrouter"
	"github.com/cooperwalter/recipe-and-me/internal/core/ai/provider"
	"github.com/cooperwalter/recipe-and-me/internal/core/ai/queue"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/config"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/metrics"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/resilience"
	"github.com/cooperwalter/recipe-and-me/internal/pkg/common"

	"go.uber.org/zap"
)

// CompletionKeyPrefix 補全結果快取鍵前綴
const CompletionKeyPrefix = "llm:completion:"

// ErrUnavailable 供應商無法完成請求
var ErrUnavailable = errors.New("llm provider unavailable")

// Cache 補全結果快取
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// NewProvider 依設定建立供應商
func NewProvider(cfg config.LLMConfig) (provider.Provider, error) {
	pc := provider.Config{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
	}
	switch strings.ToLower(cfg.Provider) {
	case "", "openrouter":
		return openrouter.NewClient(pc), nil
	case "openai":
		return openai.NewClient(pc), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// Service 補全服務
type Service struct {
	provider provider.Provider
	executor *resilience.Executor
	queue    *queue.Manager
	cache    Cache
	cacheTTL time.Duration
}

// Option 服務選項
type Option func(*Service)

// WithCache 啟用補全快取
func WithCache(c Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithQueue 限制並行呼叫
func WithQueue(q *queue.Manager) Option {
	return func(s *Service) { s.queue = q }
}

// NewService 創建補全服務
func NewService(p provider.Provider, exec *resilience.Executor, opts ...Option) *Service {
	s := &Service{provider: p, executor: exec}
	for _, opt := range opts {
		opt(s)
	}
	if s.executor == nil {
		s.executor = resilience.NewExecutor(resilience.DefaultPolicy())
	}
	return s
}

// Provider 目前供應商
func (s *Service) Provider() provider.Provider {
	return s.provider
}

// QueueStatus 隊列狀態，未啟用時回傳 nil
func (s *Service) QueueStatus() *queue.Status {
	if s.queue == nil {
		return nil
	}
	return s.queue.GetQueueStatus()
}

// Complete 以系統提示與使用者內容取得 JSON 補全
func (s *Service) Complete(ctx context.Context, system, user string) (string, error) {
	key := CompletionKeyPrefix + common.HashString(s.provider.GetModel()+"\x00"+system+"\x00"+user)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil && len(data) > 0 {
			metrics.LLMRequestsTotal.WithLabelValues(s.provider.Name(), "cache_hit").Inc()
			return string(data), nil
		}
	}

	req := &provider.Request{
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: system},
			{Role: provider.RoleUser, Content: user},
		},
		JSONMode: true,
	}

	var content string
	start := time.Now()
	call := func(ctx context.Context) error {
		return s.executor.Do(ctx, "llm."+s.provider.Name(), func(ctx context.Context) error {
			attemptCtx, cancel := context.WithTimeout(ctx, s.provider.GetTimeout())
			defer cancel()

			resp, err := s.provider.Generate(attemptCtx, req)
			if err != nil {
				return err
			}
			content = resp.Content
			common.LogDebug("LLM 用量",
				zap.String("model", resp.Model),
				zap.Int("total_tokens", resp.Usage.TotalTokens),
			)
			return nil
		}, resilience.ClassifyHTTP)
	}

	var err error
	if s.queue != nil {
		err = s.queue.Run(ctx, call)
	} else {
		err = call(ctx)
	}

	elapsed := time.Since(start)
	common.LogLLMCall(s.provider.Name(), s.provider.GetModel(), elapsed, err)
	metrics.LLMRequestDuration.WithLabelValues(s.provider.Name()).Observe(elapsed.Seconds())
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(s.provider.Name(), "error").Inc()
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	metrics.LLMRequestsTotal.WithLabelValues(s.provider.Name(), "success").Inc()

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, []byte(content), s.cacheTTL); err != nil {
			common.LogWarn("LLM 快取寫入失敗", zap.Error(err))
		}
	}
	return content, nil
}

// Close 關閉供應商與隊列
func (s *Service) Close() error {
	if s.queue != nil {
		s.queue.Close()
	}
	return s.provider.Close()
}
