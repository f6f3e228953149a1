package service

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cooperwalter/recipe-and-me/internal/core/ai/openai"
	"github.com/cooperwalter/recipe-and-me/internal/core/ai/openrouter"
	"github.com/cooperwalter/recipe-and-me/internal/core/ai/provider"
	"github.com/cooperwalter/recipe-and-me/internal/core/ai/queue"
	"github.com/cooperwalter/recipe-and-me/internal/core/cache"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/config"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	calls   atomic.Int32
	failFor int32
	err     error
	content string
}

func (f *fakeProvider) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	n := f.calls.Add(1)
	if n <= f.failFor {
		return nil, f.err
	}
	return &provider.Response{Content: f.content, Model: "fake-model"}, nil
}

func (f *fakeProvider) Name() string              { return "fake" }
func (f *fakeProvider) GetModel() string          { return "fake-model" }
func (f *fakeProvider) GetTimeout() time.Duration { return time.Second }
func (f *fakeProvider) Close() error              { return nil }

func fastExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Policy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	})
}

func TestCompleteRetriesAndCaches(t *testing.T) {
	p := &fakeProvider{
		failFor: 1,
		err:     &resilience.StatusError{Operation: "fake", StatusCode: http.StatusServiceUnavailable},
		content: `{"title":"Soup"}`,
	}
	c := cache.NewManager(config.CacheConfig{MaxSize: 10, TTL: time.Minute})
	defer c.Close()

	svc := NewService(p, fastExecutor(), WithCache(c, time.Minute), WithQueue(queue.NewManager(1, 1)))

	out, err := svc.Complete(context.Background(), "system", "transcript")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Soup"}`, out)
	assert.Equal(t, int32(2), p.calls.Load())

	// 相同提示由快取回應
	out, err = svc.Complete(context.Background(), "system", "transcript")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Soup"}`, out)
	assert.Equal(t, int32(2), p.calls.Load())

	assert.Equal(t, int64(1), svc.QueueStatus().ProcessedCount)
}

func TestCompleteWrapsFailures(t *testing.T) {
	boom := &resilience.StatusError{Operation: "fake", StatusCode: http.StatusUnauthorized}
	p := &fakeProvider{failFor: 10, err: boom}
	svc := NewService(p, fastExecutor())

	_, err := svc.Complete(context.Background(), "system", "transcript")
	assert.ErrorIs(t, err, ErrUnavailable)
	var statusErr *resilience.StatusError
	assert.True(t, errors.As(err, &statusErr))
	// 4xx 不重試
	assert.Equal(t, int32(1), p.calls.Load())
	assert.Nil(t, svc.QueueStatus())
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(config.LLMConfig{Provider: "openrouter", Model: "m"})
	require.NoError(t, err)
	_, ok := p.(*openrouter.Client)
	assert.True(t, ok)

	p, err = NewProvider(config.LLMConfig{Provider: "OpenAI", Model: "m"})
	require.NoError(t, err)
	_, ok = p.(*openai.Client)
	assert.True(t, ok)

	_, err = NewProvider(config.LLMConfig{Provider: "gemini"})
	assert.Error(t, err)
}
