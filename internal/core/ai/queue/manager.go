// Package queue 限制同時進行的語言模型呼叫
package queue

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/cooperwalter/recipe-and-me/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrQueueFull 等待中的呼叫已達上限
var ErrQueueFull = errors.New("llm queue is full")

// ErrClosed 管理器已關閉
var ErrClosed = errors.New("llm queue is closed")

// Status 隊列狀態
type Status struct {
	InFlight       int   `json:"in_flight"`
	Waiting        int   `json:"waiting"`
	ProcessedCount int64 `json:"processed_count"`
	RejectedCount  int64 `json:"rejected_count"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
}

// Manager 以固定槽位控制並行數，超出槽位的呼叫排隊等待
type Manager struct {
	slots     chan struct{}
	done      chan struct{}
	maxQueue  int
	waiting   atomic.Int64
	processed atomic.Int64
	rejected  atomic.Int64
	closed    atomic.Bool
}

// NewManager 創建新的隊列管理器
func NewManager(workers, maxQueue int) *Manager {
	if workers <= 0 {
		workers = 1
	}
	if maxQueue < 0 {
		maxQueue = 0
	}
	return &Manager{
		slots:    make(chan struct{}, workers),
		done:     make(chan struct{}),
		maxQueue: maxQueue,
	}
}

// Run 取得槽位後執行 fn
func (m *Manager) Run(ctx context.Context, fn func(context.Context) error) error {
	if err := m.acquire(ctx); err != nil {
		return err
	}
	defer m.release()
	return fn(ctx)
}

func (m *Manager) acquire(ctx context.Context) error {
	if m.closed.Load() {
		return ErrClosed
	}

	// 有空槽位時不排隊
	select {
	case m.slots <- struct{}{}:
		return nil
	default:
	}

	if int(m.waiting.Add(1)) > m.maxQueue {
		m.waiting.Add(-1)
		m.rejected.Add(1)
		common.LogWarn("LLM 隊列已滿",
			zap.Int("max_queue_size", m.maxQueue),
			zap.Int("workers", cap(m.slots)),
		)
		return ErrQueueFull
	}
	defer m.waiting.Add(-1)

	select {
	case m.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-m.done:
		return ErrClosed
	}
}

func (m *Manager) release() {
	<-m.slots
	m.processed.Add(1)
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() *Status {
	return &Status{
		InFlight:       len(m.slots),
		Waiting:        int(m.waiting.Load()),
		ProcessedCount: m.processed.Load(),
		RejectedCount:  m.rejected.Load(),
		MaxQueueSize:   m.maxQueue,
		Workers:        cap(m.slots),
	}
}

// Close 關閉管理器，等待中的呼叫立即返回
func (m *Manager) Close() {
	if m.closed.CompareAndSwap(false, true) {
		close(m.done)
	}
}
