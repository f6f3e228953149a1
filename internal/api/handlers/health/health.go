// Package health 提供健康、就緒與存活檢查
package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/cooperwalter/recipe-and-me/internal/core/ai/queue"
	"github.com/cooperwalter/recipe-and-me/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 就緒檢查的單項逾時
const checkTimeout = 2 * time.Second

// Pinger 可檢查連線的依賴
type Pinger interface {
	Ping(ctx context.Context) error
}

// Cache 快取狀態
type Cache interface {
	Pinger
	Stats() map[string]interface{}
}

// QueueReporter 語言模型隊列狀態
type QueueReporter interface {
	QueueStatus() *queue.Status
}

// Deps 檢查所需依賴；Cache 與 LLM 可為 nil
type Deps struct {
	Version string
	Env     string
	Store   Pinger
	Cache   Cache
	LLM     QueueReporter
}

// Handler 健康檢查處理器
type Handler struct {
	deps    Deps
	started time.Time
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Env       string                 `json:"env"`
	Uptime    string                 `json:"uptime"`
	Runtime   map[string]interface{} `json:"runtime"`
	Cache     map[string]interface{} `json:"cache,omitempty"`
	Queue     *queue.Status          `json:"queue,omitempty"`
	LLM       bool                   `json:"llmConfigured"`
}

// NewHandler 創建健康檢查處理器
func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps, started: time.Now()}
}

// HealthCheck 回傳版本、執行期與快取狀態
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.deps.Version,
		Env:       h.deps.Env,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		LLM: h.deps.LLM != nil,
	}
	if h.deps.Cache != nil {
		response.Cache = h.deps.Cache.Stats()
	}
	if h.deps.LLM != nil {
		response.Queue = h.deps.LLM.QueueStatus()
	}

	common.LogDebug("Health check request", zap.String("client_ip", c.ClientIP()))
	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 檢查儲存層與快取，任一失敗回傳 503
func (h *Handler) ReadinessCheck(c *gin.Context) {
	checks := gin.H{}
	ready := true

	run := func(name string, p Pinger) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			common.LogWarn("就緒檢查失敗", zap.String("check", name), zap.Error(err))
			checks[name] = err.Error()
			ready = false
			return
		}
		checks[name] = "ok"
	}

	if h.deps.Store != nil {
		run("store", h.deps.Store)
	}
	if h.deps.Cache != nil {
		run("cache", h.deps.Cache)
	} else {
		checks["cache"] = "disabled"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
