// Package provider 定義語言模型供應商介面
package provider

import (
	"context"
	"time"
)

// 對話角色
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message 對話消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request 發送到供應商的請求
type Request struct {
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	JSONMode    bool      `json:"-"` // 要求回傳 JSON 物件
}

// Usage token 使用量
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response 供應商回應
type Response struct {
	Content string `json:"content"`
	Model   string `json:"model"`
	Usage   Usage  `json:"usage"`
}

// Provider 語言模型供應商
type Provider interface {
	// Generate 產生單次回覆，非 2xx 回應以 *resilience.StatusError 表示
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Name 供應商名稱，用於日誌與指標
	Name() string

	// GetModel 目前使用的模型
	GetModel() string

	// GetTimeout 單次請求逾時
	GetTimeout() time.Duration

	// Close 釋放連線
	Close() error
}

// Config 供應商設定
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}
