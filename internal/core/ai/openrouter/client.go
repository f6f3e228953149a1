// Package openrouter OpenRouter 聊天補全客戶端
package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cooperwalter/recipe-and-me/internal/core/ai"
	"github.com/cooperwalter/recipe-and-me/internal/core/ai/provider"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/resilience"
	"github.com/cooperwalter/recipe-and-me/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// DefaultBaseURL OpenRouter API 位址
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// 日誌中回應內容的長度上限
const maxLoggedBody = 512

var _ provider.Provider = (*Client)(nil)

// Client OpenRouter API 客戶端
type Client struct {
	client *resty.Client
	cfg    provider.Config
}

// NewClient 創建新的 OpenRouter 客戶端
func NewClient(cfg provider.Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("HTTP-Referer", "https://recipe-and-me.app").
		SetHeader("X-Title", "Recipe and Me")

	return &Client{client: client, cfg: cfg}
}

// Generate 生成回應
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	body := ai.ChatRequest{
		Model:       c.cfg.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = c.cfg.MaxTokens
	}
	if body.Temperature == 0 {
		body.Temperature = c.cfg.Temperature
	}
	if req.JSONMode {
		body.ResponseFormat = &ai.ResponseFormat{Type: "json_object"}
	}

	common.LogDebug("Sending request to OpenRouter",
		zap.String("model", body.Model),
		zap.Int("messages", len(body.Messages)),
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		message := errorMessage(resp.Body())
		common.LogError("OpenRouter 回應錯誤狀態",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("model", body.Model),
			zap.String("response", message),
		)
		return nil, &resilience.StatusError{
			Operation:  "openrouter chat completion",
			StatusCode: resp.StatusCode(),
			Body:       message,
		}
	}

	var result ai.ChatResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse OpenRouter response: %w", err)
	}
	content, err := result.FirstContent()
	if err != nil {
		return nil, err
	}

	model := result.Model
	if model == "" {
		model = body.Model
	}
	return &provider.Response{Content: content, Model: model, Usage: result.Usage}, nil
}

// Name 供應商名稱
func (c *Client) Name() string { return "openrouter" }

// GetModel 模型名稱
func (c *Client) GetModel() string { return c.cfg.Model }

// GetTimeout 請求逾時
func (c *Client) GetTimeout() time.Duration { return c.cfg.Timeout }

// Close 關閉客戶端
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}

// errorMessage 取出錯誤訊息，無法解析時截斷原文
func errorMessage(body []byte) string {
	var parsed ai.ErrorBody
	if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	text := strings.TrimSpace(string(body))
	if len(text) > maxLoggedBody {
		text = text[:maxLoggedBody] + "..."
	}
	return text
}
