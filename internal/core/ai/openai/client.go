// Package openai OpenAI 相容 API 的聊天補全供應商
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cooperwalter/recipe-and-me/internal/core/ai"
	"github.com/cooperwalter/recipe-and-me/internal/core/ai/provider"
	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/resilience"

	openai "github.com/sashabaranov/go-openai"
)

var _ provider.Provider = (*Client)(nil)

// Client 以 go-openai 呼叫 chat/completions
type Client struct {
	client *openai.Client
	cfg    provider.Config
	http   *http.Client
}

// NewClient 建立客戶端，BaseURL 為空時使用 OpenAI 官方位址
func NewClient(cfg provider.Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = httpClient

	return &Client{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		http:   httpClient,
	}
}

// Generate 生成回應
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	}
	if chatReq.MaxTokens == 0 {
		chatReq.MaxTokens = c.cfg.MaxTokens
	}
	if chatReq.Temperature == 0 {
		chatReq.Temperature = float32(c.cfg.Temperature)
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, toStatusError(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, ai.ErrEmptyCompletion
	}

	model := resp.Model
	if model == "" {
		model = chatReq.Model
	}
	return &provider.Response{
		Content: resp.Choices[0].Message.Content,
		Model:   model,
		Usage: provider.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// Name 供應商名稱
func (c *Client) Name() string { return "openai" }

// GetModel 模型名稱
func (c *Client) GetModel() string { return c.cfg.Model }

// GetTimeout 請求逾時
func (c *Client) GetTimeout() time.Duration { return c.cfg.Timeout }

// Close 關閉閒置連線
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// toStatusError 將 API 錯誤轉為 StatusError 供重試分類
func toStatusError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &resilience.StatusError{
			Operation:  "openai chat completion",
			StatusCode: apiErr.HTTPStatusCode,
			Body:       apiErr.Message,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return &resilience.StatusError{
			Operation:  "openai chat completion",
			StatusCode: reqErr.HTTPStatusCode,
			Body:       string(reqErr.Body),
		}
	}
	return fmt.Errorf("openai chat completion: %w", err)
}
