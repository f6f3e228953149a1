// Package ai 共用的 OpenAI 相容聊天補全格式
package ai

import (
	"errors"

	"github.com/cooperwalter/recipe-and-me/internal/core/ai/provider"
)

// ErrEmptyCompletion 供應商回應中沒有內容
var ErrEmptyCompletion = errors.New("empty completion")

// ChatRequest chat/completions 請求
type ChatRequest struct {
	Model          string             `json:"model"`
	Messages       []provider.Message `json:"messages"`
	MaxTokens      int                `json:"max_tokens,omitempty"`
	Temperature    float64            `json:"temperature,omitempty"`
	ResponseFormat *ResponseFormat    `json:"response_format,omitempty"`
}

// ResponseFormat 回應格式
type ResponseFormat struct {
	Type string `json:"type"`
}

// ChatResponse chat/completions 回應
type ChatResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []Choice       `json:"choices"`
	Usage   provider.Usage `json:"usage"`
}

// Choice 選擇
type Choice struct {
	Message      provider.Message `json:"message"`
	FinishReason string           `json:"finish_reason"`
}

// ErrorBody 錯誤回應
type ErrorBody struct {
	Error struct {
		Message string      `json:"message"`
		Type    string      `json:"type"`
		Code    interface{} `json:"code"`
	} `json:"error"`
}

// FirstContent 第一個選擇的內容
func (r *ChatResponse) FirstContent() (string, error) {
	if len(r.Choices) == 0 || r.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}
	return r.Choices[0].Message.Content, nil
}
