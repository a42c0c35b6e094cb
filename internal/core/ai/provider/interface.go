package provider

import (
	"context"
	"errors"
	"time"

	"photo-recipe/internal/core/image"
)

// ErrEmptyResponse 模型回應沒有任何內容
var ErrEmptyResponse = errors.New("empty response from model")

// Schema 宣告給模型的輸出結構（JSON Schema）
type Schema struct {
	Name       string
	Definition map[string]any
}

// Request 表示發送到 AI 提供者的請求
type Request struct {
	Prompt    string
	Image     image.EncodedImage
	Schema    *Schema
	MaxTokens int
}

// Usage token 使用量
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response 表示從 AI 提供者收到的響應
type Response struct {
	Content string `json:"content"`
	Model   string `json:"model"`
	Usage   Usage  `json:"usage"`
}

// Provider 定義 AI 提供者介面
type Provider interface {
	// Generate 生成 AI 響應
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Name 提供者名稱
	Name() string

	// GetModel 獲取當前使用的模型名稱
	GetModel() string

	// GetTimeout 獲取請求超時時間
	GetTimeout() time.Duration

	// Close 關閉提供者連接
	Close() error
}

// Config 定義 AI 提供者配置
type Config struct {
	APIKey    string
	Model     string
	Timeout   time.Duration
	BaseURL   string
	MaxTokens int
}

// MaxTokensOr 回傳請求指定的 token 上限，未指定時用預設值
func (r *Request) MaxTokensOr(def int) int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return def
}
