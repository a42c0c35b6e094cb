package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"photo-recipe/internal/core/ai/provider"
)

// Client OpenAI chat completions 客戶端
type Client struct {
	client     *goopenai.Client
	httpClient *http.Client
	cfg        provider.Config
}

// NewClient 創建新的 OpenAI 客戶端
func NewClient(cfg provider.Config) *Client {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	oc := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = httpClient

	return &Client{
		client:     goopenai.NewClientWithConfig(oc),
		httpClient: httpClient,
		cfg:        cfg,
	}
}

// Name 提供者名稱
func (c *Client) Name() string { return "openai" }

// GetModel 獲取當前使用的模型名稱
func (c *Client) GetModel() string { return c.cfg.Model }

// GetTimeout 獲取請求超時時間
func (c *Client) GetTimeout() time.Duration { return c.cfg.Timeout }

// Generate 以單一 user 訊息（文字 + 圖片）呼叫模型
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	parts := []goopenai.ChatMessagePart{{
		Type: goopenai.ChatMessagePartTypeText,
		Text: req.Prompt,
	}}
	if req.Image != "" {
		parts = append(parts, goopenai.ChatMessagePart{
			Type: goopenai.ChatMessagePartTypeImageURL,
			ImageURL: &goopenai.ChatMessageImageURL{
				URL:    string(req.Image),
				Detail: goopenai.ImageURLDetailAuto,
			},
		})
	}

	chatReq := goopenai.ChatCompletionRequest{
		Model:     c.cfg.Model,
		MaxTokens: req.MaxTokensOr(c.cfg.MaxTokens),
		Messages: []goopenai.ChatCompletionMessage{{
			Role:         goopenai.ChatMessageRoleUser,
			MultiContent: parts,
		}},
	}

	if req.Schema != nil {
		raw, err := json.Marshal(req.Schema.Definition)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal schema: %w", err)
		}
		chatReq.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &goopenai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.Schema.Name,
				Schema: json.RawMessage(raw),
				Strict: true,
			},
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: %w", provider.ErrEmptyResponse)
	}

	return &provider.Response{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage: provider.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
