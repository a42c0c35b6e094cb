package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"photo-recipe/internal/core/ai/provider"
	"photo-recipe/internal/pkg/common"
)

// Client Anthropic Messages API 客戶端
type Client struct {
	client     sdk.Client
	httpClient *http.Client
	cfg        provider.Config
}

// NewClient 創建新的 Anthropic 客戶端
func NewClient(cfg provider.Config) *Client {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		client:     sdk.NewClient(opts...),
		httpClient: httpClient,
		cfg:        cfg,
	}
}

// Name 提供者名稱
func (c *Client) Name() string { return "anthropic" }

// GetModel 獲取當前使用的模型名稱
func (c *Client) GetModel() string { return c.cfg.Model }

// GetTimeout 獲取請求超時時間
func (c *Client) GetTimeout() time.Duration { return c.cfg.Timeout }

// Generate 呼叫 Messages API。
// Messages API 沒有結構化輸出參數，schema 以文字附在 prompt 之後。
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	prompt := req.Prompt
	if req.Schema != nil {
		schema, err := common.ToJSON(req.Schema.Definition)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal schema: %w", err)
		}
		prompt += "\n\nRespond only with JSON matching this schema:\n" + schema
	}

	var blocks []sdk.ContentBlockParamUnion
	if req.Image != "" {
		mimeType, err := req.Image.MIMEType()
		if err != nil {
			return nil, fmt.Errorf("anthropic image: %w", err)
		}
		data, err := req.Image.Base64()
		if err != nil {
			return nil, fmt.Errorf("anthropic image: %w", err)
		}
		blocks = append(blocks, sdk.NewImageBlockBase64(mimeType, data))
	}
	blocks = append(blocks, sdk.NewTextBlock(prompt))

	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.cfg.Model),
		MaxTokens: int64(req.MaxTokensOr(c.cfg.MaxTokens)),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(blocks...),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic messages: %w", err)
	}

	var b strings.Builder
	for _, cb := range msg.Content {
		if tb, ok := cb.AsAny().(sdk.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}

	return &provider.Response{
		Content: b.String(),
		Model:   string(msg.Model),
		Usage: provider.Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}, nil
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
