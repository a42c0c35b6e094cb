package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"photo-recipe/internal/core/ai/provider"
)

const defaultHost = "http://localhost:11434"

// Client 本地 Ollama 客戶端
type Client struct {
	client     *api.Client
	httpClient *http.Client
	cfg        provider.Config
}

// NewClient 創建新的 Ollama 客戶端，BaseURL 為 Ollama host
func NewClient(cfg provider.Config) (*Client, error) {
	host := cfg.BaseURL
	if host == "" {
		host = defaultHost
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	return &Client{
		client:     api.NewClient(u, httpClient),
		httpClient: httpClient,
		cfg:        cfg,
	}, nil
}

// Name 提供者名稱
func (c *Client) Name() string { return "ollama" }

// GetModel 獲取當前使用的模型名稱
func (c *Client) GetModel() string { return c.cfg.Model }

// GetTimeout 獲取請求超時時間
func (c *Client) GetTimeout() time.Duration { return c.cfg.Timeout }

// Generate 以非串流模式呼叫 /api/generate
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	stream := false
	genReq := &api.GenerateRequest{
		Model:  c.cfg.Model,
		Prompt: req.Prompt,
		Stream: &stream,
		Options: map[string]any{
			"num_predict": req.MaxTokensOr(c.cfg.MaxTokens),
		},
	}

	if req.Image != "" {
		_, data, err := req.Image.Decode()
		if err != nil {
			return nil, fmt.Errorf("ollama image: %w", err)
		}
		genReq.Images = []api.ImageData{data}
	}

	if req.Schema != nil {
		raw, err := json.Marshal(req.Schema.Definition)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal schema: %w", err)
		}
		genReq.Format = json.RawMessage(raw)
	}

	var (
		text strings.Builder
		last api.GenerateResponse
	)
	if err := c.client.Generate(ctx, genReq, func(gr api.GenerateResponse) error {
		text.WriteString(gr.Response)
		last = gr
		return nil
	}); err != nil {
		return nil, fmt.Errorf("ollama generate: %w", err)
	}

	model := last.Model
	if model == "" {
		model = c.cfg.Model
	}
	return &provider.Response{
		Content: text.String(),
		Model:   model,
		Usage: provider.Usage{
			PromptTokens:     last.PromptEvalCount,
			CompletionTokens: last.EvalCount,
			TotalTokens:      last.PromptEvalCount + last.EvalCount,
		},
	}, nil
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
