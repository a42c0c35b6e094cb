package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"photo-recipe/internal/core/ai/provider"
)

// Client Google Gemini 客戶端
type Client struct {
	client *genai.Client
	cfg    provider.Config
}

// NewClient 創建新的 Gemini 客戶端，extra 會附加在預設選項之後
func NewClient(ctx context.Context, cfg provider.Config, extra ...option.ClientOption) (*Client, error) {
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}
	opts = append(opts, extra...)

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	return &Client{client: client, cfg: cfg}, nil
}

// Name 提供者名稱
func (c *Client) Name() string { return "gemini" }

// GetModel 獲取當前使用的模型名稱
func (c *Client) GetModel() string { return c.cfg.Model }

// GetTimeout 獲取請求超時時間
func (c *Client) GetTimeout() time.Duration { return c.cfg.Timeout }

// Generate 以 inline 圖片與 ResponseSchema 呼叫 GenerateContent
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	model := c.client.GenerativeModel(c.cfg.Model)
	model.SetMaxOutputTokens(int32(req.MaxTokensOr(c.cfg.MaxTokens)))
	if req.Schema != nil {
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = ToGenaiSchema(req.Schema.Definition)
	}

	parts := []genai.Part{genai.Text(req.Prompt)}
	if req.Image != "" {
		mimeType, data, err := req.Image.Decode()
		if err != nil {
			return nil, fmt.Errorf("gemini image: %w", err)
		}
		parts = append(parts, genai.ImageData(strings.TrimPrefix(mimeType, "image/"), data))
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini: %w", provider.ErrEmptyResponse)
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}

	out := &provider.Response{
		Content: b.String(),
		Model:   c.cfg.Model,
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = provider.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}

// Close 關閉客戶端
func (c *Client) Close() error {
	return c.client.Close()
}

// ToGenaiSchema 將 JSON Schema（map 形式）轉為 genai.Schema。
// genai 不支援 additionalProperties，轉換時忽略。
func ToGenaiSchema(def map[string]any) *genai.Schema {
	if def == nil {
		return nil
	}

	s := &genai.Schema{}
	switch def["type"] {
	case "object":
		s.Type = genai.TypeObject
	case "array":
		s.Type = genai.TypeArray
	case "string":
		s.Type = genai.TypeString
	case "integer":
		s.Type = genai.TypeInteger
	case "number":
		s.Type = genai.TypeNumber
	case "boolean":
		s.Type = genai.TypeBoolean
	}

	if desc, ok := def["description"].(string); ok {
		s.Description = desc
	}
	if props, ok := def["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			if pm, ok := p.(map[string]any); ok {
				s.Properties[name] = ToGenaiSchema(pm)
			}
		}
	}
	if items, ok := def["items"].(map[string]any); ok {
		s.Items = ToGenaiSchema(items)
	}
	switch req := def["required"].(type) {
	case []string:
		s.Required = append([]string(nil), req...)
	case []any:
		for _, r := range req {
			if name, ok := r.(string); ok {
				s.Required = append(s.Required, name)
			}
		}
	}
	return s
}
