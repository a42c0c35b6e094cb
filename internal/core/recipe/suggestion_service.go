package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"photo-recipe/internal/core/ai/provider"
	"photo-recipe/internal/core/image"
	"photo-recipe/internal/pkg/common"
)

// Generator 單次模型呼叫
type Generator interface {
	Generate(ctx context.Context, req *provider.Request) (*provider.Response, error)
}

// SuggestionService 食譜推薦服務。無狀態，每次請求都直接呼叫模型。
type SuggestionService struct {
	ai       Generator
	contract *Contract
}

// NewSuggestionService 創建新的食譜推薦服務
func NewSuggestionService(ai Generator, contract *Contract) *SuggestionService {
	return &SuggestionService{
		ai:       ai,
		contract: contract,
	}
}

// Contract 目前使用的契約
func (s *SuggestionService) Contract() *Contract {
	return s.contract
}

// SuggestRecipesFromPhoto 根據食材照片推薦食譜。
// 只有模型呼叫失敗時回傳錯誤；模型沒有可用輸出時回傳空結果。
func (s *SuggestionService) SuggestRecipesFromPhoto(ctx context.Context, photo image.EncodedImage) (*SuggestionResult, error) {
	resp, err := s.ai.Generate(ctx, &provider.Request{
		Prompt: s.contract.Prompt(),
		Image:  photo,
		Schema: s.contract.Schema(),
	})
	if errors.Is(err, provider.ErrEmptyResponse) {
		common.LogWarn("AI returned no output",
			zap.Error(err),
			zap.String("request_id", common.RequestIDFromContext(ctx)),
		)
		return NewSuggestionResult(nil), nil
	}
	if err != nil {
		return nil, common.ErrAIServiceError.Wrap(err)
	}
	if resp == nil {
		return NewSuggestionResult(nil), nil
	}

	suggestions := s.parse(resp.Content)
	common.LogInfo("recipes suggested",
		zap.String("contract", string(s.contract.Variant())),
		zap.Int("count", len(suggestions)),
		zap.String("request_id", common.RequestIDFromContext(ctx)),
	)
	return NewSuggestionResult(suggestions), nil
}

// parse 將模型輸出轉為推薦列表，任何解析問題都只記錄並回傳空列表
func (s *SuggestionService) parse(content string) []Suggestion {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	jsonText, ok := common.ExtractJSON(content)
	if !ok {
		if s.contract.Variant() == ContractRawText {
			return []Suggestion{RawText(content)}
		}
		common.LogWarn("AI response contains no JSON", zap.Int("ai_response_length", len(content)))
		return nil
	}

	entries, err := decodeRecipes(jsonText)
	if err != nil {
		// 模型偶爾回傳未加引號的鍵
		if entries, err = decodeRecipes(common.QuoteJSONKeys(jsonText)); err != nil {
			// 文字中的括號不一定是 JSON
			if s.contract.Variant() == ContractRawText {
				return []Suggestion{RawText(content)}
			}
			common.LogWarn("AI response parse failed",
				zap.Error(err),
				zap.Int("ai_response_length", len(jsonText)),
			)
			return nil
		}
	}

	suggestions := make([]Suggestion, 0, len(entries))
	for i, entry := range entries {
		sg, ok := decodeEntry(entry)
		if !ok {
			common.LogDebug("skipping unusable recipe entry", zap.Int("position", i))
			continue
		}
		suggestions = append(suggestions, sg)
	}
	return suggestions
}

// decodeRecipes 取出 recipes 陣列，也接受直接回傳的陣列
func decodeRecipes(jsonText string) ([]json.RawMessage, error) {
	if strings.HasPrefix(jsonText, "[") {
		var entries []json.RawMessage
		if err := common.ParseJSON(jsonText, &entries); err != nil {
			return nil, fmt.Errorf("decode recipe array: %w", err)
		}
		return entries, nil
	}

	var envelope struct {
		Recipes []json.RawMessage `json:"recipes"`
	}
	if err := common.ParseJSON(jsonText, &envelope); err != nil {
		return nil, fmt.Errorf("decode recipes object: %w", err)
	}
	return envelope.Recipes, nil
}

// decodeEntry 字串成為文字推薦，物件成為結構化推薦，null 或其他型別略過
func decodeEntry(entry json.RawMessage) (Suggestion, bool) {
	trimmed := strings.TrimSpace(string(entry))
	switch {
	case trimmed == "" || trimmed == "null":
		return Suggestion{}, false
	case strings.HasPrefix(trimmed, `"`):
		var text string
		if err := json.Unmarshal(entry, &text); err != nil {
			return Suggestion{}, false
		}
		return RawText(text), true
	case strings.HasPrefix(trimmed, "{"):
		var detail RecipeDetail
		if err := json.Unmarshal(entry, &detail); err != nil {
			return Suggestion{}, false
		}
		return Structured(detail), true
	default:
		return Suggestion{}, false
	}
}
