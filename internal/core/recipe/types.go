package recipe

// SuggestionKind 推薦內容的形式
type SuggestionKind string

const (
	// KindStructured 含標題、食材與步驟的結構化食譜
	KindStructured SuggestionKind = "structured"
	// KindRawText 未結構化的一段文字
	KindRawText SuggestionKind = "raw_text"
)

// RecipeDetail 結構化食譜
type RecipeDetail struct {
	Title        string   `json:"title"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
}

// normalize 確保陣列不為 nil
func (r *RecipeDetail) normalize() {
	if r.Ingredients == nil {
		r.Ingredients = []string{}
	}
	if r.Instructions == nil {
		r.Instructions = []string{}
	}
}

// Suggestion 單筆推薦，Kind 決定 Recipe 或 Text 何者有效
type Suggestion struct {
	Kind   SuggestionKind `json:"kind"`
	Recipe *RecipeDetail  `json:"recipe,omitempty"`
	Text   string         `json:"text,omitempty"`
}

// Structured 建立結構化推薦
func Structured(r RecipeDetail) Suggestion {
	r.normalize()
	return Suggestion{Kind: KindStructured, Recipe: &r}
}

// RawText 建立文字推薦
func RawText(text string) Suggestion {
	return Suggestion{Kind: KindRawText, Text: text}
}

// SuggestionResult 一次請求的推薦結果，Suggestions 永不為 nil
type SuggestionResult struct {
	Suggestions []Suggestion `json:"suggestions"`
}

// NewSuggestionResult 建立結果並保證切片不為 nil
func NewSuggestionResult(suggestions []Suggestion) *SuggestionResult {
	if suggestions == nil {
		suggestions = []Suggestion{}
	}
	return &SuggestionResult{Suggestions: suggestions}
}

// Empty 是否沒有任何推薦
func (r *SuggestionResult) Empty() bool {
	return r == nil || len(r.Suggestions) == 0
}

// Card 可直接顯示的食譜卡片
type Card struct {
	Index        int            `json:"index"`
	Kind         SuggestionKind `json:"kind"`
	Title        string         `json:"title"`
	Body         string         `json:"body,omitempty"`
	Ingredients  []string       `json:"ingredients,omitempty"`
	Instructions []string       `json:"instructions,omitempty"`
	NoDetails    bool           `json:"no_details,omitempty"`
}
