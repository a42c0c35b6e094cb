package recipe

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// NoDetailsMessage 結構化食譜沒有食材也沒有步驟時的提示
const NoDetailsMessage = "No detailed information available for this recipe."

// titleBound 標題長度上限（不含），以字元計
const titleBound = 80

// leadingSegment 第一個冒號前不含換行的片段，其餘為內文
var leadingSegment = regexp.MustCompile(`(?s)^([^:\n]+):(.*)$`)

// Placeholder 第 n 筆（從 1 起算）推薦的預設標題
func Placeholder(n int) string {
	return fmt.Sprintf("Suggestion %d", n)
}

// SplitRawText 將一段文字拆成標題與內文，position 從 0 起算。
//
// 依序套用：
//  1. "<標題>:<內文>"，標題不含換行或冒號，修剪後長度在 (0, 80)
//  2. 整段少於 80 字元且沒有換行或冒號時整段作為標題
//  3. 其他情況使用 "Suggestion N"，內文為原文
func SplitRawText(text string, position int) (title, body string) {
	if m := leadingSegment.FindStringSubmatch(text); m != nil {
		lead := strings.TrimSpace(m[1])
		if n := utf8.RuneCountInString(lead); n > 0 && n < titleBound {
			return lead, strings.TrimSpace(m[2])
		}
	}

	// 空白文字不作為標題，改用規則 3 的 "Suggestion N"
	if utf8.RuneCountInString(text) < titleBound &&
		!strings.ContainsAny(text, ":\n") &&
		strings.TrimSpace(text) != "" {
		return text, ""
	}

	return Placeholder(position + 1), text
}

// Present 將單筆推薦轉成卡片，position 從 0 起算
func Present(s Suggestion, position int) Card {
	card := Card{
		Index: position + 1,
		Kind:  s.Kind,
	}

	if s.Kind == KindStructured && s.Recipe != nil {
		card.Title = s.Recipe.Title
		if strings.TrimSpace(card.Title) == "" {
			card.Title = Placeholder(position + 1)
		}
		card.Ingredients = s.Recipe.Ingredients
		card.Instructions = s.Recipe.Instructions
		card.NoDetails = len(card.Ingredients) == 0 && len(card.Instructions) == 0
		return card
	}

	card.Kind = KindRawText
	card.Title, card.Body = SplitRawText(s.Text, position)
	return card
}

// PresentAll 依輸入順序為每筆推薦產生一張卡片
func PresentAll(result *SuggestionResult) []Card {
	if result.Empty() {
		return []Card{}
	}
	cards := make([]Card, len(result.Suggestions))
	for i, s := range result.Suggestions {
		cards[i] = Present(s, i)
	}
	return cards
}
