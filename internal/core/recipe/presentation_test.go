package recipe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitRawText(t *testing.T) {
	long := strings.Repeat("a", 80)

	tests := []struct {
		name      string
		text      string
		position  int
		wantTitle string
		wantBody  string
	}{
		{
			name:      "leading segment before colon",
			text:      "Pasta: boil water, add pasta",
			wantTitle: "Pasta",
			wantBody:  "boil water, add pasta",
		},
		{
			name:      "short text without colon",
			text:      "Quick Salad",
			wantTitle: "Quick Salad",
			wantBody:  "",
		},
		{
			name:      "colon with empty rest",
			text:      "  Omelette  :   ",
			wantTitle: "Omelette",
			wantBody:  "",
		},
		{
			name:      "body keeps later colons and newlines",
			text:      "Stew: step 1: brown meat\nstep 2: simmer",
			wantTitle: "Stew",
			wantBody:  "step 1: brown meat\nstep 2: simmer",
		},
		{
			name:      "newline before colon",
			text:      "Some intro text\nSoup: simmer",
			position:  2,
			wantTitle: "Suggestion 3",
			wantBody:  "Some intro text\nSoup: simmer",
		},
		{
			name:      "leading segment too long",
			text:      long + ": body",
			wantTitle: "Suggestion 1",
			wantBody:  long + ": body",
		},
		{
			name:      "leading segment is whitespace",
			text:      "   : body",
			wantTitle: "Suggestion 1",
			wantBody:  "   : body",
		},
		{
			name:      "long text without colon",
			text:      long,
			position:  1,
			wantTitle: "Suggestion 2",
			wantBody:  long,
		},
		{
			name:      "whitespace only",
			text:      "   ",
			wantTitle: "Suggestion 1",
			wantBody:  "   ",
		},
		{
			name:      "empty",
			text:      "",
			position:  4,
			wantTitle: "Suggestion 5",
			wantBody:  "",
		},
		{
			name:      "multi-byte title counted in characters",
			text:      strings.Repeat("é", 79) + ": crème",
			wantTitle: strings.Repeat("é", 79),
			wantBody:  "crème",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body := SplitRawText(tt.text, tt.position)
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestSplitRawTextIsPure(t *testing.T) {
	text := "Pancakes: mix and fry"
	t1, b1 := SplitRawText(text, 0)
	t2, b2 := SplitRawText(text, 0)
	assert.Equal(t, t1, t2)
	assert.Equal(t, b1, b2)
}

func TestPresentStructured(t *testing.T) {
	t.Run("full recipe", func(t *testing.T) {
		card := Present(Structured(RecipeDetail{
			Title:        "Tomato Soup",
			Ingredients:  []string{"tomatoes", "salt"},
			Instructions: []string{"simmer"},
		}), 0)

		assert.Equal(t, 1, card.Index)
		assert.Equal(t, "Tomato Soup", card.Title)
		assert.Equal(t, []string{"tomatoes", "salt"}, card.Ingredients)
		assert.Equal(t, []string{"simmer"}, card.Instructions)
		assert.False(t, card.NoDetails)
	})

	t.Run("empty title uses placeholder", func(t *testing.T) {
		card := Present(Structured(RecipeDetail{Ingredients: []string{"egg"}}), 3)
		assert.Equal(t, "Suggestion 4", card.Title)
		assert.False(t, card.NoDetails)
	})

	t.Run("no details only when both lists empty", func(t *testing.T) {
		card := Present(Structured(RecipeDetail{Title: "Mystery"}), 0)
		assert.True(t, card.NoDetails)

		card = Present(Structured(RecipeDetail{Title: "Steps only", Instructions: []string{"wait"}}), 0)
		assert.False(t, card.NoDetails)
	})
}

func TestPresentAllKeepsOrder(t *testing.T) {
	result := NewSuggestionResult([]Suggestion{
		RawText("Pasta: boil"),
		Structured(RecipeDetail{Title: "Salad"}),
		RawText("Line one\nline two"),
	})

	cards := PresentAll(result)
	assert.Len(t, cards, 3)
	assert.Equal(t, "Pasta", cards[0].Title)
	assert.Equal(t, "Salad", cards[1].Title)
	assert.Equal(t, "Suggestion 3", cards[2].Title)
	for i, c := range cards {
		assert.Equal(t, i+1, c.Index)
	}

	assert.Empty(t, PresentAll(NewSuggestionResult(nil)))
	assert.NotNil(t, PresentAll(nil))
}
