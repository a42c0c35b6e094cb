package recipe

import (
	"encoding/json"
	"fmt"

	"photo-recipe/internal/core/ai/provider"
)

// ContractVariant 與模型約定的輸出形式
type ContractVariant string

const (
	// ContractStructured {recipes:[{title,ingredients[],instructions[]}]}
	ContractStructured ContractVariant = "structured"
	// ContractRawText {recipes:[string]}
	ContractRawText ContractVariant = "raw_text"
)

const basePrompt = `You are a world-class chef, skilled at identifying ingredients and suggesting recipes.

Based on the attached photo of ingredients, suggest a list of possible recipes that can be made. %s Focus on recipes that highlight the ingredients in the photo.

Respond with a JSON object of the form %s and nothing else.
Recipes:`

const (
	structuredInstruction = "For each recipe, provide a clear title, a list of ingredients, and step-by-step instructions."
	rawTextInstruction    = `Describe each recipe as a single string that starts with the recipe name followed by a colon, for example "Tomato Soup: simmer the tomatoes...".`
)

// Contract 不可變的 prompt 與輸出 schema，在啟動時建立一次
type Contract struct {
	variant    ContractVariant
	prompt     string
	schemaName string
	schemaJSON []byte
}

// NewContract 依變體建立契約
func NewContract(variant ContractVariant) (*Contract, error) {
	var (
		instruction string
		shape       string
		schema      map[string]any
	)

	switch variant {
	case ContractStructured:
		instruction = structuredInstruction
		shape = `{"recipes":[{"title":"...","ingredients":["..."],"instructions":["..."]}]}`
		schema = structuredSchema()
	case ContractRawText:
		instruction = rawTextInstruction
		shape = `{"recipes":["..."]}`
		schema = rawTextSchema()
	default:
		return nil, fmt.Errorf("unknown contract variant %q", variant)
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	return &Contract{
		variant:    variant,
		prompt:     fmt.Sprintf(basePrompt, instruction, shape),
		schemaName: "recipe_suggestions",
		schemaJSON: raw,
	}, nil
}

// Variant 契約變體
func (c *Contract) Variant() ContractVariant { return c.variant }

// Prompt 固定的指令模板
func (c *Contract) Prompt() string { return c.prompt }

// Schema 每次回傳新的副本，呼叫端修改不影響契約
func (c *Contract) Schema() *provider.Schema {
	var def map[string]any
	_ = json.Unmarshal(c.schemaJSON, &def)
	return &provider.Schema{Name: c.schemaName, Definition: def}
}

func stringArray(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"description": description,
		"items":       map[string]any{"type": "string"},
	}
}

func structuredSchema() map[string]any {
	recipe := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "The title of the recipe.",
			},
			"ingredients":  stringArray("A list of ingredients for the recipe."),
			"instructions": stringArray("Step-by-step instructions for preparing the recipe."),
		},
		"required":             []string{"title", "ingredients", "instructions"},
		"additionalProperties": false,
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"recipes": map[string]any{
				"type":        "array",
				"description": "An array of possible recipes, each with a title, ingredients, and instructions.",
				"items":       recipe,
			},
		},
		"required":             []string{"recipes"},
		"additionalProperties": false,
	}
}

func rawTextSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"recipes": stringArray("An array of possible recipes, each described as free text."),
		},
		"required":             []string{"recipes"},
		"additionalProperties": false,
	}
}
