package onboarding

import "github.com/yungbote/brandprompt-backend/internal/domain/brand"

const PromptSetSchemaName = "brand_prompt_set"

// PromptSetSchema is the strict output schema: exactly 10 categories of
// exactly 5 questions.
func PromptSetSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"categories": map[string]any{
				"type":     "array",
				"minItems": brand.SynthesizedCategoryCount,
				"maxItems": brand.SynthesizedCategoryCount,
				"items":    categorySchema(),
			},
		},
		"required":             []string{"categories"},
		"additionalProperties": false,
	}
}

func categorySchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
			"questions": map[string]any{
				"type":     "array",
				"minItems": brand.SynthesizedQuestionCount,
				"maxItems": brand.SynthesizedQuestionCount,
				"items":    map[string]any{"type": "string"},
			},
		},
		"required":             []string{"name", "questions"},
		"additionalProperties": false,
	}
}
