package llm

import (
	"github.com/cloudwego/eino/schema"

	"github.com/rag-komite-audit/server/internal/agent/model"
	logx "github.com/rag-komite-audit/server/pkg/logger"
)

// TokensUsed returns the total token count reported by the provider, falling
// back to a character-based estimate over the prompt and completion when the
// response carries no usage metadata.
func TokensUsed(out *schema.Message, promptText, completionText string) int {
	if out != nil && out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		return out.ResponseMeta.Usage.TotalTokens
	}
	return model.EstimateTokens(promptText) + model.EstimateTokens(completionText)
}

// LogUsage emits a debug line with token counts and estimated cost for one
// completion.
func LogUsage(purpose, modelName string, out *schema.Message) {
	if out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	usage := out.ResponseMeta.Usage
	_, _, cost := model.ComputeCost(usage, model.ResolvePricing(modelName))
	logx.Debug().
		Str("purpose", purpose).
		Str("model", modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("cost_usd", cost).
		Msg("Token usage")
}
