package analysts

import (
	"context"
	"encoding/json"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/rag-komite-audit/server/internal/agent/llm"
	logx "github.com/rag-komite-audit/server/pkg/logger"
)

// Outcome is the always-valid result of a document analysis: either the
// model's parsed JSON or a schema-shaped fallback, never an error.
type Outcome struct {
	Result          json.RawMessage
	FellBack        bool
	FallbackReason  string
	ExecutionTimeMs int
	TokensUsed      int
}

// generateJSON runs one JSON-mode analysis call and extracts the JSON object
// from the response. The caller supplies the fallback when any step fails.
func generateJSON(ctx context.Context, chat llm.ChatModel, modelName, purpose, system, request string, maxTokens int) (json.RawMessage, int, error) {
	out, err := chat.Generate(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(request),
	}, einomodel.WithMaxTokens(maxTokens))
	if err != nil {
		logx.Error().Err(err).Str("purpose", purpose).Msg("Error in analysis call")
		return nil, 0, err
	}
	llm.LogUsage(purpose, modelName, out)

	raw, err := llm.ExtractJSONObject(out.Content)
	if err != nil {
		logx.Error().Err(err).Str("purpose", purpose).Msg("Error parsing analysis response")
		return nil, 0, err
	}
	return raw, llm.TokensUsed(out, request, out.Content), nil
}

func elapsedMs(start time.Time) int {
	return int(time.Since(start).Milliseconds())
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
