package synthesis

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/rag-komite-audit/server/internal/agent/llm"
	"github.com/rag-komite-audit/server/internal/agent/model"
	"github.com/rag-komite-audit/server/internal/agent/prompts"
	logx "github.com/rag-komite-audit/server/pkg/logger"
)

// Synthesizer merges multiple expert answers into one coherent response.
type Synthesizer struct {
	chat      llm.ChatModel
	modelName string
}

func New(chat llm.ChatModel, modelName string) *Synthesizer {
	return &Synthesizer{chat: chat, modelName: modelName}
}

// Synthesize combines the answers. A single answer passes through without an
// LLM call; on LLM failure all answers are concatenated under their agent
// names so the user always receives something.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, answers []model.AgentAnswer) string {
	if len(answers) == 0 {
		return ""
	}
	if len(answers) == 1 {
		return answers[0].Response
	}

	system, err := prompts.RenderSynthesisSystem(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("Error rendering synthesis prompt")
		return concatFallback(answers)
	}

	out, err := s.chat.Generate(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(prompts.BuildSynthesisRequest(query, answers)),
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error synthesizing responses")
		return concatFallback(answers)
	}
	llm.LogUsage("synthesis", s.modelName, out)

	logx.Info().Int("answers", len(answers)).Msg("Responses synthesized")
	return out.Content
}

func concatFallback(answers []model.AgentAnswer) string {
	blocks := make([]string, 0, len(answers))
	for _, a := range answers {
		blocks = append(blocks, fmt.Sprintf("**%s:**\n%s", a.AgentName, a.Response))
	}
	return strings.Join(blocks, "\n\n---\n\n")
}
