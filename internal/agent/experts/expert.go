package experts

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/rag-komite-audit/server/internal/agent/llm"
	"github.com/rag-komite-audit/server/internal/agent/model"
	"github.com/rag-komite-audit/server/internal/agent/prompts"
	logx "github.com/rag-komite-audit/server/pkg/logger"
)

// Result is one expert's answer plus its telemetry.
type Result struct {
	Response        string
	ExecutionTimeMs int
	TokensUsed      int
	Status          string
	ErrorMessage    string
}

// Expert answers queries in one persona from the registry.
type Expert struct {
	Profile   model.ExpertProfile
	chat      llm.ChatModel
	modelName string
}

func New(profile model.ExpertProfile, chat llm.ChatModel, modelName string) *Expert {
	return &Expert{Profile: profile, chat: chat, modelName: modelName}
}

// DisplayName is the human-readable agent name used in results and logs.
func (e *Expert) DisplayName() string {
	return e.Profile.Name
}

// NewRegistry builds one expert per registered profile, keyed by agent key.
func NewRegistry(chat llm.ChatModel, modelName string) map[string]*Expert {
	registry := make(map[string]*Expert)
	for _, p := range model.ExpertProfiles() {
		registry[p.Key] = New(p, chat, modelName)
	}
	return registry
}

// Process answers the query with retrieved context and recent history. It
// never returns an error: failures produce a Result with error status whose
// response text states the failure.
func (e *Expert) Process(ctx context.Context, query string, contexts []string, history []model.ConversationTurn) Result {
	start := time.Now()

	system, err := prompts.RenderExpertSystem(ctx, e.Profile)
	if err != nil {
		logx.Error().Err(err).Str("agent_key", e.Profile.Key).Msg("Error rendering expert prompt")
		return e.failure(start, err)
	}

	messages := make([]*schema.Message, 0, 2*len(history)+2)
	messages = append(messages, schema.SystemMessage(system))
	for _, turn := range history {
		messages = append(messages, schema.UserMessage(turn.UserQuery))
		if turn.AgentResponse != "" {
			messages = append(messages, schema.AssistantMessage(turn.AgentResponse, nil))
		}
	}
	userMessage := prompts.BuildContextualQuery(query, contexts)
	messages = append(messages, schema.UserMessage(userMessage))

	out, err := e.chat.Generate(ctx, messages)
	if err != nil {
		logx.Error().Err(err).Str("agent_key", e.Profile.Key).Msg("Error processing query")
		return e.failure(start, err)
	}
	llm.LogUsage("expert", e.modelName, out)

	elapsed := int(time.Since(start).Milliseconds())
	logx.Info().
		Str("agent_key", e.Profile.Key).
		Int("execution_time_ms", elapsed).
		Msg("Expert processed query")

	return Result{
		Response:        out.Content,
		ExecutionTimeMs: elapsed,
		TokensUsed:      llm.TokensUsed(out, userMessage, out.Content),
		Status:          model.ExecutionStatusSuccess,
	}
}

func (e *Expert) failure(start time.Time, err error) Result {
	return Result{
		Response:        fmt.Sprintf("Error processing query: %v", err),
		ExecutionTimeMs: int(time.Since(start).Milliseconds()),
		Status:          model.ExecutionStatusError,
		ErrorMessage:    err.Error(),
	}
}
