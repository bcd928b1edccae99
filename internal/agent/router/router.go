package router

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/rag-komite-audit/server/internal/agent/llm"
	"github.com/rag-komite-audit/server/internal/agent/model"
	"github.com/rag-komite-audit/server/internal/agent/prompts"
	logx "github.com/rag-komite-audit/server/pkg/logger"
)

// Router classifies queries to expert agents with one JSON-mode LLM call.
type Router struct {
	chat      llm.ChatModel
	modelName string
}

func New(chat llm.ChatModel, modelName string) *Router {
	return &Router{chat: chat, modelName: modelName}
}

// fallbackDecision is returned whenever routing cannot complete. The default
// expert always exists, so the pipeline keeps moving.
func fallbackDecision(reasoning string) model.RoutingDecision {
	return model.RoutingDecision{
		PrimaryAgent:    model.DefaultExpertKey,
		SecondaryAgents: []string{},
		Reasoning:       reasoning,
	}
}

// Route decides which experts should answer the query. It never returns an
// error: any failure degrades to the default expert.
func (r *Router) Route(ctx context.Context, query string) model.RoutingDecision {
	system, err := prompts.RenderRouterSystem(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("Error rendering router prompt")
		return fallbackDecision("Default routing due to error")
	}

	out, err := r.chat.Generate(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(prompts.RouterUserMessage(query)),
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error routing query")
		return fallbackDecision("Default routing due to error")
	}
	llm.LogUsage("router", r.modelName, out)

	var decision model.RoutingDecision
	if err := llm.UnmarshalResponse(out.Content, &decision); err != nil {
		logx.Error().Err(err).Msg("Error parsing routing decision")
		return fallbackDecision("Default routing due to error")
	}

	decision.PrimaryAgent = strings.TrimSpace(decision.PrimaryAgent)
	if decision.PrimaryAgent == "" {
		return fallbackDecision("Default routing due to empty decision")
	}
	if decision.SecondaryAgents == nil {
		decision.SecondaryAgents = []string{}
	}

	logx.Info().
		Str("primary_agent", decision.PrimaryAgent).
		Strs("secondary_agents", decision.SecondaryAgents).
		Msg("Query routed")
	return decision
}
