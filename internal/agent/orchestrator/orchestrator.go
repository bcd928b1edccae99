package orchestrator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rag-komite-audit/server/internal/agent/experts"
	"github.com/rag-komite-audit/server/internal/agent/model"
	logx "github.com/rag-komite-audit/server/pkg/logger"
)

const (
	// ApologyMessage is returned when no expert produced an answer.
	ApologyMessage = "Maaf, tidak dapat memproses pertanyaan."

	errorResponsePrefix = "Terjadi kesalahan dalam memproses pertanyaan: "
)

// QueryRouter decides which experts answer a query.
type QueryRouter interface {
	Route(ctx context.Context, query string) model.RoutingDecision
}

// Agent is one expert persona in the registry.
type Agent interface {
	DisplayName() string
	Process(ctx context.Context, query string, contexts []string, history []model.ConversationTurn) experts.Result
}

// ContextRetriever returns co-indexed contexts, document IDs, and scores.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string, documentIDs []string) ([]string, []string, []float64)
}

// ResponseSynthesizer merges expert answers into the final response.
type ResponseSynthesizer interface {
	Synthesize(ctx context.Context, query string, answers []model.AgentAnswer) string
}

// ConversationStore persists turns and per-agent execution logs.
type ConversationStore interface {
	CreateConversation(ctx context.Context, turn model.ConversationTurn) (model.ConversationTurn, error)
	LogAgentExecution(ctx context.Context, log model.AgentExecutionLog) error
}

// HistoryCache serves and records recent turns for a session.
type HistoryCache interface {
	RecentTurns(ctx context.Context, sessionID string, limit int) ([]model.ConversationTurn, error)
	AppendTurn(ctx context.Context, turn model.ConversationTurn) error
}

// Orchestrator sequences route, retrieve, fan-out, synthesize, and persist
// for every query. Its Process method never returns an error; failures are
// folded into the result.
type Orchestrator struct {
	router       QueryRouter
	agents       map[string]Agent
	retriever    ContextRetriever
	synthesizer  ResponseSynthesizer
	store        ConversationStore
	sessions     HistoryCache
	cfg          model.OrchestratorConfig
	conversation model.ConversationConfig
}

func New(
	router QueryRouter,
	agents map[string]Agent,
	retriever ContextRetriever,
	synthesizer ResponseSynthesizer,
	store ConversationStore,
	sessions HistoryCache,
	cfg model.OrchestratorConfig,
	conversation model.ConversationConfig,
) (*Orchestrator, error) {
	if _, ok := agents[model.DefaultExpertKey]; !ok {
		return nil, fmt.Errorf("agent registry is missing the default expert %q", model.DefaultExpertKey)
	}
	for key := range agents {
		if err := model.ValidateExpertKey(key); err != nil {
			return nil, fmt.Errorf("agent registry: %w", err)
		}
	}
	return &Orchestrator{
		router:       router,
		agents:       agents,
		retriever:    retriever,
		synthesizer:  synthesizer,
		store:        store,
		sessions:     sessions,
		cfg:          cfg,
		conversation: conversation,
	}, nil
}

// Process runs one query through the full pipeline.
func (o *Orchestrator) Process(ctx context.Context, input model.QueryInput) model.OrchestrationResult {
	start := time.Now()
	logx.Info().Str("session_id", input.SessionID).Str("query", truncate(input.Query, 100)).Msg("Processing query")

	maxAgents := input.MaxAgents
	if maxAgents <= 0 {
		maxAgents = o.cfg.MaxAgents
	}

	routing := o.router.Route(ctx, input.Query)

	contexts, documentIDs, scores := []string{}, []string{}, []float64{}
	if input.UseContext {
		contexts, documentIDs, scores = o.retriever.Retrieve(ctx, input.Query, input.DocumentIDs)
	}

	history, err := o.sessions.RecentTurns(ctx, input.SessionID, o.conversation.HistoryTurns)
	if err != nil {
		logx.Error().Err(err).Str("session_id", input.SessionID).Msg("Error loading conversation history")
		history = nil
	}

	answers, execLogs := o.fanOut(ctx, routing, maxAgents, input.Query, contexts, history)

	finalResponse := ApologyMessage
	if len(answers) > 0 {
		finalResponse = o.synthesizer.Synthesize(ctx, input.Query, answers)
	}

	agentsUsed := make([]string, 0, len(answers))
	for _, a := range answers {
		agentsUsed = append(agentsUsed, a.AgentName)
	}

	totalMs := int(time.Since(start).Milliseconds())

	turn, err := o.store.CreateConversation(ctx, model.ConversationTurn{
		SessionID:        input.SessionID,
		UserQuery:        input.Query,
		AgentResponse:    finalResponse,
		AgentsUsed:       agentsUsed,
		ContextDocuments: documentIDs,
		SimilarityScores: scores,
		ProcessingTimeMs: totalMs,
	})
	if err != nil {
		logx.Error().Err(err).Str("session_id", input.SessionID).Msg("Error persisting conversation")
		return model.OrchestrationResult{
			Success:    false,
			Response:   errorResponsePrefix + err.Error(),
			AgentsUsed: []string{},
			Error:      err.Error(),
		}
	}

	if err := o.sessions.AppendTurn(ctx, turn); err != nil {
		logx.Warn().Err(err).Str("session_id", input.SessionID).Msg("Error caching conversation turn")
	}

	for _, execLog := range execLogs {
		execLog.ConversationID = turn.ID
		if err := o.store.LogAgentExecution(ctx, execLog); err != nil {
			logx.Warn().Err(err).Str("agent_key", execLog.AgentKey).Msg("Error logging agent execution")
		}
	}

	logx.Info().Int("processing_time_ms", totalMs).Msg("Query processed successfully")

	result := model.OrchestrationResult{
		Success:          true,
		Response:         finalResponse,
		AgentsUsed:       agentsUsed,
		RoutingReasoning: routing.Reasoning,
		ContextCount:     len(contexts),
		ProcessingTimeMs: totalMs,
		ConversationID:   turn.ID,
		Metadata: &model.ResultMetadata{
			DocumentIDs:      documentIDs,
			SimilarityScores: scores,
		},
	}
	if len(answers) > 1 {
		responses := make(map[string]string, len(answers))
		for _, a := range answers {
			responses[a.AgentName] = a.Response
		}
		result.Metadata.AgentResponses = responses
	}
	return result
}

// fanOut runs the routed experts concurrently. Unknown agent keys are
// skipped; failed experts contribute an execution log but no answer.
func (o *Orchestrator) fanOut(
	ctx context.Context,
	routing model.RoutingDecision,
	maxAgents int,
	query string,
	contexts []string,
	history []model.ConversationTurn,
) ([]model.AgentAnswer, []model.AgentExecutionLog) {
	keys := []string{routing.PrimaryAgent}
	for _, key := range routing.SecondaryAgents {
		if len(keys) >= maxAgents {
			break
		}
		keys = append(keys, key)
	}

	type task struct {
		key   string
		agent Agent
	}
	tasks := make([]task, 0, len(keys))
	for _, key := range keys {
		agent, ok := o.agents[key]
		if !ok {
			logx.Warn().Str("agent_key", key).Msg("Skipping unknown agent key")
			continue
		}
		tasks = append(tasks, task{key: key, agent: agent})
	}

	results := make([]experts.Result, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tasks {
		g.Go(func() error {
			results[i] = t.agent.Process(gctx, query, contexts, history)
			return nil
		})
	}
	// Tasks swallow their own failures, so the group never errors.
	_ = g.Wait()

	answers := make([]model.AgentAnswer, 0, len(tasks))
	execLogs := make([]model.AgentExecutionLog, 0, len(tasks))
	for i, t := range tasks {
		res := results[i]
		execLogs = append(execLogs, model.AgentExecutionLog{
			AgentName:       t.agent.DisplayName(),
			AgentKey:        t.key,
			InputText:       query,
			OutputText:      res.Response,
			ExecutionTimeMs: res.ExecutionTimeMs,
			TokensUsed:      res.TokensUsed,
			Status:          res.Status,
			ErrorMessage:    res.ErrorMessage,
		})
		if res.Status == model.ExecutionStatusSuccess {
			answers = append(answers, model.AgentAnswer{
				AgentKey:  t.key,
				AgentName: t.agent.DisplayName(),
				Response:  res.Response,
			})
		}
	}
	return answers, execLogs
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
