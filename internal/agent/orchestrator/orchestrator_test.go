package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rag-komite-audit/server/internal/agent/experts"
	"github.com/rag-komite-audit/server/internal/agent/model"
)

type mockRouter struct {
	decision model.RoutingDecision
}

func (m *mockRouter) Route(ctx context.Context, query string) model.RoutingDecision {
	return m.decision
}

type mockAgent struct {
	name   string
	result experts.Result
}

func (m *mockAgent) DisplayName() string { return m.name }

func (m *mockAgent) Process(ctx context.Context, query string, contexts []string, history []model.ConversationTurn) experts.Result {
	return m.result
}

type mockRetriever struct {
	contexts []string
	docIDs   []string
	scores   []float64
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string, documentIDs []string) ([]string, []string, []float64) {
	return m.contexts, m.docIDs, m.scores
}

type mockSynthesizer struct {
	response string
	calls    int
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, query string, answers []model.AgentAnswer) string {
	m.calls++
	if m.response != "" {
		return m.response
	}
	if len(answers) == 1 {
		return answers[0].Response
	}
	return "synthesized"
}

type mockStore struct {
	mu        sync.Mutex
	createErr error
	turns     []model.ConversationTurn
	logs      []model.AgentExecutionLog
}

func (m *mockStore) CreateConversation(ctx context.Context, turn model.ConversationTurn) (model.ConversationTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return model.ConversationTurn{}, m.createErr
	}
	turn.ID = "conv-1"
	m.turns = append(m.turns, turn)
	return turn, nil
}

func (m *mockStore) LogAgentExecution(ctx context.Context, log model.AgentExecutionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

type mockCache struct {
	appended []model.ConversationTurn
}

func (m *mockCache) RecentTurns(ctx context.Context, sessionID string, limit int) ([]model.ConversationTurn, error) {
	return nil, nil
}

func (m *mockCache) AppendTurn(ctx context.Context, turn model.ConversationTurn) error {
	m.appended = append(m.appended, turn)
	return nil
}

func newTestOrchestrator(t *testing.T, router QueryRouter, agents map[string]Agent, store ConversationStore) (*Orchestrator, *mockSynthesizer) {
	t.Helper()
	synth := &mockSynthesizer{}
	o, err := New(
		router,
		agents,
		&mockRetriever{contexts: []string{}, docIDs: []string{}, scores: []float64{}},
		synth,
		store,
		&mockCache{},
		model.OrchestratorConfig{MaxAgents: 2},
		model.ConversationConfig{HistoryTurns: 5},
	)
	if err != nil {
		t.Fatal(err)
	}
	return o, synth
}

func singleAgentRegistry(result experts.Result) map[string]Agent {
	return map[string]Agent{
		model.DefaultExpertKey: &mockAgent{name: "Audit Committee Charter Expert", result: result},
	}
}

func TestNewRejectsMissingDefaultAgent(t *testing.T) {
	agents := map[string]Agent{
		model.ExpertBanking: &mockAgent{name: "Banking Expert"},
	}
	_, err := New(&mockRouter{}, agents, &mockRetriever{}, &mockSynthesizer{}, &mockStore{}, &mockCache{},
		model.OrchestratorConfig{MaxAgents: 2}, model.ConversationConfig{HistoryTurns: 5})
	if err == nil {
		t.Error("expected error for registry without default expert")
	}
}

func TestNewRejectsUnknownAgentKey(t *testing.T) {
	agents := map[string]Agent{
		model.DefaultExpertKey: &mockAgent{name: "Charter Expert"},
		"mystery_expert":       &mockAgent{name: "Mystery"},
	}
	_, err := New(&mockRouter{}, agents, &mockRetriever{}, &mockSynthesizer{}, &mockStore{}, &mockCache{},
		model.OrchestratorConfig{MaxAgents: 2}, model.ConversationConfig{HistoryTurns: 5})
	if err == nil {
		t.Error("expected error for unregistered agent key")
	}
}

func TestProcessSingleAgent(t *testing.T) {
	store := &mockStore{}
	router := &mockRouter{decision: model.RoutingDecision{
		PrimaryAgent:    model.DefaultExpertKey,
		SecondaryAgents: []string{},
		Reasoning:       "pertanyaan charter",
	}}
	agents := singleAgentRegistry(experts.Result{
		Response: "Jawaban X",
		Status:   model.ExecutionStatusSuccess,
	})
	o, _ := newTestOrchestrator(t, router, agents, store)

	result := o.Process(context.Background(), model.QueryInput{
		Query:     "Apa tugas Komite Audit?",
		SessionID: "sess-1",
	})

	if !result.Success {
		t.Fatalf("success: got false, error %q", result.Error)
	}
	if result.Response != "Jawaban X" {
		t.Errorf("response: got %q", result.Response)
	}
	if len(result.AgentsUsed) != 1 || result.AgentsUsed[0] != "Audit Committee Charter Expert" {
		t.Errorf("agents used: got %v", result.AgentsUsed)
	}
	if result.RoutingReasoning != "pertanyaan charter" {
		t.Errorf("routing reasoning: got %q", result.RoutingReasoning)
	}
	if result.ConversationID != "conv-1" {
		t.Errorf("conversation id: got %q", result.ConversationID)
	}
	if result.Metadata == nil || result.Metadata.AgentResponses != nil {
		t.Error("single answer should not carry per-agent responses metadata")
	}
	if len(store.logs) != 1 {
		t.Fatalf("execution logs: got %d, want 1", len(store.logs))
	}
	if store.logs[0].ConversationID != "conv-1" {
		t.Errorf("log conversation id: got %q", store.logs[0].ConversationID)
	}
}

func TestProcessMultipleAgentsCarriesMetadata(t *testing.T) {
	store := &mockStore{}
	router := &mockRouter{decision: model.RoutingDecision{
		PrimaryAgent:    model.DefaultExpertKey,
		SecondaryAgents: []string{model.ExpertRegulatory},
	}}
	agents := map[string]Agent{
		model.DefaultExpertKey: &mockAgent{
			name:   "Audit Committee Charter Expert",
			result: experts.Result{Response: "A", Status: model.ExecutionStatusSuccess},
		},
		model.ExpertRegulatory: &mockAgent{
			name:   "Regulatory & Compliance Expert",
			result: experts.Result{Response: "B", Status: model.ExecutionStatusSuccess},
		},
	}
	o, synth := newTestOrchestrator(t, router, agents, store)

	result := o.Process(context.Background(), model.QueryInput{Query: "q", SessionID: "sess-1"})

	if synth.calls != 1 {
		t.Errorf("synthesizer calls: got %d, want 1", synth.calls)
	}
	if len(result.AgentsUsed) != 2 {
		t.Errorf("agents used: got %v", result.AgentsUsed)
	}
	if result.Metadata == nil || len(result.Metadata.AgentResponses) != 2 {
		t.Fatalf("metadata agent responses: got %+v", result.Metadata)
	}
	if result.Metadata.AgentResponses["Audit Committee Charter Expert"] != "A" {
		t.Errorf("unexpected agent responses: %v", result.Metadata.AgentResponses)
	}
	if len(store.logs) != 2 {
		t.Errorf("execution logs: got %d, want 2", len(store.logs))
	}
}

func TestProcessSkipsUnknownSecondaryKey(t *testing.T) {
	store := &mockStore{}
	router := &mockRouter{decision: model.RoutingDecision{
		PrimaryAgent:    model.DefaultExpertKey,
		SecondaryAgents: []string{"mystery_expert"},
	}}
	agents := singleAgentRegistry(experts.Result{Response: "A", Status: model.ExecutionStatusSuccess})
	o, _ := newTestOrchestrator(t, router, agents, store)

	result := o.Process(context.Background(), model.QueryInput{Query: "q", SessionID: "sess-1"})

	if !result.Success {
		t.Fatal("expected success")
	}
	if len(result.AgentsUsed) != 1 {
		t.Errorf("agents used: got %v", result.AgentsUsed)
	}
	if len(store.logs) != 1 {
		t.Errorf("execution logs: got %d, want 1", len(store.logs))
	}
}

func TestProcessUnknownPrimaryYieldsApology(t *testing.T) {
	store := &mockStore{}
	router := &mockRouter{decision: model.RoutingDecision{PrimaryAgent: "mystery_expert"}}
	agents := singleAgentRegistry(experts.Result{Response: "A", Status: model.ExecutionStatusSuccess})
	o, synth := newTestOrchestrator(t, router, agents, store)

	result := o.Process(context.Background(), model.QueryInput{Query: "q", SessionID: "sess-1"})

	if !result.Success {
		t.Fatal("expected success")
	}
	if result.Response != ApologyMessage {
		t.Errorf("response: got %q, want apology", result.Response)
	}
	if synth.calls != 0 {
		t.Errorf("synthesizer calls: got %d, want 0", synth.calls)
	}
	if len(result.AgentsUsed) != 0 {
		t.Errorf("agents used: got %v", result.AgentsUsed)
	}
}

func TestProcessFailedAgentExcludedFromAnswers(t *testing.T) {
	store := &mockStore{}
	router := &mockRouter{decision: model.RoutingDecision{
		PrimaryAgent:    model.DefaultExpertKey,
		SecondaryAgents: []string{model.ExpertBanking},
	}}
	agents := map[string]Agent{
		model.DefaultExpertKey: &mockAgent{
			name:   "Audit Committee Charter Expert",
			result: experts.Result{Response: "A", Status: model.ExecutionStatusSuccess},
		},
		model.ExpertBanking: &mockAgent{
			name: "Banking Industry Expert",
			result: experts.Result{
				Response:     "Error processing query: boom",
				Status:       model.ExecutionStatusError,
				ErrorMessage: "boom",
			},
		},
	}
	o, _ := newTestOrchestrator(t, router, agents, store)

	result := o.Process(context.Background(), model.QueryInput{Query: "q", SessionID: "sess-1"})

	if len(result.AgentsUsed) != 1 || result.AgentsUsed[0] != "Audit Committee Charter Expert" {
		t.Errorf("agents used: got %v", result.AgentsUsed)
	}
	if result.Response != "A" {
		t.Errorf("response: got %q", result.Response)
	}
	if len(store.logs) != 2 {
		t.Fatalf("execution logs: got %d, want 2", len(store.logs))
	}
	errorLogged := false
	for _, log := range store.logs {
		if log.Status == model.ExecutionStatusError && log.ErrorMessage == "boom" {
			errorLogged = true
		}
	}
	if !errorLogged {
		t.Error("failed agent should still produce an error execution log")
	}
}

func TestProcessPersistenceFailure(t *testing.T) {
	store := &mockStore{createErr: errors.New("db down")}
	router := &mockRouter{decision: model.RoutingDecision{PrimaryAgent: model.DefaultExpertKey}}
	agents := singleAgentRegistry(experts.Result{Response: "A", Status: model.ExecutionStatusSuccess})
	o, _ := newTestOrchestrator(t, router, agents, store)

	result := o.Process(context.Background(), model.QueryInput{Query: "q", SessionID: "sess-1"})

	if result.Success {
		t.Fatal("expected failure when persistence fails")
	}
	if !strings.HasPrefix(result.Response, "Terjadi kesalahan dalam memproses pertanyaan: ") {
		t.Errorf("response: got %q", result.Response)
	}
	if result.AgentsUsed == nil || len(result.AgentsUsed) != 0 {
		t.Errorf("agents used: got %v, want empty", result.AgentsUsed)
	}
	if result.Error == "" {
		t.Error("error field should be set")
	}
}

func TestProcessMaxAgentsLimitsFanOut(t *testing.T) {
	store := &mockStore{}
	router := &mockRouter{decision: model.RoutingDecision{
		PrimaryAgent:    model.DefaultExpertKey,
		SecondaryAgents: []string{model.ExpertRegulatory, model.ExpertBanking},
	}}
	agents := map[string]Agent{
		model.DefaultExpertKey: &mockAgent{name: "Charter", result: experts.Result{Response: "A", Status: model.ExecutionStatusSuccess}},
		model.ExpertRegulatory: &mockAgent{name: "Regulatory", result: experts.Result{Response: "B", Status: model.ExecutionStatusSuccess}},
		model.ExpertBanking:    &mockAgent{name: "Banking", result: experts.Result{Response: "C", Status: model.ExecutionStatusSuccess}},
	}
	o, _ := newTestOrchestrator(t, router, agents, store)

	result := o.Process(context.Background(), model.QueryInput{Query: "q", SessionID: "sess-1", MaxAgents: 2})

	if len(result.AgentsUsed) != 2 {
		t.Errorf("agents used: got %v, want 2 agents", result.AgentsUsed)
	}
}

func TestProcessZeroMaxAgentsUsesConfiguredDefault(t *testing.T) {
	store := &mockStore{}
	router := &mockRouter{decision: model.RoutingDecision{
		PrimaryAgent:    model.DefaultExpertKey,
		SecondaryAgents: []string{model.ExpertRegulatory, model.ExpertBanking},
	}}
	agents := map[string]Agent{
		model.DefaultExpertKey: &mockAgent{name: "Charter", result: experts.Result{Response: "A", Status: model.ExecutionStatusSuccess}},
		model.ExpertRegulatory: &mockAgent{name: "Regulatory", result: experts.Result{Response: "B", Status: model.ExecutionStatusSuccess}},
		model.ExpertBanking:    &mockAgent{name: "Banking", result: experts.Result{Response: "C", Status: model.ExecutionStatusSuccess}},
	}
	o, _ := newTestOrchestrator(t, router, agents, store)

	result := o.Process(context.Background(), model.QueryInput{Query: "q", SessionID: "sess-1"})

	if len(result.AgentsUsed) != 2 {
		t.Errorf("agents used: got %v, want the configured limit of 2", result.AgentsUsed)
	}
}
