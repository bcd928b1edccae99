// Package server provides the HTTP API for the audit committee knowledge
// service: multi-agent query answering, document ingestion, and the three
// document analysis pipelines.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rag-komite-audit/server/internal/agent/model"
	logx "github.com/rag-komite-audit/server/pkg/logger"
)

const (
	appName    = "RAG Komite Audit System"
	appVersion = "1.0.0"
)

// Orchestrator runs a query through the multi-agent pipeline.
type Orchestrator interface {
	Process(ctx context.Context, input model.QueryInput) model.OrchestrationResult
}

// Store is the persistence surface the HTTP layer reads and mutates directly.
type Store interface {
	GetDocument(ctx context.Context, documentID string) (model.Document, error)
	ListDocuments(ctx context.Context, category string, status model.DocumentStatus, limit int) ([]model.Document, error)
	DeleteDocument(ctx context.Context, documentID string) error
	GetConversationHistory(ctx context.Context, sessionID string, limit int) ([]model.ConversationTurn, error)
	UpdateConversationFeedback(ctx context.Context, conversationID string, rating int, comment string) error
	GetDocumentStatistics(ctx context.Context) ([]model.CategoryStats, error)
	GetAgentPerformance(ctx context.Context) ([]model.AgentPerformance, error)
	GetAnalysis(ctx context.Context, analysisID string) (model.AnalysisRecord, error)
	GetAnalysesByDocument(ctx context.Context, kind, documentID string, limit int) ([]model.AnalysisRecord, error)
	ListAnalyses(ctx context.Context, kind, sessionID, riskLevel string, limit int) ([]model.AnalysisRecord, error)
}

// AnalysisService runs the document analysis pipelines.
type AnalysisService interface {
	AnalyzeFinancial(ctx context.Context, documentID, sessionID, analysisType string) (model.AnalysisRecord, error)
	MapRisks(ctx context.Context, riskDocumentID, auditDocumentID, sessionID, mappingType string) (model.AnalysisRecord, error)
	ExtractInsight(ctx context.Context, documentID, sessionID, analysisType string) (model.AnalysisRecord, error)
}

// Ingestor processes an uploaded file into searchable chunks.
type Ingestor interface {
	Process(ctx context.Context, filename, ext string, size int64, content []byte) (model.Document, error)
}

// Server is the HTTP server for the service API.
type Server struct {
	orchestrator Orchestrator
	store        Store
	analysis     AnalysisService
	ingestor     Ingestor
	cfg          model.ServerConfig
	server       *http.Server
}

// New creates a server with the given dependencies.
func New(orchestrator Orchestrator, store Store, analysis AnalysisService, ingestor Ingestor, cfg model.ServerConfig) *Server {
	return &Server{
		orchestrator: orchestrator,
		store:        store,
		analysis:     analysis,
		ingestor:     ingestor,
		cfg:          cfg,
	}
}

// Routes builds the request router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	r.Post("/query", s.handleQuery)
	r.Post("/chat-document", s.handleChatDocument)

	r.Post("/upload", s.handleUpload)
	r.Get("/documents", s.handleListDocuments)
	r.Get("/documents/{id}", s.handleGetDocument)
	r.Delete("/documents/{id}", s.handleDeleteDocument)

	r.Get("/conversations/{sessionID}", s.handleConversationHistory)
	r.Post("/feedback", s.handleFeedback)

	r.Get("/statistics/documents", s.handleDocumentStatistics)
	r.Get("/statistics/agents", s.handleAgentStatistics)
	r.Get("/agents", s.handleListAgents)

	r.Post("/analyze", s.handleAnalyze)
	r.Get("/analyses", s.handleListAnalyses)
	r.Get("/analyses/{documentID}", s.handleAnalysesByDocument)

	r.Post("/risk-mapping", s.handleRiskMapping)
	r.Get("/risk-mappings", s.handleListRiskMappings)
	r.Get("/risk-mappings/{id}", s.handleGetRiskMapping)

	r.Post("/executive-insight", s.handleExecutiveInsight)
	r.Get("/executive-insights", s.handleListInsights)
	r.Get("/executive-insights/latest", s.handleLatestInsights)
	r.Get("/executive-insights/{id}", s.handleGetInsight)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}
	logx.Info().Str("addr", addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
