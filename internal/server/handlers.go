package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rag-komite-audit/server/internal/agent/analysts"
	"github.com/rag-komite-audit/server/internal/agent/model"
	errx "github.com/rag-komite-audit/server/internal/core/error"
	"github.com/rag-komite-audit/server/internal/extract"
	logx "github.com/rag-komite-audit/server/pkg/logger"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"app":     appName,
		"version": appVersion,
		"status":  "healthy",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type queryRequest struct {
	Query      string `json:"query"`
	SessionID  string `json:"session_id"`
	UseContext *bool  `json:"use_context"`
	MaxAgents  int    `json:"max_agents"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" || req.SessionID == "" {
		s.respondError(w, http.StatusBadRequest, "query and session_id are required")
		return
	}

	// MaxAgents <= 0 means the orchestrator applies its configured default.
	input := model.QueryInput{
		Query:      req.Query,
		SessionID:  req.SessionID,
		UseContext: req.UseContext == nil || *req.UseContext,
		MaxAgents:  req.MaxAgents,
	}

	result := s.orchestrator.Process(r.Context(), input)
	s.respondJSON(w, http.StatusOK, result)
}

type documentChatRequest struct {
	DocumentID string `json:"document_id"`
	Query      string `json:"query"`
	SessionID  string `json:"session_id"`
}

func (s *Server) handleChatDocument(w http.ResponseWriter, r *http.Request) {
	var req documentChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DocumentID == "" || req.Query == "" || req.SessionID == "" {
		s.respondError(w, http.StatusBadRequest, "document_id, query and session_id are required")
		return
	}

	doc, err := s.store.GetDocument(r.Context(), req.DocumentID)
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	if doc.Status != model.DocumentProcessed {
		s.respondError(w, http.StatusBadRequest, "document not yet processed")
		return
	}

	result := s.orchestrator.Process(r.Context(), model.QueryInput{
		Query:       req.Query,
		SessionID:   req.SessionID,
		UseContext:  true,
		MaxAgents:   1,
		DocumentIDs: []string{req.DocumentID},
	})

	s.respondJSON(w, http.StatusOK, map[string]any{
		"success":            result.Success,
		"document_id":        req.DocumentID,
		"document_name":      doc.Filename,
		"query":              req.Query,
		"response":           result.Response,
		"agents_used":        result.AgentsUsed,
		"context_count":      result.ContextCount,
		"processing_time_ms": result.ProcessingTimeMs,
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	ext := filepath.Ext(header.Filename)
	if !extract.Supported(ext) {
		s.respondError(w, http.StatusBadRequest, "unsupported file format")
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to read uploaded file")
		return
	}

	filename := header.Filename
	size := int64(len(content))
	go func() {
		if _, err := s.ingestor.Process(context.Background(), filename, ext, size, content); err != nil {
			logx.Error().Err(err).Str("filename", filename).Msg("Background document processing failed")
		}
	}()

	s.respondJSON(w, http.StatusAccepted, map[string]any{
		"success":   true,
		"message":   "Document uploaded successfully. Processing in background.",
		"filename":  filename,
		"file_size": size,
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	status := model.DocumentStatus(r.URL.Query().Get("status"))
	limit := queryInt(r, "limit", 100)

	docs, err := s.store.ListDocuments(r.Context(), category, status, limit)
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteDocument(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Document deleted successfully",
	})
}

func (s *Server) handleConversationHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	limit := queryInt(r, "limit", 10)

	history, err := s.store.GetConversationHistory(r.Context(), sessionID, limit)
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"history": history})
}

type feedbackRequest struct {
	ConversationID string `json:"conversation_id"`
	Rating         int    `json:"rating"`
	Comment        string `json:"comment"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		s.respondError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	if err := s.store.UpdateConversationFeedback(r.Context(), req.ConversationID, req.Rating, req.Comment); err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Feedback submitted successfully",
	})
}

func (s *Server) handleDocumentStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetDocumentStatistics(r.Context())
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"statistics": stats})
}

func (s *Server) handleAgentStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetAgentPerformance(r.Context())
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"statistics": stats})
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{"agents": model.ExpertProfiles()})
}

type analysisRequest struct {
	DocumentID   string `json:"document_id"`
	SessionID    string `json:"session_id"`
	AnalysisType string `json:"analysis_type"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DocumentID == "" {
		s.respondError(w, http.StatusBadRequest, "document_id is required")
		return
	}
	if req.AnalysisType == "" {
		req.AnalysisType = analysts.FinancialComprehensive
	}

	rec, err := s.analysis.AnalyzeFinancial(r.Context(), req.DocumentID, req.SessionID, req.AnalysisType)
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondAnalysis(w, rec)
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.ListAnalyses(r.Context(), model.AnalysisKindFinancial,
		r.URL.Query().Get("session_id"), "", queryInt(r, "limit", 50))
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"analyses": recs})
}

func (s *Server) handleAnalysesByDocument(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.GetAnalysesByDocument(r.Context(), model.AnalysisKindFinancial,
		chi.URLParam(r, "documentID"), queryInt(r, "limit", 10))
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"analyses": recs})
}

type riskMappingRequest struct {
	RiskRegisterDocumentID string `json:"risk_register_document_id"`
	AuditPlanDocumentID    string `json:"audit_plan_document_id"`
	SessionID              string `json:"session_id"`
	MappingType            string `json:"mapping_type"`
}

func (s *Server) handleRiskMapping(w http.ResponseWriter, r *http.Request) {
	var req riskMappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RiskRegisterDocumentID == "" || req.AuditPlanDocumentID == "" {
		s.respondError(w, http.StatusBadRequest, "risk_register_document_id and audit_plan_document_id are required")
		return
	}
	if req.MappingType == "" {
		req.MappingType = analysts.MappingComprehensive
	}

	rec, err := s.analysis.MapRisks(r.Context(), req.RiskRegisterDocumentID, req.AuditPlanDocumentID, req.SessionID, req.MappingType)
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondAnalysis(w, rec)
}

func (s *Server) handleListRiskMappings(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.ListAnalyses(r.Context(), model.AnalysisKindRiskMapping,
		r.URL.Query().Get("session_id"), "", queryInt(r, "limit", 50))
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"mappings": recs})
}

func (s *Server) handleGetRiskMapping(w http.ResponseWriter, r *http.Request) {
	rec, err := s.getAnalysisOfKind(r.Context(), chi.URLParam(r, "id"), model.AnalysisKindRiskMapping)
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

type executiveInsightRequest struct {
	DocumentID   string `json:"document_id"`
	SessionID    string `json:"session_id"`
	AnalysisType string `json:"analysis_type"`
}

func (s *Server) handleExecutiveInsight(w http.ResponseWriter, r *http.Request) {
	var req executiveInsightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DocumentID == "" {
		s.respondError(w, http.StatusBadRequest, "document_id is required")
		return
	}
	if req.AnalysisType == "" {
		req.AnalysisType = analysts.InsightFull
	}

	rec, err := s.analysis.ExtractInsight(r.Context(), req.DocumentID, req.SessionID, req.AnalysisType)
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondAnalysis(w, rec)
}

func (s *Server) handleListInsights(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.ListAnalyses(r.Context(), model.AnalysisKindInsight,
		r.URL.Query().Get("session_id"), r.URL.Query().Get("risk_rating"), queryInt(r, "limit", 50))
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"insights": recs})
}

func (s *Server) handleLatestInsights(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.ListAnalyses(r.Context(), model.AnalysisKindInsight, "", "", queryInt(r, "limit", 5))
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"insights": recs})
}

func (s *Server) handleGetInsight(w http.ResponseWriter, r *http.Request) {
	rec, err := s.getAnalysisOfKind(r.Context(), chi.URLParam(r, "id"), model.AnalysisKindInsight)
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) getAnalysisOfKind(ctx context.Context, analysisID, kind string) (model.AnalysisRecord, error) {
	rec, err := s.store.GetAnalysis(ctx, analysisID)
	if err != nil {
		return model.AnalysisRecord{}, err
	}
	if rec.Kind != kind {
		return model.AnalysisRecord{}, errx.New(nil, 404, errx.PostgresNotFoundMessage)
	}
	return rec, nil
}

func (s *Server) respondAnalysis(w http.ResponseWriter, rec model.AnalysisRecord) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"success":            true,
		"analysis_id":        rec.ID,
		"document_id":        rec.DocumentID,
		"document_name":      rec.DocumentFilename,
		"analysis_type":      rec.AnalysisType,
		"analysis":           rec.Result,
		"processing_time_ms": rec.ProcessingTimeMs,
		"tokens_used":        rec.TokensUsed,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) respondAppError(w http.ResponseWriter, err error) {
	var appErr *errx.AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		s.respondError(w, appErr.Status, appErr.Message)
		return
	}
	s.respondError(w, http.StatusInternalServerError, err.Error())
}
