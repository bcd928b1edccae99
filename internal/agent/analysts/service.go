package analysts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rag-komite-audit/server/internal/agent/model"
	errx "github.com/rag-komite-audit/server/internal/core/error"
	logx "github.com/rag-komite-audit/server/pkg/logger"
)

// DocumentSource loads document metadata and reconstructed text.
type DocumentSource interface {
	GetDocument(ctx context.Context, documentID string) (model.Document, error)
	GetDocumentFullText(ctx context.Context, documentID string) (string, error)
}

// AnalysisSink persists completed analyses.
type AnalysisSink interface {
	CreateAnalysis(ctx context.Context, rec model.AnalysisRecord) (model.AnalysisRecord, error)
}

// Service runs the document-analysis agents against stored documents and
// persists their results. Unlike the query pipeline, its methods return
// errors for caller mistakes (missing or unprocessed documents); agent-side
// failures still resolve to persisted fallback results.
type Service struct {
	docs      DocumentSource
	sink      AnalysisSink
	financial *FinancialAnalyst
	riskMap   *RiskAuditMapper
	insight   *InsightAnalyzer
}

func NewService(docs DocumentSource, sink AnalysisSink, financial *FinancialAnalyst, riskMap *RiskAuditMapper, insight *InsightAnalyzer) *Service {
	return &Service{docs: docs, sink: sink, financial: financial, riskMap: riskMap, insight: insight}
}

// loadProcessed fetches a document and its text, requiring processed status.
func (s *Service) loadProcessed(ctx context.Context, documentID string) (model.Document, string, error) {
	doc, err := s.docs.GetDocument(ctx, documentID)
	if err != nil {
		return model.Document{}, "", err
	}
	if doc.Status != model.DocumentProcessed {
		return model.Document{}, "", errx.New(
			fmt.Errorf("document %s has status %s", documentID, doc.Status),
			400, "document not yet processed")
	}
	text, err := s.docs.GetDocumentFullText(ctx, documentID)
	if err != nil {
		return model.Document{}, "", err
	}
	return doc, text, nil
}

// AnalyzeFinancial runs the financial analyst on one document.
func (s *Service) AnalyzeFinancial(ctx context.Context, documentID, sessionID, analysisType string) (model.AnalysisRecord, error) {
	doc, text, err := s.loadProcessed(ctx, documentID)
	if err != nil {
		return model.AnalysisRecord{}, err
	}

	outcome := s.financial.Analyze(ctx, text, doc, analysisType)
	assessment, riskLevel := extractRatings(outcome.Result)

	return s.persist(ctx, model.AnalysisRecord{
		Kind:              model.AnalysisKindFinancial,
		DocumentID:        documentID,
		SessionID:         sessionID,
		AnalysisType:      analysisType,
		Result:            outcome.Result,
		ProcessingTimeMs:  outcome.ExecutionTimeMs,
		TokensUsed:        outcome.TokensUsed,
		OverallAssessment: assessment,
		RiskLevel:         riskLevel,
	}, doc)
}

// MapRisks runs the risk-audit mapper over a risk register and an audit plan.
func (s *Service) MapRisks(ctx context.Context, riskDocumentID, auditDocumentID, sessionID, mappingType string) (model.AnalysisRecord, error) {
	riskDoc, riskText, err := s.loadProcessed(ctx, riskDocumentID)
	if err != nil {
		return model.AnalysisRecord{}, err
	}
	auditDoc, auditText, err := s.loadProcessed(ctx, auditDocumentID)
	if err != nil {
		return model.AnalysisRecord{}, err
	}

	outcome := s.riskMap.MapRisks(ctx, riskText, auditText, riskDoc, auditDoc, mappingType)
	alignment, _ := extractRatings(outcome.Result)

	return s.persist(ctx, model.AnalysisRecord{
		Kind:              model.AnalysisKindRiskMapping,
		DocumentID:        riskDocumentID,
		RelatedDocumentID: auditDocumentID,
		SessionID:         sessionID,
		AnalysisType:      mappingType,
		Result:            outcome.Result,
		ProcessingTimeMs:  outcome.ExecutionTimeMs,
		TokensUsed:        outcome.TokensUsed,
		OverallAssessment: alignment,
	}, riskDoc)
}

// ExtractInsight runs the executive-insight analyzer on one document.
func (s *Service) ExtractInsight(ctx context.Context, documentID, sessionID, analysisType string) (model.AnalysisRecord, error) {
	doc, text, err := s.loadProcessed(ctx, documentID)
	if err != nil {
		return model.AnalysisRecord{}, err
	}

	outcome := s.insight.Analyze(ctx, text, doc, analysisType)
	_, riskRating := extractInsightRatings(outcome.Result)

	return s.persist(ctx, model.AnalysisRecord{
		Kind:             model.AnalysisKindInsight,
		DocumentID:       documentID,
		SessionID:        sessionID,
		AnalysisType:     analysisType,
		Result:           outcome.Result,
		ProcessingTimeMs: outcome.ExecutionTimeMs,
		TokensUsed:       outcome.TokensUsed,
		RiskLevel:        riskRating,
	}, doc)
}

func (s *Service) persist(ctx context.Context, rec model.AnalysisRecord, doc model.Document) (model.AnalysisRecord, error) {
	saved, err := s.sink.CreateAnalysis(ctx, rec)
	if err != nil {
		return model.AnalysisRecord{}, err
	}
	saved.DocumentFilename = doc.Filename
	saved.DocumentCategory = doc.Category
	return saved, nil
}

// extractRatings probes the result for the summary columns persisted
// alongside the raw JSON.
func extractRatings(raw json.RawMessage) (assessment, riskLevel string) {
	var probe struct {
		ExecutiveSummary struct {
			OverallAssessment string `json:"overall_assessment"`
			OverallAlignment  string `json:"overall_alignment"`
		} `json:"executive_summary"`
		RiskAssessment struct {
			OverallRiskLevel string `json:"overall_risk_level"`
		} `json:"risk_assessment"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		logx.Warn().Err(err).Msg("Error probing analysis result")
		return "", ""
	}
	assessment = probe.ExecutiveSummary.OverallAssessment
	if assessment == "" {
		assessment = probe.ExecutiveSummary.OverallAlignment
	}
	return assessment, probe.RiskAssessment.OverallRiskLevel
}

func extractInsightRatings(raw json.RawMessage) (confidence, riskRating string) {
	var probe struct {
		ExecutiveSummary struct {
			ConfidenceLevel   string `json:"confidence_level"`
			OverallRiskRating string `json:"overall_risk_rating"`
		} `json:"executive_summary"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		logx.Warn().Err(err).Msg("Error probing insight result")
		return "", ""
	}
	return probe.ExecutiveSummary.ConfidenceLevel, probe.ExecutiveSummary.OverallRiskRating
}
