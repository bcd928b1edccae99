package analysts

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/rag-komite-audit/server/internal/agent/model"
)

type stubChat struct {
	content string
	err     error
	lastReq string
}

func (s *stubChat) Generate(ctx context.Context, msgs []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	if len(msgs) > 0 {
		s.lastReq = msgs[len(msgs)-1].Content
	}
	if s.err != nil {
		return nil, s.err
	}
	return schema.AssistantMessage(s.content, nil), nil
}

func testDoc() model.Document {
	return model.Document{
		ID:       "doc-1",
		Filename: "laporan_keuangan_2024.pdf",
		FileType: "pdf",
		Category: "Financial Review",
		Status:   model.DocumentProcessed,
	}
}

func topLevelKeys(t *testing.T, raw json.RawMessage) map[string]json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("result is not a JSON object: %v", err)
	}
	return m
}

func TestFinancialAnalyzeSuccess(t *testing.T) {
	chat := &stubChat{content: "```json\n" + `{
		"executive_summary": {"overall_assessment": "HEALTHY"},
		"risk_assessment": {"overall_risk_level": "LOW"}
	}` + "\n```"}
	a := NewFinancialAnalyst(chat, "test-model")

	outcome := a.Analyze(context.Background(), "Laporan keuangan tahunan.", testDoc(), FinancialComprehensive)
	if outcome.FellBack {
		t.Fatalf("unexpected fallback: %s", outcome.FallbackReason)
	}
	keys := topLevelKeys(t, outcome.Result)
	if _, ok := keys["executive_summary"]; !ok {
		t.Error("missing executive_summary")
	}
}

func TestFinancialAnalyzeFallbackShape(t *testing.T) {
	chat := &stubChat{err: errors.New("model timeout")}
	a := NewFinancialAnalyst(chat, "test-model")

	outcome := a.Analyze(context.Background(), "Laporan keuangan.", testDoc(), FinancialQuick)
	if !outcome.FellBack {
		t.Fatal("expected fallback")
	}
	if outcome.FallbackReason != "model timeout" {
		t.Errorf("fallback reason: got %q", outcome.FallbackReason)
	}

	keys := topLevelKeys(t, outcome.Result)
	for _, want := range []string{"executive_summary", "financial_ratios", "risk_assessment", "recommendations", "data_quality_notes", "error"} {
		if _, ok := keys[want]; !ok {
			t.Errorf("fallback missing top-level key %q", want)
		}
	}

	assessment, riskLevel := extractRatings(outcome.Result)
	if assessment != "UNKNOWN" || riskLevel != "UNKNOWN" {
		t.Errorf("ratings: got %q / %q", assessment, riskLevel)
	}
}

func TestFinancialAnalyzeTruncatesLongDocuments(t *testing.T) {
	chat := &stubChat{content: `{"executive_summary": {}}`}
	a := NewFinancialAnalyst(chat, "test-model")

	long := strings.Repeat("laporan keuangan tahunan perusahaan terbuka ", 3000)
	a.Analyze(context.Background(), long, testDoc(), FinancialComprehensive)

	if !strings.Contains(chat.lastReq, "[... dokumen terpotong karena keterbatasan panjang ...]") {
		t.Error("request should carry the truncation marker for oversized documents")
	}
}

func TestRiskMapPreservesUncoveredCriticalRisk(t *testing.T) {
	chat := &stubChat{content: `{
		"executive_summary": {"overall_alignment": "POOR", "critical_gaps_count": 1},
		"coverage_matrix": [
			{"risk_id": "R-01", "risk_name": "Kegagalan likuiditas", "risk_level": "CRITICAL", "coverage_status": "NOT_COVERED", "audit_program_ids": []}
		],
		"gap_analysis": {
			"uncovered_risks": [{"risk_id": "R-01", "risk_level": "CRITICAL", "reason": "Tidak ada program audit terkait"}],
			"partially_covered_risks": [],
			"over_audited_areas": []
		}
	}`}
	m := NewRiskAuditMapper(chat, "test-model")

	outcome := m.MapRisks(context.Background(), "Risiko likuiditas kritikal.", "Program audit kepatuhan.",
		testDoc(), testDoc(), MappingComprehensive)
	if outcome.FellBack {
		t.Fatalf("unexpected fallback: %s", outcome.FallbackReason)
	}

	var result struct {
		CoverageMatrix []struct {
			RiskID         string `json:"risk_id"`
			RiskLevel      string `json:"risk_level"`
			CoverageStatus string `json:"coverage_status"`
		} `json:"coverage_matrix"`
		GapAnalysis struct {
			UncoveredRisks []struct {
				RiskID    string `json:"risk_id"`
				RiskLevel string `json:"risk_level"`
			} `json:"uncovered_risks"`
		} `json:"gap_analysis"`
	}
	if err := json.Unmarshal(outcome.Result, &result); err != nil {
		t.Fatalf("result is not a JSON object: %v", err)
	}

	if len(result.CoverageMatrix) != 1 {
		t.Fatalf("coverage matrix entries: got %d, want 1", len(result.CoverageMatrix))
	}
	entry := result.CoverageMatrix[0]
	if entry.RiskLevel != "CRITICAL" || entry.CoverageStatus != "NOT_COVERED" {
		t.Errorf("coverage entry: got %s/%s, want CRITICAL/NOT_COVERED", entry.RiskLevel, entry.CoverageStatus)
	}

	if len(result.GapAnalysis.UncoveredRisks) != 1 {
		t.Fatalf("uncovered risks: got %d, want 1", len(result.GapAnalysis.UncoveredRisks))
	}
	if got := result.GapAnalysis.UncoveredRisks[0]; got.RiskID != "R-01" || got.RiskLevel != "CRITICAL" {
		t.Errorf("uncovered risk: got %s/%s, want R-01/CRITICAL", got.RiskID, got.RiskLevel)
	}
}

func TestRiskMapFallbackShape(t *testing.T) {
	chat := &stubChat{err: errors.New("boom")}
	m := NewRiskAuditMapper(chat, "test-model")

	outcome := m.MapRisks(context.Background(), "risk register", "audit plan",
		testDoc(), testDoc(), MappingComprehensive)
	if !outcome.FellBack {
		t.Fatal("expected fallback")
	}

	keys := topLevelKeys(t, outcome.Result)
	for _, want := range []string{"executive_summary", "error"} {
		if _, ok := keys[want]; !ok {
			t.Errorf("fallback missing top-level key %q", want)
		}
	}
}

func TestInsightFallbackShape(t *testing.T) {
	chat := &stubChat{err: errors.New("boom")}
	a := NewInsightAnalyzer(chat, "test-model")

	outcome := a.Analyze(context.Background(), "dokumen audit", testDoc(), InsightFull)
	if !outcome.FellBack {
		t.Fatal("expected fallback")
	}

	keys := topLevelKeys(t, outcome.Result)
	for _, want := range []string{"executive_summary", "top_3_risks", "financial_exposure", "management_response_sentiment", "executive_card_summary", "data_quality_notes", "error"} {
		if _, ok := keys[want]; !ok {
			t.Errorf("fallback missing top-level key %q", want)
		}
	}

	_, rating := extractInsightRatings(outcome.Result)
	if rating != "UNKNOWN" {
		t.Errorf("risk rating: got %q", rating)
	}

	var probe struct {
		Top3Risks []struct {
			Rank      int    `json:"rank"`
			RiskTitle string `json:"risk_title"`
		} `json:"top_3_risks"`
		Sentiment struct {
			SentimentScore int `json:"sentiment_score"`
		} `json:"management_response_sentiment"`
	}
	if err := json.Unmarshal(outcome.Result, &probe); err != nil {
		t.Fatal(err)
	}
	if len(probe.Top3Risks) != 1 || probe.Top3Risks[0].Rank != 1 {
		t.Errorf("top risks: got %+v", probe.Top3Risks)
	}
	if probe.Sentiment.SentimentScore != 5 {
		t.Errorf("sentiment score: got %d, want 5", probe.Sentiment.SentimentScore)
	}
}

func TestInsightUnknownTypeUsesFullBudget(t *testing.T) {
	chat := &stubChat{content: `{"executive_summary": {}}`}
	a := NewInsightAnalyzer(chat, "test-model")

	outcome := a.Analyze(context.Background(), "dokumen audit singkat", testDoc(), "mystery")
	if outcome.FellBack {
		t.Errorf("unexpected fallback: %s", outcome.FallbackReason)
	}
}

type stubDocs struct {
	docs map[string]model.Document
	text map[string]string
}

func (s *stubDocs) GetDocument(ctx context.Context, id string) (model.Document, error) {
	doc, ok := s.docs[id]
	if !ok {
		return model.Document{}, errors.New("not found")
	}
	return doc, nil
}

func (s *stubDocs) GetDocumentFullText(ctx context.Context, id string) (string, error) {
	return s.text[id], nil
}

type stubSink struct {
	saved []model.AnalysisRecord
}

func (s *stubSink) CreateAnalysis(ctx context.Context, rec model.AnalysisRecord) (model.AnalysisRecord, error) {
	rec.ID = "analysis-1"
	s.saved = append(s.saved, rec)
	return rec, nil
}

func newTestService(chat *stubChat, docs *stubDocs, sink *stubSink) *Service {
	return NewService(docs, sink,
		NewFinancialAnalyst(chat, "test-model"),
		NewRiskAuditMapper(chat, "test-model"),
		NewInsightAnalyzer(chat, "test-model"))
}

func TestServiceAnalyzeFinancialPersists(t *testing.T) {
	chat := &stubChat{content: `{
		"executive_summary": {"overall_assessment": "CONCERNING"},
		"risk_assessment": {"overall_risk_level": "HIGH"}
	}`}
	doc := testDoc()
	docs := &stubDocs{
		docs: map[string]model.Document{doc.ID: doc},
		text: map[string]string{doc.ID: "Laporan keuangan."},
	}
	sink := &stubSink{}
	svc := newTestService(chat, docs, sink)

	rec, err := svc.AnalyzeFinancial(context.Background(), doc.ID, "sess-1", FinancialComprehensive)
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID != "analysis-1" {
		t.Errorf("id: got %q", rec.ID)
	}
	if rec.Kind != model.AnalysisKindFinancial {
		t.Errorf("kind: got %q", rec.Kind)
	}
	if rec.OverallAssessment != "CONCERNING" || rec.RiskLevel != "HIGH" {
		t.Errorf("ratings: got %q / %q", rec.OverallAssessment, rec.RiskLevel)
	}
	if rec.DocumentFilename != doc.Filename {
		t.Errorf("filename: got %q", rec.DocumentFilename)
	}
	if len(sink.saved) != 1 {
		t.Fatalf("saved: got %d", len(sink.saved))
	}
}

func TestServiceRejectsUnprocessedDocument(t *testing.T) {
	doc := testDoc()
	doc.Status = model.DocumentProcessing
	docs := &stubDocs{
		docs: map[string]model.Document{doc.ID: doc},
		text: map[string]string{},
	}
	svc := newTestService(&stubChat{content: "{}"}, docs, &stubSink{})

	if _, err := svc.AnalyzeFinancial(context.Background(), doc.ID, "", FinancialComprehensive); err == nil {
		t.Error("expected error for unprocessed document")
	}
}

func TestServiceMapRisksLinksDocuments(t *testing.T) {
	chat := &stubChat{content: `{"executive_summary": {"overall_alignment": "PARTIAL"}}`}
	riskDoc := testDoc()
	auditDoc := testDoc()
	auditDoc.ID = "doc-2"
	auditDoc.Filename = "pkpt_2024.xlsx"
	docs := &stubDocs{
		docs: map[string]model.Document{riskDoc.ID: riskDoc, auditDoc.ID: auditDoc},
		text: map[string]string{riskDoc.ID: "risk register", auditDoc.ID: "audit plan"},
	}
	sink := &stubSink{}
	svc := newTestService(chat, docs, sink)

	rec, err := svc.MapRisks(context.Background(), riskDoc.ID, auditDoc.ID, "sess-1", MappingComprehensive)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Kind != model.AnalysisKindRiskMapping {
		t.Errorf("kind: got %q", rec.Kind)
	}
	if rec.DocumentID != riskDoc.ID || rec.RelatedDocumentID != auditDoc.ID {
		t.Errorf("links: got %q / %q", rec.DocumentID, rec.RelatedDocumentID)
	}
	if rec.OverallAssessment != "PARTIAL" {
		t.Errorf("alignment: got %q", rec.OverallAssessment)
	}
}

func TestServiceExtractInsightStoresRiskRating(t *testing.T) {
	chat := &stubChat{content: `{"executive_summary": {"overall_risk_rating": "HIGH", "confidence_level": "MEDIUM"}}`}
	doc := testDoc()
	docs := &stubDocs{
		docs: map[string]model.Document{doc.ID: doc},
		text: map[string]string{doc.ID: "dokumen audit"},
	}
	sink := &stubSink{}
	svc := newTestService(chat, docs, sink)

	rec, err := svc.ExtractInsight(context.Background(), doc.ID, "", InsightQuick)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Kind != model.AnalysisKindInsight {
		t.Errorf("kind: got %q", rec.Kind)
	}
	if rec.RiskLevel != "HIGH" {
		t.Errorf("risk level: got %q", rec.RiskLevel)
	}
}
