package analysts

import (
	"context"
	"time"

	"github.com/rag-komite-audit/server/internal/agent/llm"
	"github.com/rag-komite-audit/server/internal/agent/model"
	"github.com/rag-komite-audit/server/internal/agent/prompts"
	logx "github.com/rag-komite-audit/server/pkg/logger"
)

// Executive insight analysis types.
const (
	InsightFull      = "full"
	InsightQuick     = "quick"
	InsightRiskFocus = "risk_focus"
)

// Per-type budgets keep each mode within the provider's throughput limits.
var insightMaxChars = map[string]int{
	InsightFull:      15000,
	InsightQuick:     7000,
	InsightRiskFocus: 10000,
}

var insightMaxTokens = map[string]int{
	InsightFull:      4000,
	InsightQuick:     2000,
	InsightRiskFocus: 2500,
}

var insightInstructions = map[string]string{
	InsightFull:      "Lakukan analisis LENGKAP mencakup semua aspek: executive summary, top 3 risks dengan detail, financial exposure, sentiment analysis, dan executive card summary.",
	InsightQuick:     "Lakukan analisis CEPAT dengan fokus pada top 3 risks dan executive card summary. Financial exposure dan sentiment analysis boleh ringkas.",
	InsightRiskFocus: "Fokus pada IDENTIFIKASI RISIKO: top 3 risks dengan detail lengkap. Financial exposure dan sentiment analysis ringkas saja.",
}

// InsightAnalyzer extracts board-level insight (top risks, exposure,
// management sentiment) from one document.
type InsightAnalyzer struct {
	chat      llm.ChatModel
	modelName string
}

func NewInsightAnalyzer(chat llm.ChatModel, modelName string) *InsightAnalyzer {
	return &InsightAnalyzer{chat: chat, modelName: modelName}
}

// Analyze runs the insight extraction. Unknown analysis types use the full
// budgets and instructions.
func (a *InsightAnalyzer) Analyze(ctx context.Context, text string, doc model.Document, analysisType string) Outcome {
	start := time.Now()

	instructions, ok := insightInstructions[analysisType]
	if !ok {
		analysisType = InsightFull
		instructions = insightInstructions[InsightFull]
	}

	system, err := prompts.RenderInsightSystem(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("Error rendering insight prompt")
		return insightFallbackOutcome(start, err)
	}

	request := prompts.BuildDocumentAnalysisRequest(
		doc, "Audit Document", analysisType, instructions,
		prompts.TruncateDocument(text, insightMaxChars[analysisType]))

	raw, tokens, err := generateJSON(ctx, a.chat, a.modelName, "executive_insight", system, request, insightMaxTokens[analysisType])
	if err != nil {
		return insightFallbackOutcome(start, err)
	}

	logx.Info().Int("execution_time_ms", elapsedMs(start)).Msg("Executive insight analysis completed")
	return Outcome{Result: raw, ExecutionTimeMs: elapsedMs(start), TokensUsed: tokens}
}

type insightRisk struct {
	Rank              int      `json:"rank"`
	RiskTitle         string   `json:"risk_title"`
	RiskCategory      string   `json:"risk_category"`
	Severity          string   `json:"severity"`
	Likelihood        string   `json:"likelihood"`
	Description       string   `json:"description"`
	PotentialImpact   string   `json:"potential_impact"`
	AffectedAreas     []string `json:"affected_areas"`
	MitigationStatus  string   `json:"mitigation_status"`
	RecommendedAction string   `json:"recommended_action"`
}

type insightFallback struct {
	ExecutiveSummary struct {
		DocumentTitle     string `json:"document_title"`
		PeriodCovered     string `json:"period_covered"`
		OverallRiskRating string `json:"overall_risk_rating"`
		ConfidenceLevel   string `json:"confidence_level"`
	} `json:"executive_summary"`
	Top3Risks         []insightRisk `json:"top_3_risks"`
	FinancialExposure struct {
		TotalEstimatedExposure struct {
			Min        *float64 `json:"min"`
			Max        *float64 `json:"max"`
			Currency   string   `json:"currency"`
			Confidence string   `json:"confidence"`
			Basis      string   `json:"basis"`
		} `json:"total_estimated_exposure"`
		ExposureBreakdown []any  `json:"exposure_breakdown"`
		ExposureNotes     string `json:"exposure_notes"`
	} `json:"financial_exposure"`
	ManagementResponseSentiment struct {
		OverallSentiment string `json:"overall_sentiment"`
		SentimentScore   int    `json:"sentiment_score"`
		Indicators       struct {
			Acknowledgment     string `json:"acknowledgment"`
			Ownership          string `json:"ownership"`
			ActionOrientation  string `json:"action_orientation"`
			TimelineCommitment string `json:"timeline_commitment"`
		} `json:"indicators"`
		SentimentAnalysis string   `json:"sentiment_analysis"`
		KeyQuotes         []string `json:"key_quotes"`
	} `json:"management_response_sentiment"`
	ExecutiveCardSummary struct {
		Headline          string `json:"headline"`
		OneLiner          string `json:"one_liner"`
		KeyNumber         string `json:"key_number"`
		AttentionRequired string `json:"attention_required"`
	} `json:"executive_card_summary"`
	DataQualityNotes struct {
		Completeness string   `json:"completeness"`
		DataGaps     []string `json:"data_gaps"`
		Assumptions  []string `json:"assumptions"`
	} `json:"data_quality_notes"`
	Error string `json:"error"`
}

func insightFallbackOutcome(start time.Time, cause error) Outcome {
	var f insightFallback
	f.ExecutiveSummary.DocumentTitle = "Unknown"
	f.ExecutiveSummary.PeriodCovered = "Unknown"
	f.ExecutiveSummary.OverallRiskRating = "UNKNOWN"
	f.ExecutiveSummary.ConfidenceLevel = "LOW"
	f.Top3Risks = []insightRisk{{
		Rank:              1,
		RiskTitle:         "Analisis Tidak Dapat Diselesaikan",
		RiskCategory:      "OPERATIONAL",
		Severity:          "UNKNOWN",
		Likelihood:        "UNKNOWN",
		Description:       "Analisis otomatis tidak dapat diselesaikan karena error teknis.",
		PotentialImpact:   "Diperlukan review manual",
		AffectedAreas:     []string{"Unknown"},
		MitigationStatus:  "NOT_STARTED",
		RecommendedAction: "Lakukan analisis ulang atau review manual",
	}}
	f.FinancialExposure.TotalEstimatedExposure.Currency = "IDR"
	f.FinancialExposure.TotalEstimatedExposure.Confidence = "LOW"
	f.FinancialExposure.TotalEstimatedExposure.Basis = "Tidak dapat diestimasi"
	f.FinancialExposure.ExposureBreakdown = []any{}
	f.FinancialExposure.ExposureNotes = "Analisis exposure tidak dapat diselesaikan"
	f.ManagementResponseSentiment.OverallSentiment = "UNKNOWN"
	f.ManagementResponseSentiment.SentimentScore = 5
	f.ManagementResponseSentiment.Indicators.Acknowledgment = "ABSENT"
	f.ManagementResponseSentiment.Indicators.Ownership = "ABSENT"
	f.ManagementResponseSentiment.Indicators.ActionOrientation = "ABSENT"
	f.ManagementResponseSentiment.Indicators.TimelineCommitment = "ABSENT"
	f.ManagementResponseSentiment.SentimentAnalysis = "Analisis sentiment tidak dapat diselesaikan karena error teknis."
	f.ManagementResponseSentiment.KeyQuotes = []string{}
	f.ExecutiveCardSummary.Headline = "Analisis Memerlukan Review Manual"
	f.ExecutiveCardSummary.OneLiner = "Analisis otomatis tidak dapat diselesaikan, diperlukan review manual."
	f.ExecutiveCardSummary.KeyNumber = "N/A"
	f.ExecutiveCardSummary.AttentionRequired = "HIGH"
	f.DataQualityNotes.Completeness = "LOW"
	f.DataQualityNotes.DataGaps = []string{"Analisis tidak dapat diselesaikan"}
	f.DataQualityNotes.Assumptions = []string{}
	f.Error = cause.Error()

	return Outcome{
		Result:          mustJSON(f),
		FellBack:        true,
		FallbackReason:  cause.Error(),
		ExecutionTimeMs: elapsedMs(start),
	}
}
