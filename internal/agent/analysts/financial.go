package analysts

import (
	"context"
	"time"

	"github.com/rag-komite-audit/server/internal/agent/llm"
	"github.com/rag-komite-audit/server/internal/agent/model"
	"github.com/rag-komite-audit/server/internal/agent/prompts"
	logx "github.com/rag-komite-audit/server/pkg/logger"
)

// Financial analysis types.
const (
	FinancialComprehensive = "comprehensive"
	FinancialQuick         = "quick"
	FinancialRatioOnly     = "ratio_only"
)

const financialMaxChars = 50000
const financialMaxTokens = 4000

var financialInstructions = map[string]string{
	FinancialComprehensive: "Lakukan analisis finansial LENGKAP mencakup semua aspek: executive summary, rasio keuangan, risk assessment, dan rekomendasi detail.",
	FinancialQuick:         "Lakukan analisis CEPAT dengan fokus pada executive summary dan temuan utama saja. Rasio dan rekomendasi boleh ringkas.",
	FinancialRatioOnly:     "Fokus pada KALKULASI RASIO KEUANGAN saja. Executive summary singkat, skip rekomendasi detail.",
}

// FinancialAnalyst produces a structured financial assessment of one
// document.
type FinancialAnalyst struct {
	chat      llm.ChatModel
	modelName string
}

func NewFinancialAnalyst(chat llm.ChatModel, modelName string) *FinancialAnalyst {
	return &FinancialAnalyst{chat: chat, modelName: modelName}
}

// Analyze runs the financial analysis. Unknown analysis types fall back to
// comprehensive instructions.
func (a *FinancialAnalyst) Analyze(ctx context.Context, text string, doc model.Document, analysisType string) Outcome {
	start := time.Now()

	instructions, ok := financialInstructions[analysisType]
	if !ok {
		instructions = financialInstructions[FinancialComprehensive]
	}

	system, err := prompts.RenderFinancialSystem(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("Error rendering financial prompt")
		return financialFallbackOutcome(start, err)
	}

	request := prompts.BuildDocumentAnalysisRequest(
		doc, "Financial Document", analysisType, instructions,
		prompts.TruncateDocument(text, financialMaxChars))

	raw, tokens, err := generateJSON(ctx, a.chat, a.modelName, "financial_analysis", system, request, financialMaxTokens)
	if err != nil {
		return financialFallbackOutcome(start, err)
	}

	logx.Info().Int("execution_time_ms", elapsedMs(start)).Msg("Financial analysis completed")
	return Outcome{Result: raw, ExecutionTimeMs: elapsedMs(start), TokensUsed: tokens}
}

type ratedItem struct {
	Value      string `json:"value"`
	Trend      string `json:"trend"`
	Assessment string `json:"assessment"`
}

type financialFallback struct {
	ExecutiveSummary struct {
		Overview          string   `json:"overview"`
		KeyFindings       []string `json:"key_findings"`
		OverallAssessment string   `json:"overall_assessment"`
		ConfidenceLevel   string   `json:"confidence_level"`
	} `json:"executive_summary"`
	FinancialRatios struct {
		Profitability map[string]ratedItem `json:"profitability"`
		Liquidity     map[string]ratedItem `json:"liquidity"`
		Solvency      map[string]ratedItem `json:"solvency"`
		Efficiency    map[string]ratedItem `json:"efficiency"`
	} `json:"financial_ratios"`
	RiskAssessment struct {
		OverallRiskLevel   string   `json:"overall_risk_level"`
		RedFlags           []any    `json:"red_flags"`
		PositiveIndicators []string `json:"positive_indicators"`
		AreasOfConcern     []string `json:"areas_of_concern"`
	} `json:"risk_assessment"`
	Recommendations struct {
		ImmediateActions  []string `json:"immediate_actions"`
		ShortTerm         []string `json:"short_term"`
		LongTerm          []string `json:"long_term"`
		ForAuditCommittee []string `json:"for_audit_committee"`
	} `json:"recommendations"`
	DataQualityNotes struct {
		Completeness string   `json:"completeness"`
		Issues       []string `json:"issues"`
		Assumptions  []string `json:"assumptions"`
	} `json:"data_quality_notes"`
	Error string `json:"error"`
}

func financialFallbackOutcome(start time.Time, cause error) Outcome {
	var f financialFallback
	f.ExecutiveSummary.Overview = "Analisis tidak dapat diselesaikan karena error teknis. Silakan coba lagi atau hubungi administrator."
	f.ExecutiveSummary.KeyFindings = []string{"Analisis gagal - diperlukan review manual"}
	f.ExecutiveSummary.OverallAssessment = "UNKNOWN"
	f.ExecutiveSummary.ConfidenceLevel = "LOW"
	f.FinancialRatios.Profitability = map[string]ratedItem{}
	f.FinancialRatios.Liquidity = map[string]ratedItem{}
	f.FinancialRatios.Solvency = map[string]ratedItem{}
	f.FinancialRatios.Efficiency = map[string]ratedItem{}
	f.RiskAssessment.OverallRiskLevel = "UNKNOWN"
	f.RiskAssessment.RedFlags = []any{}
	f.RiskAssessment.PositiveIndicators = []string{}
	f.RiskAssessment.AreasOfConcern = []string{"Analisis otomatis tidak dapat diselesaikan"}
	f.Recommendations.ImmediateActions = []string{"Lakukan analisis ulang atau review manual"}
	f.Recommendations.ShortTerm = []string{}
	f.Recommendations.LongTerm = []string{}
	f.Recommendations.ForAuditCommittee = []string{"Pertimbangkan review manual oleh tim keuangan"}
	f.DataQualityNotes.Completeness = "LOW"
	f.DataQualityNotes.Issues = []string{"Error teknis: " + cause.Error()}
	f.DataQualityNotes.Assumptions = []string{}
	f.Error = cause.Error()

	return Outcome{
		Result:          mustJSON(f),
		FellBack:        true,
		FallbackReason:  cause.Error(),
		ExecutionTimeMs: elapsedMs(start),
	}
}
