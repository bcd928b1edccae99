package analysts

import (
	"context"
	"time"

	"github.com/rag-komite-audit/server/internal/agent/llm"
	"github.com/rag-komite-audit/server/internal/agent/model"
	"github.com/rag-komite-audit/server/internal/agent/prompts"
	logx "github.com/rag-komite-audit/server/pkg/logger"
)

// Risk mapping types.
const (
	MappingComprehensive = "comprehensive"
	MappingQuick         = "quick"
	MappingGapOnly       = "gap_only"
)

const riskMapMaxCharsPerDoc = 25000
const riskMapMaxTokens = 4000

var mappingInstructions = map[string]string{
	MappingComprehensive: "Lakukan pemetaan LENGKAP mencakup semua aspek: executive summary, coverage matrix, gap analysis, dan rekomendasi detail.",
	MappingQuick:         "Lakukan pemetaan CEPAT dengan fokus pada risiko HIGH/CRITICAL yang tidak tercakup. Summary dan rekomendasi boleh ringkas.",
	MappingGapOnly:       "Fokus pada IDENTIFIKASI GAP saja. Tampilkan hanya risiko yang NOT_COVERED dan PARTIALLY_COVERED.",
}

// RiskAuditMapper maps risk-register entries against an annual audit plan to
// find coverage gaps.
type RiskAuditMapper struct {
	chat      llm.ChatModel
	modelName string
}

func NewRiskAuditMapper(chat llm.ChatModel, modelName string) *RiskAuditMapper {
	return &RiskAuditMapper{chat: chat, modelName: modelName}
}

// MapRisks analyzes both documents in one call. Each document is truncated
// to its own budget so the pair fits the model context.
func (a *RiskAuditMapper) MapRisks(ctx context.Context, riskText, auditText string, riskDoc, auditDoc model.Document, mappingType string) Outcome {
	start := time.Now()

	instructions, ok := mappingInstructions[mappingType]
	if !ok {
		instructions = mappingInstructions[MappingComprehensive]
	}

	system, err := prompts.RenderRiskMapperSystem(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("Error rendering risk mapper prompt")
		return riskMapFallbackOutcome(start, err)
	}

	request := prompts.BuildRiskMappingRequest(
		riskDoc, auditDoc,
		prompts.TruncateDocument(riskText, riskMapMaxCharsPerDoc),
		prompts.TruncateDocument(auditText, riskMapMaxCharsPerDoc),
		mappingType, instructions)

	raw, tokens, err := generateJSON(ctx, a.chat, a.modelName, "risk_mapping", system, request, riskMapMaxTokens)
	if err != nil {
		return riskMapFallbackOutcome(start, err)
	}

	logx.Info().Int("execution_time_ms", elapsedMs(start)).Msg("Risk-audit mapping completed")
	return Outcome{Result: raw, ExecutionTimeMs: elapsedMs(start), TokensUsed: tokens}
}

type riskMapFallback struct {
	ExecutiveSummary struct {
		Overview             string `json:"overview"`
		TotalRisksIdentified int    `json:"total_risks_identified"`
		TotalAuditPrograms   int    `json:"total_audit_programs"`
		CoveragePercentage   string `json:"coverage_percentage"`
		CriticalGapsCount    int    `json:"critical_gaps_count"`
		OverallAlignment     string `json:"overall_alignment"`
		ConfidenceLevel      string `json:"confidence_level"`
	} `json:"executive_summary"`
	RiskRegisterSummary []any `json:"risk_register_summary"`
	AuditPlanSummary    []any `json:"audit_plan_summary"`
	CoverageMatrix      []any `json:"coverage_matrix"`
	GapAnalysis         struct {
		UncoveredRisks        []any `json:"uncovered_risks"`
		PartiallyCoveredRisks []any `json:"partially_covered_risks"`
		OverAuditedAreas      []any `json:"over_audited_areas"`
	} `json:"gap_analysis"`
	Recommendations struct {
		ImmediateActions     []any    `json:"immediate_actions"`
		PKPTAdjustments      []string `json:"pkpt_adjustments"`
		ResourceOptimization []string `json:"resource_optimization"`
		ForAuditCommittee    []string `json:"for_audit_committee"`
	} `json:"recommendations"`
	DataQualityNotes struct {
		RiskRegisterCompleteness string   `json:"risk_register_completeness"`
		AuditPlanCompleteness    string   `json:"audit_plan_completeness"`
		MappingConfidence        string   `json:"mapping_confidence"`
		Issues                   []string `json:"issues"`
		Assumptions              []string `json:"assumptions"`
	} `json:"data_quality_notes"`
	Error string `json:"error"`
}

func riskMapFallbackOutcome(start time.Time, cause error) Outcome {
	var f riskMapFallback
	f.ExecutiveSummary.Overview = "Pemetaan tidak dapat diselesaikan karena error teknis. Silakan coba lagi atau hubungi administrator."
	f.ExecutiveSummary.CoveragePercentage = "N/A"
	f.ExecutiveSummary.OverallAlignment = "UNKNOWN"
	f.ExecutiveSummary.ConfidenceLevel = "LOW"
	f.RiskRegisterSummary = []any{}
	f.AuditPlanSummary = []any{}
	f.CoverageMatrix = []any{}
	f.GapAnalysis.UncoveredRisks = []any{}
	f.GapAnalysis.PartiallyCoveredRisks = []any{}
	f.GapAnalysis.OverAuditedAreas = []any{}
	f.Recommendations.ImmediateActions = []any{}
	f.Recommendations.PKPTAdjustments = []string{"Lakukan pemetaan ulang atau review manual"}
	f.Recommendations.ResourceOptimization = []string{}
	f.Recommendations.ForAuditCommittee = []string{"Pertimbangkan review manual oleh tim internal audit"}
	f.DataQualityNotes.RiskRegisterCompleteness = "LOW"
	f.DataQualityNotes.AuditPlanCompleteness = "LOW"
	f.DataQualityNotes.MappingConfidence = "LOW"
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
