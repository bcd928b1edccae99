package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/rag-komite-audit/server/internal/agent/model"
)

//go:embed template/financial_prompt.txt
var financialSystemPrompt string

//go:embed template/risk_mapper_prompt.txt
var riskMapperSystemPrompt string

//go:embed template/insight_prompt.txt
var insightSystemPrompt string

func RenderFinancialSystem(ctx context.Context) (string, error) {
	return renderSystem(ctx, financialSystemPrompt)
}

func RenderRiskMapperSystem(ctx context.Context) (string, error) {
	return renderSystem(ctx, riskMapperSystemPrompt)
}

func RenderInsightSystem(ctx context.Context) (string, error) {
	return renderSystem(ctx, insightSystemPrompt)
}

func documentInfo(doc model.Document, fallbackCategory string) string {
	category := doc.Category
	if category == "" {
		category = fallbackCategory
	}
	return fmt.Sprintf("- Nama File: %s\n- Tipe: %s\n- Kategori: %s",
		orUnknown(doc.Filename), orUnknown(doc.FileType), category)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

// BuildDocumentAnalysisRequest is the user message for single-document
// analysis calls. The text must already be truncated to the caller's budget.
func BuildDocumentAnalysisRequest(doc model.Document, fallbackCategory, analysisType, instructions, text string) string {
	return fmt.Sprintf(`## Informasi Dokumen:
%s

## Jenis Analisis: %s
%s

## Konten Dokumen:
---
%s
---

Lakukan analisis berdasarkan konten dokumen di atas.
Berikan output dalam format JSON sesuai template yang telah ditentukan.
Pastikan output adalah valid JSON yang bisa di-parse.`,
		documentInfo(doc, fallbackCategory), strings.ToUpper(analysisType), instructions, text)
}

// BuildRiskMappingRequest is the user message for the two-document
// risk-to-audit mapping call.
func BuildRiskMappingRequest(riskDoc, auditDoc model.Document, riskText, auditText, mappingType, instructions string) string {
	return fmt.Sprintf(`## Dokumen 1: Risk Register
%s

### Konten Risk Register:
---
%s
---

## Dokumen 2: PKPT (Program Kerja Pengawasan Tahunan)
%s

### Konten PKPT:
---
%s
---

## Jenis Pemetaan: %s
%s

Lakukan pemetaan risiko terhadap program audit berdasarkan kedua dokumen di atas.
Berikan output dalam format JSON sesuai template yang telah ditentukan.
Pastikan output adalah valid JSON yang bisa di-parse.`,
		documentInfo(riskDoc, "Risk Register"), riskText,
		documentInfo(auditDoc, "Audit Plan"), auditText,
		strings.ToUpper(mappingType), instructions)
}
