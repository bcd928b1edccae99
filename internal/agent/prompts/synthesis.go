package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/rag-komite-audit/server/internal/agent/model"
)

//go:embed template/synthesis_prompt.txt
var synthesisSystemPrompt string

// RenderSynthesisSystem renders the synthesizer system prompt.
func RenderSynthesisSystem(ctx context.Context) (string, error) {
	return renderSystem(ctx, synthesisSystemPrompt)
}

// BuildSynthesisRequest lays out the expert answers for the merge call,
// primary agent first.
func BuildSynthesisRequest(query string, answers []model.AgentAnswer) string {
	blocks := make([]string, 0, len(answers))
	for _, a := range answers {
		blocks = append(blocks, fmt.Sprintf("=== %s ===\n%s", a.AgentName, a.Response))
	}

	return fmt.Sprintf(`Berdasarkan insights dari berbagai expert agents berikut:

%s

Pertanyaan original: %s

Tugas Anda: Sintesiskan informasi di atas menjadi jawaban yang komprehensif, koheren, dan mudah dipahami.`,
		strings.Join(blocks, "\n\n"), query)
}
