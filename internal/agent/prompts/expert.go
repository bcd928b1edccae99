package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/rag-komite-audit/server/internal/agent/model"
)

//go:embed template/expert_prompt.txt
var expertSystemPrompt string

// RenderExpertSystem renders the persona system prompt for one expert.
func RenderExpertSystem(ctx context.Context, profile model.ExpertProfile) (string, error) {
	var b strings.Builder
	for _, exp := range profile.Expertise {
		fmt.Fprintf(&b, "- %s\n", exp)
	}

	content := strings.NewReplacer(
		"{expert_name}", profile.Name,
		"{expert_description}", profile.Description,
		"{expertise_list}", strings.TrimRight(b.String(), "\n"),
	).Replace(expertSystemPrompt)

	return renderSystem(ctx, content)
}

// BuildContextualQuery embeds retrieved context chunks into the user message.
// Without context the query passes through untouched.
func BuildContextualQuery(query string, contexts []string) string {
	if len(contexts) == 0 {
		return query
	}

	blocks := make([]string, 0, len(contexts))
	for i, ctx := range contexts {
		blocks = append(blocks, fmt.Sprintf("[Context %d]\n%s", i+1, ctx))
	}

	return fmt.Sprintf(`Konteks Referensi:
%s

---

Pertanyaan: %s

Jawab berdasarkan konteks di atas. Jika informasi tidak tersedia dalam konteks, jelaskan berdasarkan pengetahuan umum tentang Komite Audit dan sebutkan bahwa ini adalah pengetahuan umum.`,
		strings.Join(blocks, "\n\n---\n\n"), query)
}
