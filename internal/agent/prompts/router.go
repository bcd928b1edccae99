package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/rag-komite-audit/server/internal/agent/model"
)

//go:embed template/router_prompt.txt
var routerSystemPrompt string

// RenderRouterSystem renders the routing system prompt with the expert
// registry enumerated in registration order.
func RenderRouterSystem(ctx context.Context) (string, error) {
	var b strings.Builder
	for i, p := range model.ExpertProfiles() {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, p.Key, p.Description)
	}

	content := strings.NewReplacer(
		"{expert_list}", strings.TrimRight(b.String(), "\n"),
	).Replace(routerSystemPrompt)

	return renderSystem(ctx, content)
}

// RouterUserMessage wraps the raw query for the routing call.
func RouterUserMessage(query string) string {
	return "Pertanyaan: " + query
}
