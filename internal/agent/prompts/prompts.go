package prompts

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// TruncationMarker is appended when a document is cut to fit a model's
// context budget.
const TruncationMarker = "\n\n[... dokumen terpotong karena keterbatasan panjang ...]"

// TruncateDocument cuts text to maxChars and appends the truncation marker.
func TruncateDocument(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	return text[:maxChars] + TruncationMarker
}

// renderSystem pushes a fully substituted system prompt through the Eino
// prompt component so Prompt callbacks fire. Templates contain literal JSON
// braces, so token substitution happens before this with a string replacer
// rather than FString formatting.
func renderSystem(ctx context.Context, content string) (string, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("system prompt callbacks: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("system prompt callbacks: empty result")
	}
	return msgs[0].Content, nil
}
