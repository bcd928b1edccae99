package knowledge

import (
	"strings"

	"github.com/rag-komite-audit/server/internal/agent/model"
)

// ChunkText splits text into overlapping chunks along sentence boundaries.
// Sizes are measured in words; overlap carries trailing sentences of one
// chunk into the next so retrieval does not lose meaning at chunk edges.
func ChunkText(text string, cfg model.ChunkingConfig) []model.Chunk {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var (
		chunks     []model.Chunk
		current    []string
		currentLen int
	)

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, model.Chunk{
			Index:     len(chunks),
			Content:   strings.Join(current, ". ") + ".",
			WordCount: currentLen,
		})
	}

	for _, sentence := range sentences {
		words := len(strings.Fields(sentence))

		if currentLen+words > cfg.Size && len(current) > 0 {
			flush()

			// Carry trailing sentences forward proportional to the
			// configured overlap.
			keep := len(current) * cfg.Overlap / cfg.Size
			if keep > 0 {
				current = current[len(current)-keep:]
			} else {
				current = nil
			}
			currentLen = 0
			for _, s := range current {
				currentLen += len(strings.Fields(s))
			}
		}

		current = append(current, sentence)
		currentLen += words
	}
	flush()

	return chunks
}

func splitSentences(text string) []string {
	flat := strings.ReplaceAll(text, "\n", " ")
	parts := strings.Split(flat, ". ")

	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		sentences = append(sentences, strings.TrimSuffix(p, "."))
	}
	return sentences
}
