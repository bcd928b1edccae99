package knowledge

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/rag-komite-audit/server/internal/agent/model"
	logx "github.com/rag-komite-audit/server/pkg/logger"
)

// Embedder turns text into vectors for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// GeminiEmbedder embeds text through the Gemini embedding API.
type GeminiEmbedder struct {
	client *genai.Client
	cfg    model.EmbeddingConfig
}

func NewGeminiEmbedder(client *genai.Client, cfg model.EmbeddingConfig) *GeminiEmbedder {
	return &GeminiEmbedder{client: client, cfg: cfg}
}

func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.Text(t)...)
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.cfg.Model, contents, nil)
	if err != nil {
		logx.Error().Err(err).Str("model", e.cfg.Model).Msg("Error generating embeddings")
		return nil, fmt.Errorf("error generating embeddings: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, 0, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d", i)
		}
		if e.cfg.Dimension > 0 && len(emb.Values) != e.cfg.Dimension {
			return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(emb.Values), e.cfg.Dimension)
		}
		vectors = append(vectors, emb.Values)
	}
	return vectors, nil
}
