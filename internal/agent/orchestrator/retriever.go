package orchestrator

import (
	"context"

	"github.com/rag-komite-audit/server/internal/agent/model"
	"github.com/rag-komite-audit/server/internal/knowledge"
	logx "github.com/rag-komite-audit/server/pkg/logger"
)

// Searcher is the vector-search surface the retriever depends on.
type Searcher interface {
	SimilaritySearch(ctx context.Context, embedding []float32, threshold float64, topK int, documentIDs []string) ([]model.SearchResult, error)
}

// Retriever embeds the query and pulls the most similar chunks.
type Retriever struct {
	embedder knowledge.Embedder
	searcher Searcher
	cfg      model.RetrievalConfig
}

func NewRetriever(embedder knowledge.Embedder, searcher Searcher, cfg model.RetrievalConfig) *Retriever {
	return &Retriever{embedder: embedder, searcher: searcher, cfg: cfg}
}

// Retrieve returns three co-indexed slices: chunk contents, their document
// IDs, and similarity scores. It never returns an error: embedding or search
// failure yields three empty slices, as does zero matches.
func (r *Retriever) Retrieve(ctx context.Context, query string, documentIDs []string) ([]string, []string, []float64) {
	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		logx.Error().Err(err).Msg("Error embedding query")
		return []string{}, []string{}, []float64{}
	}

	results, err := r.searcher.SimilaritySearch(ctx, embedding, r.cfg.Threshold, r.cfg.TopK, documentIDs)
	if err != nil {
		logx.Error().Err(err).Msg("Error in similarity search")
		return []string{}, []string{}, []float64{}
	}
	if len(results) == 0 {
		logx.Warn().Msg("No context found for query")
		return []string{}, []string{}, []float64{}
	}

	contexts := make([]string, 0, len(results))
	docIDs := make([]string, 0, len(results))
	scores := make([]float64, 0, len(results))
	for _, res := range results {
		contexts = append(contexts, res.Content)
		docIDs = append(docIDs, res.DocumentID)
		scores = append(scores, res.Similarity)
	}

	logx.Info().Int("chunks", len(contexts)).Msg("Context retrieved")
	return contexts, docIDs, scores
}
