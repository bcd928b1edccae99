package store

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/rag-komite-audit/server/internal/agent/model"
	errx "github.com/rag-komite-audit/server/internal/core/error"
	logx "github.com/rag-komite-audit/server/pkg/logger"
)

// InsertChunks stores a document's chunks and embeddings in one batch.
// Re-ingesting a document overwrites chunks at the same index.
func (s *Store) InsertChunks(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range chunks {
		batch.Queue(`
			INSERT INTO document_chunks (document_id, chunk_index, content, embedding, word_count)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (document_id, chunk_index)
			DO UPDATE SET content = EXCLUDED.content,
			              embedding = EXCLUDED.embedding,
			              word_count = EXCLUDED.word_count`,
			c.DocumentID, c.Index, c.Content, pgvector.NewVector(c.Embedding), c.WordCount)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	for range chunks {
		if _, err := results.Exec(); err != nil {
			logx.Error().Err(err).Str("document_id", chunks[0].DocumentID).Msg("Error inserting chunks")
			return errx.WrapPostgres(err)
		}
	}

	logx.Info().Str("document_id", chunks[0].DocumentID).Int("chunks", len(chunks)).Msg("Chunks inserted")
	return nil
}

// SimilaritySearch returns the topK chunks whose cosine similarity to the
// query embedding meets the threshold, best match first. A non-empty
// documentIDs restricts the search to those documents.
func (s *Store) SimilaritySearch(ctx context.Context, embedding []float32, threshold float64, topK int, documentIDs []string) ([]model.SearchResult, error) {
	if topK <= 0 {
		topK = 10
	}

	if documentIDs == nil {
		documentIDs = []string{}
	}

	vec := pgvector.NewVector(embedding)
	rows, err := s.db.Query(ctx, `
		SELECT content, document_id, 1 - (embedding <=> $1) AS similarity
		FROM document_chunks
		WHERE 1 - (embedding <=> $1) >= $2
		  AND (cardinality($4::uuid[]) = 0 OR document_id = ANY($4::uuid[]))
		ORDER BY embedding <=> $1
		LIMIT $3`, vec, threshold, topK, documentIDs)
	if err != nil {
		return nil, errx.WrapPostgres(err)
	}
	defer rows.Close()

	results := []model.SearchResult{}
	for rows.Next() {
		var r model.SearchResult
		if err := rows.Scan(&r.Content, &r.DocumentID, &r.Similarity); err != nil {
			return nil, errx.WrapPostgres(err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapPostgres(err)
	}

	logx.Debug().Int("results", len(results)).Msg("Similarity search completed")
	return results, nil
}

// GetDocumentFullText reconstructs the document text from its ordered chunks.
func (s *Store) GetDocumentFullText(ctx context.Context, documentID string) (string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT content FROM document_chunks
		WHERE document_id = $1
		ORDER BY chunk_index`, documentID)
	if err != nil {
		return "", errx.WrapPostgres(err)
	}
	defer rows.Close()

	var parts []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return "", errx.WrapPostgres(err)
		}
		parts = append(parts, content)
	}
	if err := rows.Err(); err != nil {
		return "", errx.WrapPostgres(err)
	}
	if len(parts) == 0 {
		return "", errx.New(pgx.ErrNoRows, 404, errx.PostgresNotFoundMessage)
	}

	return strings.Join(parts, "\n\n"), nil
}
