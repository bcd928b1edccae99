package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	logx "github.com/rag-komite-audit/server/pkg/logger"
)

// DB is the subset of pgxpool.Pool the store depends on.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store persists documents, chunk embeddings, conversations, and analyses.
type Store struct {
	db DB
}

func New(db DB) *Store {
	return &Store{db: db}
}

// Migrate creates the schema if it does not exist. The embedding column is
// dimensioned at migration time and must match the embedding model.
func (s *Store) Migrate(ctx context.Context, embeddingDim int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,

		`CREATE TABLE IF NOT EXISTS documents (
			id UUID PRIMARY KEY,
			filename TEXT NOT NULL,
			file_type TEXT NOT NULL,
			file_size BIGINT NOT NULL DEFAULT 0,
			category TEXT NOT NULL DEFAULT '',
			tags TEXT[] NOT NULL DEFAULT '{}',
			status TEXT NOT NULL DEFAULT 'uploaded',
			total_chunks INT NOT NULL DEFAULT 0,
			uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			processed_at TIMESTAMPTZ
		)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS document_chunks (
			id BIGSERIAL PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			chunk_index INT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			word_count INT NOT NULL DEFAULT 0,
			UNIQUE (document_id, chunk_index)
		)`, embeddingDim),

		`CREATE TABLE IF NOT EXISTS conversations (
			id UUID PRIMARY KEY,
			session_id TEXT NOT NULL,
			user_query TEXT NOT NULL,
			agent_response TEXT NOT NULL,
			agents_used TEXT[] NOT NULL DEFAULT '{}',
			context_documents TEXT[] NOT NULL DEFAULT '{}',
			similarity_scores FLOAT8[] NOT NULL DEFAULT '{}',
			processing_time_ms INT NOT NULL DEFAULT 0,
			feedback_rating INT,
			feedback_comment TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS agent_logs (
			id UUID PRIMARY KEY,
			conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			agent_name TEXT NOT NULL,
			agent_key TEXT NOT NULL,
			input_text TEXT NOT NULL,
			output_text TEXT NOT NULL,
			execution_time_ms INT NOT NULL DEFAULT 0,
			tokens_used INT NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error_message TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS document_analyses (
			id UUID PRIMARY KEY,
			kind TEXT NOT NULL,
			document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			related_document_id UUID REFERENCES documents(id) ON DELETE CASCADE,
			session_id TEXT NOT NULL DEFAULT '',
			analysis_type TEXT NOT NULL,
			analysis_result JSONB NOT NULL,
			processing_time_ms INT NOT NULL DEFAULT 0,
			tokens_used INT NOT NULL DEFAULT 0,
			overall_assessment TEXT NOT NULL DEFAULT '',
			risk_level TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_document_chunks_document
			ON document_chunks (document_id, chunk_index)`,
		`CREATE INDEX IF NOT EXISTS idx_document_chunks_embedding
			ON document_chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_session
			ON conversations (session_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_agent_logs_conversation
			ON agent_logs (conversation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_document_analyses_document
			ON document_analyses (document_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_document_analyses_kind
			ON document_analyses (kind, created_at DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("error migrating schema: %w", err)
		}
	}

	logx.Info().Msg("Database schema ready")
	return nil
}
