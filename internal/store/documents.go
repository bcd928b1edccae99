package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rag-komite-audit/server/internal/agent/model"
	errx "github.com/rag-komite-audit/server/internal/core/error"
	logx "github.com/rag-komite-audit/server/pkg/logger"
)

// CreateDocument inserts a new document in "uploaded" state and returns it
// with its generated ID.
func (s *Store) CreateDocument(ctx context.Context, doc model.Document) (model.Document, error) {
	doc.ID = uuid.NewString()
	doc.Status = model.DocumentUploaded
	if doc.Tags == nil {
		doc.Tags = []string{}
	}

	err := s.db.QueryRow(ctx, `
		INSERT INTO documents (id, filename, file_type, file_size, category, tags, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING uploaded_at`,
		doc.ID, doc.Filename, doc.FileType, doc.FileSize, doc.Category, doc.Tags, doc.Status,
	).Scan(&doc.UploadedAt)
	if err != nil {
		logx.Error().Err(err).Str("filename", doc.Filename).Msg("Error creating document")
		return model.Document{}, errx.WrapPostgres(err)
	}

	logx.Info().Str("document_id", doc.ID).Str("filename", doc.Filename).Msg("Document created")
	return doc, nil
}

func (s *Store) GetDocument(ctx context.Context, documentID string) (model.Document, error) {
	var doc model.Document
	err := s.db.QueryRow(ctx, `
		SELECT id, filename, file_type, file_size, category, tags, status,
		       total_chunks, uploaded_at, processed_at
		FROM documents WHERE id = $1`, documentID,
	).Scan(&doc.ID, &doc.Filename, &doc.FileType, &doc.FileSize, &doc.Category,
		&doc.Tags, &doc.Status, &doc.TotalChunks, &doc.UploadedAt, &doc.ProcessedAt)
	if err != nil {
		return model.Document{}, errx.WrapPostgres(err)
	}
	return doc, nil
}

// ListDocuments returns documents newest first, optionally filtered by
// category and status.
func (s *Store) ListDocuments(ctx context.Context, category string, status model.DocumentStatus, limit int) ([]model.Document, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, filename, file_type, file_size, category, tags, status,
		       total_chunks, uploaded_at, processed_at
		FROM documents
		WHERE ($1 = '' OR category = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY uploaded_at DESC
		LIMIT $3`, category, string(status), limit)
	if err != nil {
		return nil, errx.WrapPostgres(err)
	}
	defer rows.Close()

	docs := []model.Document{}
	for rows.Next() {
		var doc model.Document
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.FileType, &doc.FileSize, &doc.Category,
			&doc.Tags, &doc.Status, &doc.TotalChunks, &doc.UploadedAt, &doc.ProcessedAt); err != nil {
			return nil, errx.WrapPostgres(err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapPostgres(err)
	}
	return docs, nil
}

// UpdateDocumentStatus advances the processing state. A non-nil totalChunks
// also stamps processed_at, marking ingestion completion.
func (s *Store) UpdateDocumentStatus(ctx context.Context, documentID string, status model.DocumentStatus, totalChunks *int) error {
	var err error
	if totalChunks != nil {
		_, err = s.db.Exec(ctx, `
			UPDATE documents SET status = $2, total_chunks = $3, processed_at = $4
			WHERE id = $1`, documentID, status, *totalChunks, time.Now())
	} else {
		_, err = s.db.Exec(ctx, `
			UPDATE documents SET status = $2 WHERE id = $1`, documentID, status)
	}
	if err != nil {
		logx.Error().Err(err).Str("document_id", documentID).Msg("Error updating document status")
		return errx.WrapPostgres(err)
	}

	logx.Info().Str("document_id", documentID).Str("status", string(status)).Msg("Document status updated")
	return nil
}

// UpdateDocumentMetadata records the detected category and tags for a document.
func (s *Store) UpdateDocumentMetadata(ctx context.Context, documentID, category string, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	_, err := s.db.Exec(ctx, `
		UPDATE documents SET category = $2, tags = $3 WHERE id = $1`,
		documentID, category, tags)
	if err != nil {
		logx.Error().Err(err).Str("document_id", documentID).Msg("Error updating document metadata")
		return errx.WrapPostgres(err)
	}
	return nil
}

// DeleteDocument removes the document; chunks and analyses cascade.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, documentID)
	if err != nil {
		return errx.WrapPostgres(err)
	}
	if tag.RowsAffected() == 0 {
		return errx.New(nil, 404, errx.PostgresNotFoundMessage)
	}

	logx.Info().Str("document_id", documentID).Msg("Document deleted")
	return nil
}
