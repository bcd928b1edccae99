// Package ingest runs the document ingestion pipeline: extract text,
// classify, chunk, embed, and persist chunks with status transitions.
package ingest

import (
	"context"
	"strings"

	"github.com/rag-komite-audit/server/internal/agent/model"
	errx "github.com/rag-komite-audit/server/internal/core/error"
	"github.com/rag-komite-audit/server/internal/knowledge"
	logx "github.com/rag-komite-audit/server/pkg/logger"
)

const minTextLength = 50

// DocumentStore is the persistence surface the pipeline needs.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc model.Document) (model.Document, error)
	UpdateDocumentStatus(ctx context.Context, documentID string, status model.DocumentStatus, totalChunks *int) error
	UpdateDocumentMetadata(ctx context.Context, documentID, category string, tags []string) error
	InsertChunks(ctx context.Context, chunks []model.Chunk) error
}

// TextExtractor converts raw file bytes into plain text.
type TextExtractor interface {
	ExtractBytes(content []byte, ext string) (string, error)
}

// Processor ingests uploaded documents end to end.
type Processor struct {
	store     DocumentStore
	extractor TextExtractor
	embedder  knowledge.Embedder
	chunking  model.ChunkingConfig
}

func New(store DocumentStore, extractor TextExtractor, embedder knowledge.Embedder, chunking model.ChunkingConfig) *Processor {
	return &Processor{
		store:     store,
		extractor: extractor,
		embedder:  embedder,
		chunking:  chunking,
	}
}

// Process runs the full pipeline for one uploaded file. The document row is
// created first so a failure anywhere later can be recorded against it with
// an error status.
func (p *Processor) Process(ctx context.Context, filename, ext string, size int64, content []byte) (model.Document, error) {
	logx.Info().Str("filename", filename).Msg("Starting to process document")

	doc, err := p.store.CreateDocument(ctx, model.Document{
		Filename: filename,
		FileType: strings.TrimPrefix(strings.ToLower(ext), "."),
		FileSize: size,
	})
	if err != nil {
		return model.Document{}, err
	}

	if err := p.ingest(ctx, &doc, content, ext); err != nil {
		logx.Error().Err(err).Str("document_id", doc.ID).Str("filename", filename).Msg("Document processing failed")
		if stErr := p.store.UpdateDocumentStatus(ctx, doc.ID, model.DocumentError, nil); stErr != nil {
			logx.Error().Err(stErr).Str("document_id", doc.ID).Msg("Error marking document as failed")
		}
		return model.Document{}, err
	}

	logx.Info().Str("document_id", doc.ID).Str("filename", filename).Int("total_chunks", doc.TotalChunks).
		Msg("Document processed successfully")
	return doc, nil
}

func (p *Processor) ingest(ctx context.Context, doc *model.Document, content []byte, ext string) error {
	text, err := p.extractor.ExtractBytes(content, ext)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(text)) < minTextLength {
		return errx.New(nil, 422, "document contains insufficient text content")
	}

	category := DetectCategory(text, doc.Filename)
	tags := GenerateTags(text)

	if err := p.store.UpdateDocumentStatus(ctx, doc.ID, model.DocumentProcessing, nil); err != nil {
		return err
	}
	if err := p.store.UpdateDocumentMetadata(ctx, doc.ID, category, tags); err != nil {
		return err
	}
	doc.Category = category
	doc.Tags = tags

	chunks := knowledge.ChunkText(text, p.chunking)
	if len(chunks) == 0 {
		return errx.New(nil, 422, "document produced no text chunks")
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		chunks[i].DocumentID = doc.ID
		texts[i] = chunks[i].Content
	}

	logx.Info().Str("document_id", doc.ID).Int("chunks", len(chunks)).Msg("Generating embeddings")
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	if err := p.store.InsertChunks(ctx, chunks); err != nil {
		return err
	}

	total := len(chunks)
	if err := p.store.UpdateDocumentStatus(ctx, doc.ID, model.DocumentProcessed, &total); err != nil {
		return err
	}
	doc.Status = model.DocumentProcessed
	doc.TotalChunks = total
	return nil
}
