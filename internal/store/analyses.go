package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/rag-komite-audit/server/internal/agent/model"
	errx "github.com/rag-komite-audit/server/internal/core/error"
	logx "github.com/rag-komite-audit/server/pkg/logger"
)

const analysisColumns = `
	a.id, a.kind, a.document_id, a.related_document_id, a.session_id,
	a.analysis_type, a.analysis_result, a.processing_time_ms, a.tokens_used,
	a.overall_assessment, a.risk_level, a.created_at, d.filename, d.category`

// CreateAnalysis persists one document-analysis result and returns it with
// its generated ID.
func (s *Store) CreateAnalysis(ctx context.Context, rec model.AnalysisRecord) (model.AnalysisRecord, error) {
	rec.ID = uuid.NewString()

	var related any
	if rec.RelatedDocumentID != "" {
		related = rec.RelatedDocumentID
	}

	err := s.db.QueryRow(ctx, `
		INSERT INTO document_analyses
			(id, kind, document_id, related_document_id, session_id, analysis_type,
			 analysis_result, processing_time_ms, tokens_used, overall_assessment, risk_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`,
		rec.ID, rec.Kind, rec.DocumentID, related, rec.SessionID, rec.AnalysisType,
		rec.Result, rec.ProcessingTimeMs, rec.TokensUsed, rec.OverallAssessment, rec.RiskLevel,
	).Scan(&rec.CreatedAt)
	if err != nil {
		logx.Error().Err(err).Str("document_id", rec.DocumentID).Str("kind", rec.Kind).Msg("Error saving analysis")
		return model.AnalysisRecord{}, errx.WrapPostgres(err)
	}

	logx.Info().
		Str("analysis_id", rec.ID).
		Str("document_id", rec.DocumentID).
		Str("kind", rec.Kind).
		Str("analysis_type", rec.AnalysisType).
		Msg("Analysis saved")
	return rec, nil
}

// GetAnalysis returns one analysis by ID regardless of kind.
func (s *Store) GetAnalysis(ctx context.Context, analysisID string) (model.AnalysisRecord, error) {
	records, err := s.queryAnalyses(ctx, `
		SELECT `+analysisColumns+`
		FROM document_analyses a
		JOIN documents d ON d.id = a.document_id
		WHERE a.id = $1`, analysisID)
	if err != nil {
		return model.AnalysisRecord{}, err
	}
	if len(records) == 0 {
		return model.AnalysisRecord{}, errx.New(nil, 404, errx.PostgresNotFoundMessage)
	}
	return records[0], nil
}

// GetAnalysesByDocument returns a document's analyses of one kind, newest
// first.
func (s *Store) GetAnalysesByDocument(ctx context.Context, kind, documentID string, limit int) ([]model.AnalysisRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.queryAnalyses(ctx, `
		SELECT `+analysisColumns+`
		FROM document_analyses a
		JOIN documents d ON d.id = a.document_id
		WHERE a.kind = $1 AND a.document_id = $2
		ORDER BY a.created_at DESC
		LIMIT $3`, kind, documentID, limit)
}

// ListAnalyses returns analyses of one kind, newest first, optionally
// filtered by session and risk level.
func (s *Store) ListAnalyses(ctx context.Context, kind, sessionID, riskLevel string, limit int) ([]model.AnalysisRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.queryAnalyses(ctx, `
		SELECT `+analysisColumns+`
		FROM document_analyses a
		JOIN documents d ON d.id = a.document_id
		WHERE a.kind = $1
		  AND ($2 = '' OR a.session_id = $2)
		  AND ($3 = '' OR a.risk_level = $3)
		ORDER BY a.created_at DESC
		LIMIT $4`, kind, sessionID, riskLevel, limit)
}

func (s *Store) queryAnalyses(ctx context.Context, query string, args ...any) ([]model.AnalysisRecord, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errx.WrapPostgres(err)
	}
	defer rows.Close()

	records := []model.AnalysisRecord{}
	for rows.Next() {
		var (
			r       model.AnalysisRecord
			related sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Kind, &r.DocumentID, &related, &r.SessionID,
			&r.AnalysisType, &r.Result, &r.ProcessingTimeMs, &r.TokensUsed,
			&r.OverallAssessment, &r.RiskLevel, &r.CreatedAt,
			&r.DocumentFilename, &r.DocumentCategory); err != nil {
			return nil, errx.WrapPostgres(err)
		}
		r.RelatedDocumentID = related.String
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapPostgres(err)
	}
	return records, nil
}
