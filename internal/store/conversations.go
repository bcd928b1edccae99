package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/rag-komite-audit/server/internal/agent/model"
	errx "github.com/rag-komite-audit/server/internal/core/error"
	logx "github.com/rag-komite-audit/server/pkg/logger"
)

// CreateConversation persists one completed turn and returns it with its
// generated ID.
func (s *Store) CreateConversation(ctx context.Context, turn model.ConversationTurn) (model.ConversationTurn, error) {
	turn.ID = uuid.NewString()
	if turn.AgentsUsed == nil {
		turn.AgentsUsed = []string{}
	}
	if turn.ContextDocuments == nil {
		turn.ContextDocuments = []string{}
	}
	if turn.SimilarityScores == nil {
		turn.SimilarityScores = []float64{}
	}

	err := s.db.QueryRow(ctx, `
		INSERT INTO conversations
			(id, session_id, user_query, agent_response, agents_used,
			 context_documents, similarity_scores, processing_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		turn.ID, turn.SessionID, turn.UserQuery, turn.AgentResponse, turn.AgentsUsed,
		turn.ContextDocuments, turn.SimilarityScores, turn.ProcessingTimeMs,
	).Scan(&turn.CreatedAt)
	if err != nil {
		logx.Error().Err(err).Str("session_id", turn.SessionID).Msg("Error saving conversation")
		return model.ConversationTurn{}, errx.WrapPostgres(err)
	}

	logx.Info().Str("conversation_id", turn.ID).Str("session_id", turn.SessionID).Msg("Conversation saved")
	return turn, nil
}

// GetConversationHistory returns a session's turns, newest first.
func (s *Store) GetConversationHistory(ctx context.Context, sessionID string, limit int) ([]model.ConversationTurn, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, session_id, user_query, agent_response, agents_used,
		       context_documents, similarity_scores, processing_time_ms,
		       feedback_rating, feedback_comment, created_at
		FROM conversations
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, errx.WrapPostgres(err)
	}
	defer rows.Close()

	turns := []model.ConversationTurn{}
	for rows.Next() {
		var t model.ConversationTurn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.UserQuery, &t.AgentResponse, &t.AgentsUsed,
			&t.ContextDocuments, &t.SimilarityScores, &t.ProcessingTimeMs,
			&t.FeedbackRating, &t.FeedbackComment, &t.CreatedAt); err != nil {
			return nil, errx.WrapPostgres(err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapPostgres(err)
	}
	return turns, nil
}

// UpdateConversationFeedback records a user rating on a persisted turn.
func (s *Store) UpdateConversationFeedback(ctx context.Context, conversationID string, rating int, comment string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE conversations SET feedback_rating = $2, feedback_comment = $3
		WHERE id = $1`, conversationID, rating, comment)
	if err != nil {
		return errx.WrapPostgres(err)
	}
	if tag.RowsAffected() == 0 {
		return errx.New(nil, 404, errx.PostgresNotFoundMessage)
	}

	logx.Info().Str("conversation_id", conversationID).Int("rating", rating).Msg("Feedback updated")
	return nil
}

// LogAgentExecution appends one expert invocation record for a turn.
func (s *Store) LogAgentExecution(ctx context.Context, log model.AgentExecutionLog) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO agent_logs
			(id, conversation_id, agent_name, agent_key, input_text, output_text,
			 execution_time_ms, tokens_used, status, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.NewString(), log.ConversationID, log.AgentName, log.AgentKey,
		log.InputText, log.OutputText, log.ExecutionTimeMs, log.TokensUsed,
		log.Status, log.ErrorMessage)
	if err != nil {
		logx.Error().Err(err).Str("agent_key", log.AgentKey).Msg("Error logging agent execution")
		return errx.WrapPostgres(err)
	}
	return nil
}
