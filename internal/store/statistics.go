package store

import (
	"context"

	"github.com/rag-komite-audit/server/internal/agent/model"
	errx "github.com/rag-komite-audit/server/internal/core/error"
)

// GetDocumentStatistics aggregates the processed corpus per category.
func (s *Store) GetDocumentStatistics(ctx context.Context) ([]model.CategoryStats, error) {
	rows, err := s.db.Query(ctx, `
		SELECT COALESCE(NULLIF(category, ''), 'uncategorized') AS category,
		       COUNT(*) AS document_count,
		       COALESCE(SUM(total_chunks), 0) AS total_chunks,
		       COALESCE(SUM(file_size), 0) AS total_size
		FROM documents
		GROUP BY 1
		ORDER BY document_count DESC`)
	if err != nil {
		return nil, errx.WrapPostgres(err)
	}
	defer rows.Close()

	stats := []model.CategoryStats{}
	for rows.Next() {
		var st model.CategoryStats
		if err := rows.Scan(&st.Category, &st.DocumentCount, &st.TotalChunks, &st.TotalSize); err != nil {
			return nil, errx.WrapPostgres(err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapPostgres(err)
	}
	return stats, nil
}

// GetAgentPerformance aggregates execution logs per expert.
func (s *Store) GetAgentPerformance(ctx context.Context) ([]model.AgentPerformance, error) {
	rows, err := s.db.Query(ctx, `
		SELECT agent_key,
		       MAX(agent_name) AS agent_name,
		       COUNT(*) AS executions,
		       AVG(execution_time_ms) AS avg_time_ms,
		       AVG(tokens_used) AS avg_tokens,
		       100.0 * COUNT(*) FILTER (WHERE status = 'success') / COUNT(*) AS success_rate_pct
		FROM agent_logs
		GROUP BY agent_key
		ORDER BY executions DESC`)
	if err != nil {
		return nil, errx.WrapPostgres(err)
	}
	defer rows.Close()

	perf := []model.AgentPerformance{}
	for rows.Next() {
		var p model.AgentPerformance
		if err := rows.Scan(&p.AgentKey, &p.AgentName, &p.Executions, &p.AvgTimeMs, &p.AvgTokens, &p.SuccessRatePct); err != nil {
			return nil, errx.WrapPostgres(err)
		}
		perf = append(perf, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapPostgres(err)
	}
	return perf, nil
}
