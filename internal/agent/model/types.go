package model

import (
	"encoding/json"
	"time"
)

// RoutingDecision is the router's classification of a user query. It is
// ephemeral: consumed by the orchestrator and embedded in the conversation
// metadata, never persisted on its own.
type RoutingDecision struct {
	PrimaryAgent    string   `json:"primary_agent"`
	SecondaryAgents []string `json:"secondary_agents"`
	Reasoning       string   `json:"reasoning"`
}

// QueryInput represents one orchestrated query request.
type QueryInput struct {
	Query      string `json:"query"`
	SessionID  string `json:"session_id"`
	UseContext bool   `json:"use_context"`
	MaxAgents  int    `json:"max_agents"`

	// DocumentIDs restricts retrieval to the given documents when non-empty
	// (document-scoped chat).
	DocumentIDs []string `json:"document_ids,omitempty"`
}

// OrchestrationResult is returned to the HTTP layer for every query; the
// orchestrator never surfaces an error any other way.
type OrchestrationResult struct {
	Success          bool            `json:"success"`
	Response         string          `json:"response"`
	AgentsUsed       []string        `json:"agents_used"`
	RoutingReasoning string          `json:"routing_reasoning,omitempty"`
	ContextCount     int             `json:"context_count"`
	ProcessingTimeMs int             `json:"processing_time_ms"`
	ConversationID   string          `json:"conversation_id,omitempty"`
	Metadata         *ResultMetadata `json:"metadata,omitempty"`
	Error            string          `json:"error,omitempty"`
}

// ResultMetadata carries retrieval provenance and, when more than one agent
// answered, the raw per-agent answers for transparency.
type ResultMetadata struct {
	DocumentIDs      []string          `json:"document_ids"`
	SimilarityScores []float64         `json:"similarity_scores"`
	AgentResponses   map[string]string `json:"agent_responses,omitempty"`
}

// AgentAnswer is one expert's answer, ordered by routing priority. The slice
// form preserves primary-first ordering that a map would lose.
type AgentAnswer struct {
	AgentKey  string `json:"agent_key"`
	AgentName string `json:"agent_name"`
	Response  string `json:"response"`
}

// ConversationTurn is one persisted user query + final answer. Immutable after
// creation except for the feedback fields.
type ConversationTurn struct {
	ID               string    `json:"id"`
	SessionID        string    `json:"session_id"`
	UserQuery        string    `json:"user_query"`
	AgentResponse    string    `json:"agent_response"`
	AgentsUsed       []string  `json:"agents_used"`
	ContextDocuments []string  `json:"context_documents"`
	SimilarityScores []float64 `json:"similarity_scores"`
	ProcessingTimeMs int       `json:"processing_time_ms"`
	FeedbackRating   *int      `json:"feedback_rating,omitempty"`
	FeedbackComment  *string   `json:"feedback_comment,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Agent execution statuses.
const (
	ExecutionStatusSuccess = "success"
	ExecutionStatusError   = "error"
)

// AgentExecutionLog is one append-only row per expert invoked per turn.
type AgentExecutionLog struct {
	ID              string    `json:"id"`
	ConversationID  string    `json:"conversation_id"`
	AgentName       string    `json:"agent_name"`
	AgentKey        string    `json:"agent_key"`
	InputText       string    `json:"input_text"`
	OutputText      string    `json:"output_text"`
	ExecutionTimeMs int       `json:"execution_time_ms"`
	TokensUsed      int       `json:"tokens_used"`
	Status          string    `json:"status"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// DocumentStatus tracks the processing pipeline state of an uploaded document.
type DocumentStatus string

const (
	DocumentUploaded   DocumentStatus = "uploaded"
	DocumentProcessing DocumentStatus = "processing"
	DocumentProcessed  DocumentStatus = "processed"
	DocumentError      DocumentStatus = "error"
)

// Document is an uploaded file's metadata; chunk content lives separately.
type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	FileType    string         `json:"file_type"`
	FileSize    int64          `json:"file_size"`
	Category    string         `json:"category"`
	Tags        []string       `json:"tags"`
	Status      DocumentStatus `json:"status"`
	TotalChunks int            `json:"total_chunks"`
	UploadedAt  time.Time      `json:"uploaded_at"`
	ProcessedAt *time.Time     `json:"processed_at,omitempty"`
}

// Chunk is one slice of a document's text with its embedding vector.
type Chunk struct {
	DocumentID string    `json:"document_id"`
	Index      int       `json:"chunk_index"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"-"`
	WordCount  int       `json:"word_count"`
}

// SearchResult is one similarity-search hit.
type SearchResult struct {
	Content    string  `json:"content"`
	DocumentID string  `json:"document_id"`
	Similarity float64 `json:"similarity"`
}

// CategoryStats aggregates the document corpus per category.
type CategoryStats struct {
	Category      string `json:"category"`
	DocumentCount int    `json:"document_count"`
	TotalChunks   int    `json:"total_chunks"`
	TotalSize     int64  `json:"total_size"`
}

// AgentPerformance aggregates execution logs per expert.
type AgentPerformance struct {
	AgentKey       string  `json:"agent_key"`
	AgentName      string  `json:"agent_name"`
	Executions     int     `json:"executions"`
	AvgTimeMs      float64 `json:"avg_time_ms"`
	AvgTokens      float64 `json:"avg_tokens"`
	SuccessRatePct float64 `json:"success_rate_pct"`
}

// Analysis kinds, one per document-analysis agent.
const (
	AnalysisKindFinancial   = "financial"
	AnalysisKindRiskMapping = "risk_mapping"
	AnalysisKindInsight     = "executive_insight"
)

// AnalysisRecord is one persisted document-analysis result (financial, risk
// mapping, or executive insight). Result holds the schema-valid JSON produced
// by the agent, including its fallback shape. Risk mappings reference the
// audit plan through RelatedDocumentID.
type AnalysisRecord struct {
	ID                string          `json:"id"`
	Kind              string          `json:"kind"`
	DocumentID        string          `json:"document_id"`
	RelatedDocumentID string          `json:"related_document_id,omitempty"`
	SessionID         string          `json:"session_id,omitempty"`
	AnalysisType      string          `json:"analysis_type"`
	Result            json.RawMessage `json:"analysis_result"`
	ProcessingTimeMs  int             `json:"processing_time_ms"`
	TokensUsed        int             `json:"tokens_used"`
	OverallAssessment string          `json:"overall_assessment,omitempty"`
	RiskLevel         string          `json:"risk_level,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`

	// Joined from the documents table on reads.
	DocumentFilename string `json:"document_filename,omitempty"`
	DocumentCategory string `json:"document_category,omitempty"`
}
