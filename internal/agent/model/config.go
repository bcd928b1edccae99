package model

import "time"

// ================ Config ================

// RouterModelConfig configures the routing model. Model may be left empty to
// route with the expert model instead; the choice is made once at startup.
type RouterModelConfig struct {
	Model       string  `envconfig:"ROUTER_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"ROUTER_MAX_TOKENS" default:"1024"`
	Temperature float32 `envconfig:"ROUTER_TEMPERATURE" default:"0.1"`
}

type ExpertModelConfig struct {
	Model       string  `envconfig:"EXPERT_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"EXPERT_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"EXPERT_TEMPERATURE" default:"0.7"`
}

type SynthesisModelConfig struct {
	Model       string  `envconfig:"SYNTHESIS_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"SYNTHESIS_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"SYNTHESIS_TEMPERATURE" default:"0.5"`
}

type AnalysisModelConfig struct {
	Model       string  `envconfig:"ANALYSIS_MODEL" default:"gemini-2.5-flash"`
	Temperature float32 `envconfig:"ANALYSIS_TEMPERATURE" default:"0.3"`
}

type EmbeddingConfig struct {
	Model     string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-004"`
	Dimension int    `envconfig:"EMBEDDING_DIMENSION" default:"768"`
}

type RetrievalConfig struct {
	TopK      int     `envconfig:"RETRIEVAL_TOP_K" default:"5"`
	Threshold float64 `envconfig:"RETRIEVAL_THRESHOLD" default:"0.7"`
}

type ChunkingConfig struct {
	Size    int `envconfig:"CHUNK_SIZE" default:"500"`
	Overlap int `envconfig:"CHUNK_OVERLAP" default:"50"`
}

type ConversationConfig struct {
	HistoryTurns int           `envconfig:"CONVERSATION_HISTORY_TURNS" default:"5"`
	CacheTTL     time.Duration `envconfig:"CONVERSATION_CACHE_TTL" default:"15m"`
}

type OrchestratorConfig struct {
	MaxAgents int `envconfig:"ORCHESTRATOR_MAX_AGENTS" default:"2"`
}

type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8000"`
	RequestTimeout  time.Duration `envconfig:"SERVER_REQUEST_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
	MaxUploadBytes  int64         `envconfig:"SERVER_MAX_UPLOAD_BYTES" default:"52428800"`
}
