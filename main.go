package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/rag-komite-audit/server/internal/agent/analysts"
	"github.com/rag-komite-audit/server/internal/agent/experts"
	"github.com/rag-komite-audit/server/internal/agent/llm"
	"github.com/rag-komite-audit/server/internal/agent/model"
	"github.com/rag-komite-audit/server/internal/agent/orchestrator"
	"github.com/rag-komite-audit/server/internal/agent/router"
	"github.com/rag-komite-audit/server/internal/agent/synthesis"
	"github.com/rag-komite-audit/server/internal/core"
	"github.com/rag-komite-audit/server/internal/extract"
	"github.com/rag-komite-audit/server/internal/ingest"
	"github.com/rag-komite-audit/server/internal/knowledge"
	"github.com/rag-komite-audit/server/internal/server"
	"github.com/rag-komite-audit/server/internal/session"
	"github.com/rag-komite-audit/server/internal/store"
	logx "github.com/rag-komite-audit/server/pkg/logger"
	pkgpostgres "github.com/rag-komite-audit/server/pkg/postgres"
	pkgredis "github.com/rag-komite-audit/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the service, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Postgres pkgpostgres.Config
	Redis    pkgredis.Config
	Server   model.ServerConfig

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Router       model.RouterModelConfig
	Expert       model.ExpertModelConfig
	Synthesis    model.SynthesisModelConfig
	Analysis     model.AnalysisModelConfig
	Embedding    model.EmbeddingConfig
	Retrieval    model.RetrievalConfig
	Chunking     model.ChunkingConfig
	Conversation model.ConversationConfig
	Orchestrator model.OrchestratorConfig
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	pool, err := cfg.Postgres.New(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer pool.Close()

	db := store.New(pool)
	if err := db.Migrate(ctx, cfg.Embedding.Dimension); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	rdb, err := cfg.Redis.New(ctx)
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	defer rdb.Close()

	models, err := llm.NewModels(ctx, llm.Config{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Router:    cfg.Router,
		Expert:    cfg.Expert,
		Synthesis: cfg.Synthesis,
		Analysis:  cfg.Analysis,
	})
	if err != nil {
		log.Fatalf("Failed to initialise chat models: %v", err)
	}

	embedder := knowledge.NewGeminiEmbedder(models.Client, cfg.Embedding)
	sessions := session.NewCache(rdb, db, cfg.Conversation.CacheTTL, cfg.Conversation.HistoryTurns)

	agents := make(map[string]orchestrator.Agent)
	for key, expert := range experts.NewRegistry(models.Expert, models.ExpertModelName) {
		agents[key] = expert
	}

	orch, err := orchestrator.New(
		router.New(models.Router, models.RouterModelName),
		agents,
		orchestrator.NewRetriever(embedder, db, cfg.Retrieval),
		synthesis.New(models.Synthesis, models.SynthesisModelName),
		db,
		sessions,
		cfg.Orchestrator,
		cfg.Conversation,
	)
	if err != nil {
		log.Fatalf("Failed to build orchestrator: %v", err)
	}

	analysis := analysts.NewService(
		db,
		db,
		analysts.NewFinancialAnalyst(models.Analysis, models.AnalysisModelName),
		analysts.NewRiskAuditMapper(models.Analysis, models.AnalysisModelName),
		analysts.NewInsightAnalyzer(models.Analysis, models.AnalysisModelName),
	)

	processor := ingest.New(db, extract.NewExtractor(), embedder, cfg.Chunking)

	srv := server.New(orch, db, analysis, processor, cfg.Server)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logx.Info().Str("signal", sig.String()).Msg("Shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
