package llm

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/rag-komite-audit/server/internal/agent/model"
	logx "github.com/rag-komite-audit/server/pkg/logger"
)

// ChatModel is the narrow completion surface the agent packages depend on.
// *gemini.ChatModel satisfies it; tests substitute stubs.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error)
}

// Config holds the provider credentials plus per-purpose model settings.
type Config struct {
	APIKey    string
	BaseURL   string
	Router    model.RouterModelConfig
	Expert    model.ExpertModelConfig
	Synthesis model.SynthesisModelConfig
	Analysis  model.AnalysisModelConfig
}

// Models holds one chat model per purpose. Router may point at a cheaper
// model than the others; when ROUTER_MODEL is unset it aliases Expert, chosen
// once here and never switched afterwards.
type Models struct {
	// Client is the shared Gemini API client, also used for embeddings.
	Client *genai.Client

	Router    ChatModel
	Expert    ChatModel
	Synthesis ChatModel
	Analysis  ChatModel

	RouterModelName    string
	ExpertModelName    string
	SynthesisModelName string
	AnalysisModelName  string
}

// NewModels creates the Gemini client and one chat model per purpose.
func NewModels(ctx context.Context, cfg Config) (*Models, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	expert, err := newChatModel(ctx, client, cfg.Expert.Model, cfg.Expert.Temperature, cfg.Expert.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("error creating expert model: %w", err)
	}

	synthesis, err := newChatModel(ctx, client, cfg.Synthesis.Model, cfg.Synthesis.Temperature, cfg.Synthesis.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("error creating synthesis model: %w", err)
	}

	analysis, err := newChatModel(ctx, client, cfg.Analysis.Model, cfg.Analysis.Temperature, 0)
	if err != nil {
		return nil, fmt.Errorf("error creating analysis model: %w", err)
	}

	m := &Models{
		Client:             client,
		Expert:             expert,
		Synthesis:          synthesis,
		Analysis:           analysis,
		ExpertModelName:    cfg.Expert.Model,
		SynthesisModelName: cfg.Synthesis.Model,
		AnalysisModelName:  cfg.Analysis.Model,
	}

	// Static provider selection for routing: prefer the dedicated (cheaper)
	// routing model when configured, otherwise reuse the expert model.
	if cfg.Router.Model != "" {
		router, err := newChatModel(ctx, client, cfg.Router.Model, cfg.Router.Temperature, cfg.Router.MaxTokens)
		if err != nil {
			return nil, fmt.Errorf("error creating router model: %w", err)
		}
		m.Router = router
		m.RouterModelName = cfg.Router.Model
	} else {
		m.Router = expert
		m.RouterModelName = cfg.Expert.Model
	}

	logx.Debug().
		Str("router_model", m.RouterModelName).
		Str("expert_model", m.ExpertModelName).
		Msg("Chat models initialized")
	return m, nil
}

func newChatModel(ctx context.Context, client *genai.Client, modelName string, temperature float32, maxTokens int) (*gemini.ChatModel, error) {
	cfg := &gemini.Config{
		Client:      client,
		Model:       modelName,
		Temperature: &temperature,
	}
	if maxTokens > 0 {
		cfg.MaxTokens = &maxTokens
	}
	return gemini.NewChatModel(ctx, cfg)
}
