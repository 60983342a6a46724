package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"notebook-rag/internal/config"
	"notebook-rag/internal/models"
)

const (
	defaultGeminiChatModel  = "gemini-1.5-flash"
	defaultGeminiEmbedModel = "gemini-embedding-001"
)

// Gemini adapts the Google Gemini API.
type Gemini struct {
	apiKey     string
	chatModel  string
	embedModel string

	mu        sync.Mutex
	clients   map[string]*googleai.GoogleAI
	embedders map[string]*embeddings.EmbedderImpl
}

func NewGemini(cfg config.GeminiConfig) *Gemini {
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = defaultGeminiChatModel
	}
	embedModel := cfg.EmbeddingModel
	if embedModel == "" {
		embedModel = defaultGeminiEmbedModel
	}
	return &Gemini{
		apiKey:     cfg.APIKey,
		chatModel:  chatModel,
		embedModel: embedModel,
		clients:    map[string]*googleai.GoogleAI{},
		embedders:  map[string]*embeddings.EmbedderImpl{},
	}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Capabilities() Capabilities {
	return Capabilities{
		SupportsChat:            true,
		SupportsStreaming:       true,
		SupportsEmbeddings:      true,
		SupportsVision:          true,
		SupportsFunctionCalling: true,
		MaxContextLength:        1048576,
		ChatModels: []string{
			"gemini-1.5-flash",
			"gemini-1.5-pro",
			"gemini-2.0-flash",
			"gemini-2.5-flash",
			"gemini-2.5-pro",
		},
		EmbeddingModels: []string{
			"gemini-embedding-001",
			"text-embedding-004",
		},
	}
}

// client returns a cached GoogleAI client for the given embedding model.
// The embedding model is fixed per client, so clients are keyed by it.
func (g *Gemini) client(ctx context.Context, embedModel string) (*googleai.GoogleAI, error) {
	if !g.IsConfigured() {
		return nil, fmt.Errorf("gemini: %w", ErrNotConfigured)
	}
	if embedModel == "" {
		embedModel = g.embedModel
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.clients[embedModel]; ok {
		return c, nil
	}
	c, err := googleai.New(ctx,
		googleai.WithAPIKey(g.apiKey),
		googleai.WithDefaultModel(g.chatModel),
		googleai.WithDefaultEmbeddingModel(embedModel),
	)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	g.clients[embedModel] = c
	return c, nil
}

func (g *Gemini) StreamChat(ctx context.Context, messages []models.Message, model string, fn StreamFunc) error {
	llm, err := g.client(ctx, "")
	if err != nil {
		return err
	}
	_, err = llm.GenerateContent(ctx, toMessageContent(messages), streamOptions(model, fn)...)
	return err
}

func (g *Gemini) EmbedQuery(ctx context.Context, text, model string) ([]float32, error) {
	embedder, err := g.embedder(ctx, model)
	if err != nil {
		return nil, err
	}
	return embedder.EmbedQuery(ctx, text)
}

func (g *Gemini) EmbedDocuments(ctx context.Context, texts []string, model string) ([][]float32, error) {
	embedder, err := g.embedder(ctx, model)
	if err != nil {
		return nil, err
	}
	return embedder.EmbedDocuments(ctx, texts)
}

func (g *Gemini) embedder(ctx context.Context, model string) (*embeddings.EmbedderImpl, error) {
	if model == "" {
		model = g.embedModel
	}
	llm, err := g.client(ctx, model)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.embedders[model]; ok {
		return e, nil
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("gemini embedder: %w", err)
	}
	g.embedders[model] = embedder
	return embedder, nil
}

func (g *Gemini) ListModels(ctx context.Context) ([]string, error) {
	return g.Capabilities().ChatModels, nil
}

func (g *Gemini) HealthCheck(ctx context.Context) Health {
	if !g.IsConfigured() {
		return Health{Status: HealthError, Message: "API key not configured", Code: CodeMissingAPIKey}
	}
	llm, err := g.client(ctx, "")
	if err != nil {
		return Health{Status: HealthError, Message: err.Error(), Code: CodeAPIError}
	}
	msgs := []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, "Hi")}
	if _, err := llm.GenerateContent(ctx, msgs, llms.WithMaxTokens(1)); err != nil {
		return Health{Status: HealthError, Message: err.Error(), Code: CodeAPIError}
	}
	return Health{Status: HealthOK, Message: "Gemini is healthy"}
}

func (g *Gemini) IsConfigured() bool {
	return g.apiKey != ""
}
