package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"notebook-rag/internal/config"
	"notebook-rag/internal/models"
)

const (
	defaultOpenAIChatModel  = "gpt-4.1-mini"
	defaultOpenAIEmbedModel = "text-embedding-3-small"
	openAIAPIBase           = "https://api.openai.com/v1"
)

// OpenAI adapts the OpenAI chat and embedding APIs.
type OpenAI struct {
	apiKey     string
	baseURL    string
	chatModel  string
	embedModel string
	httpClient *http.Client

	mu        sync.Mutex
	embedders map[string]*embeddings.EmbedderImpl
}

func NewOpenAI(cfg config.OpenAIConfig) *OpenAI {
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = defaultOpenAIChatModel
	}
	embedModel := cfg.EmbeddingModel
	if embedModel == "" {
		embedModel = defaultOpenAIEmbedModel
	}
	return &OpenAI{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		chatModel:  chatModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		embedders:  map[string]*embeddings.EmbedderImpl{},
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Capabilities() Capabilities {
	return Capabilities{
		SupportsChat:            true,
		SupportsStreaming:       true,
		SupportsEmbeddings:      true,
		SupportsVision:          true,
		SupportsFunctionCalling: true,
		MaxContextLength:        128000,
		ChatModels: []string{
			"gpt-5",
			"gpt-5-nano",
			"gpt-4.1",
			"gpt-4.1-mini",
			"gpt-4o",
			"gpt-4o-mini",
			"gpt-4-turbo",
			"gpt-4",
			"gpt-3.5-turbo",
			"o1",
			"o1-mini",
		},
		EmbeddingModels: []string{
			"text-embedding-3-small",
			"text-embedding-3-large",
			"text-embedding-ada-002",
		},
	}
}

func (o *OpenAI) llmOptions(model string) []openai.Option {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(o.apiKey, "Bearer ")),
		openai.WithModel(o.chatModel),
		openai.WithEmbeddingModel(model),
	}
	if o.baseURL != "" {
		opts = append(opts, openai.WithBaseURL(o.baseURL))
	}
	return opts
}

func (o *OpenAI) StreamChat(ctx context.Context, messages []models.Message, model string, fn StreamFunc) error {
	if !o.IsConfigured() {
		return fmt.Errorf("openai: %w", ErrNotConfigured)
	}
	llm, err := openai.New(o.llmOptions(o.embedModel)...)
	if err != nil {
		return fmt.Errorf("openai: %w", err)
	}
	_, err = llm.GenerateContent(ctx, toMessageContent(messages), streamOptions(model, fn)...)
	return err
}

func (o *OpenAI) EmbedQuery(ctx context.Context, text, model string) ([]float32, error) {
	embedder, err := o.embedder(model)
	if err != nil {
		return nil, err
	}
	return embedder.EmbedQuery(ctx, text)
}

func (o *OpenAI) EmbedDocuments(ctx context.Context, texts []string, model string) ([][]float32, error) {
	embedder, err := o.embedder(model)
	if err != nil {
		return nil, err
	}
	return embedder.EmbedDocuments(ctx, texts)
}

func (o *OpenAI) embedder(model string) (*embeddings.EmbedderImpl, error) {
	if !o.IsConfigured() {
		return nil, fmt.Errorf("openai: %w", ErrNotConfigured)
	}
	if model == "" {
		model = o.embedModel
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if e, ok := o.embedders[model]; ok {
		return e, nil
	}
	llm, err := openai.New(o.llmOptions(model)...)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("openai embedder: %w", err)
	}
	o.embedders[model] = embedder
	return embedder, nil
}

func (o *OpenAI) ListModels(ctx context.Context) ([]string, error) {
	return o.Capabilities().ChatModels, nil
}

// HealthCheck lists models, which validates auth without spending tokens.
func (o *OpenAI) HealthCheck(ctx context.Context) Health {
	if !o.IsConfigured() {
		return Health{Status: HealthError, Message: "API key not configured", Code: CodeMissingAPIKey}
	}
	base := o.baseURL
	if base == "" {
		base = openAIAPIBase
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(base, "/")+"/models", nil)
	if err != nil {
		return Health{Status: HealthError, Message: err.Error(), Code: CodeAPIError}
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimPrefix(o.apiKey, "Bearer "))

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return Health{Status: HealthError, Message: err.Error(), Code: CodeConnectionError}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if strings.Contains(string(body), "insufficient_quota") {
			return Health{
				Status:  HealthError,
				Message: "Insufficient quota. Please check your billing.",
				Code:    CodeInsufficientQuota,
			}
		}
		return Health{
			Status:  HealthError,
			Message: fmt.Sprintf("OpenAI returned %d", resp.StatusCode),
			Code:    CodeAPIError,
		}
	}
	return Health{Status: HealthOK, Message: "OpenAI is healthy"}
}

func (o *OpenAI) IsConfigured() bool {
	return o.apiKey != ""
}
