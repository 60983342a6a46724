package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"

	"notebook-rag/internal/config"
	"notebook-rag/internal/models"
)

// Ollama talks to a local or remote Ollama instance.
type Ollama struct {
	baseURL    string
	chatModel  string
	embedModel string
	httpClient *http.Client

	mu        sync.Mutex
	embedders map[string]*embeddings.EmbedderImpl
}

func NewOllama(cfg config.OllamaConfig) *Ollama {
	return &Ollama{
		baseURL:    cfg.BaseURL,
		chatModel:  cfg.ChatModel,
		embedModel: cfg.EmbeddingModel,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		embedders:  map[string]*embeddings.EmbedderImpl{},
	}
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) Capabilities() Capabilities {
	return Capabilities{
		SupportsChat:       true,
		SupportsStreaming:  true,
		SupportsEmbeddings: true,
		// Some Ollama models support vision.
		SupportsVision:          true,
		SupportsFunctionCalling: false,
		MaxContextLength:        8192,
	}
}

func (o *Ollama) StreamChat(ctx context.Context, messages []models.Message, model string, fn StreamFunc) error {
	llm, err := ollama.New(
		ollama.WithServerURL(o.baseURL),
		ollama.WithModel(o.chatModel),
	)
	if err != nil {
		return fmt.Errorf("ollama: %w", err)
	}
	_, err = llm.GenerateContent(ctx, toMessageContent(messages), streamOptions(model, fn)...)
	return err
}

func (o *Ollama) EmbedQuery(ctx context.Context, text, model string) ([]float32, error) {
	embedder, err := o.embedder(model)
	if err != nil {
		return nil, err
	}
	return embedder.EmbedQuery(ctx, text)
}

func (o *Ollama) EmbedDocuments(ctx context.Context, texts []string, model string) ([][]float32, error) {
	embedder, err := o.embedder(model)
	if err != nil {
		return nil, err
	}
	return embedder.EmbedDocuments(ctx, texts)
}

func (o *Ollama) embedder(model string) (*embeddings.EmbedderImpl, error) {
	if model == "" {
		model = o.embedModel
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if e, ok := o.embedders[model]; ok {
		return e, nil
	}
	llm, err := ollama.New(
		ollama.WithServerURL(o.baseURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("ollama embedder: %w", err)
	}
	o.embedders[model] = embedder
	return embedder, nil
}

// ListModels asks the Ollama daemon for its locally available models.
func (o *Ollama) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing ollama models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing ollama models: status %d", resp.StatusCode)
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("parsing ollama models: %w", err)
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func (o *Ollama) HealthCheck(ctx context.Context) Health {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return Health{Status: HealthError, Message: err.Error(), Code: CodeConnectionError}
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return Health{
			Status:  HealthError,
			Message: fmt.Sprintf("Could not connect to Ollama: %v", err),
			Code:    CodeConnectionError,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Health{
			Status:  HealthError,
			Message: fmt.Sprintf("Ollama returned %d", resp.StatusCode),
			Code:    CodeHTTPError,
		}
	}
	return Health{Status: HealthOK, Message: "Ollama is reachable"}
}

func (o *Ollama) IsConfigured() bool {
	return o.baseURL != ""
}
