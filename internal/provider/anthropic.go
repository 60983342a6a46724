package provider

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"

	"notebook-rag/internal/config"
	"notebook-rag/internal/models"
)

const defaultAnthropicChatModel = "claude-sonnet-4-5-20250929"

// Anthropic adapts the Claude chat API. Anthropic does not offer an
// embedding endpoint, so embedding calls fail with a capability error.
type Anthropic struct {
	apiKey    string
	chatModel string
}

func NewAnthropic(cfg config.AnthropicConfig) *Anthropic {
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = defaultAnthropicChatModel
	}
	return &Anthropic{apiKey: cfg.APIKey, chatModel: chatModel}
}

func (a *Anthropic) Name() string { return "anthropic" }

func (a *Anthropic) Capabilities() Capabilities {
	return Capabilities{
		SupportsChat:            true,
		SupportsStreaming:       true,
		SupportsEmbeddings:      false,
		SupportsVision:          true,
		SupportsFunctionCalling: true,
		MaxContextLength:        200000,
		ChatModels: []string{
			"claude-sonnet-4-5-20250929",
			"claude-haiku-4-5-20251001",
			"claude-3-5-sonnet-latest",
			"claude-3-5-haiku-latest",
			"claude-3-opus-latest",
		},
	}
}

func (a *Anthropic) StreamChat(ctx context.Context, messages []models.Message, model string, fn StreamFunc) error {
	if !a.IsConfigured() {
		return fmt.Errorf("anthropic: %w", ErrNotConfigured)
	}
	llm, err := anthropic.New(
		anthropic.WithToken(a.apiKey),
		anthropic.WithModel(a.chatModel),
	)
	if err != nil {
		return fmt.Errorf("anthropic: %w", err)
	}
	_, err = llm.GenerateContent(ctx, toMessageContent(messages), streamOptions(model, fn)...)
	return err
}

func (a *Anthropic) EmbedQuery(ctx context.Context, text, model string) ([]float32, error) {
	return nil, fmt.Errorf("anthropic: %w", ErrNoEmbeddingSupport)
}

func (a *Anthropic) EmbedDocuments(ctx context.Context, texts []string, model string) ([][]float32, error) {
	return nil, fmt.Errorf("anthropic: %w", ErrNoEmbeddingSupport)
}

func (a *Anthropic) ListModels(ctx context.Context) ([]string, error) {
	return a.Capabilities().ChatModels, nil
}

// HealthCheck makes a minimal one-token completion; Anthropic has no
// cheap list-models endpoint.
func (a *Anthropic) HealthCheck(ctx context.Context) Health {
	if !a.IsConfigured() {
		return Health{Status: HealthError, Message: "API key not configured", Code: CodeMissingAPIKey}
	}
	llm, err := anthropic.New(
		anthropic.WithToken(a.apiKey),
		anthropic.WithModel(a.chatModel),
	)
	if err != nil {
		return Health{Status: HealthError, Message: err.Error(), Code: CodeAPIError}
	}
	msgs := []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, "Hi")}
	if _, err := llm.GenerateContent(ctx, msgs, llms.WithMaxTokens(1)); err != nil {
		return Health{Status: HealthError, Message: err.Error(), Code: CodeAPIError}
	}
	return Health{Status: HealthOK, Message: "Anthropic is healthy"}
}

func (a *Anthropic) IsConfigured() bool {
	return a.apiKey != ""
}
