package provider

import (
	"context"
	"errors"

	"github.com/tmc/langchaingo/llms"

	"notebook-rag/internal/models"
)

var (
	// ErrUnknownProvider is returned for a provider name outside the
	// fixed set of supported backends.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrNoEmbeddingSupport is returned when embeddings are requested
	// from a chat-only backend.
	ErrNoEmbeddingSupport = errors.New("provider does not support embeddings")
	// ErrNotConfigured is returned when a provider is missing its
	// credentials or endpoint.
	ErrNotConfigured = errors.New("provider is not configured")
)

// StreamFunc receives one response fragment at a time. Returning an
// error stops the underlying backend call.
type StreamFunc func(ctx context.Context, chunk []byte) error

// Capabilities is the static description of what a backend can do.
type Capabilities struct {
	SupportsChat            bool     `json:"chat"`
	SupportsStreaming       bool     `json:"streaming"`
	SupportsEmbeddings      bool     `json:"embeddings"`
	SupportsVision          bool     `json:"vision"`
	SupportsFunctionCalling bool     `json:"function_calling"`
	MaxContextLength        int      `json:"max_context_length"`
	ChatModels              []string `json:"available_chat_models"`
	EmbeddingModels         []string `json:"available_embedding_models"`
}

// Health statuses.
const (
	HealthOK    = "ok"
	HealthError = "error"
)

// Health check failure codes.
const (
	CodeMissingAPIKey     = "missing_api_key"
	CodeConnectionError   = "connection_error"
	CodeHTTPError         = "http_error"
	CodeAPIError          = "api_error"
	CodeInsufficientQuota = "insufficient_quota"
)

// Health is the structured result of a provider health probe. Probes
// never fail with an error value; failures are reported in Status.
type Health struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Provider is the uniform contract over heterogeneous chat/embedding
// backends. An empty model argument selects the provider's configured
// default.
type Provider interface {
	Name() string
	Capabilities() Capabilities

	// StreamChat yields response fragments through fn as the backend
	// emits them. Cancelling ctx stops the underlying request.
	StreamChat(ctx context.Context, messages []models.Message, model string, fn StreamFunc) error

	// EmbedQuery and EmbedDocuments fail with ErrNoEmbeddingSupport on
	// chat-only backends.
	EmbedQuery(ctx context.Context, text, model string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string, model string) ([][]float32, error)

	ListModels(ctx context.Context) ([]string, error)
	HealthCheck(ctx context.Context) Health
	IsConfigured() bool
}

// toMessageContent converts conversation messages to the langchaingo
// shape shared by every adapter.
func toMessageContent(messages []models.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		var role llms.ChatMessageType
		switch m.Role {
		case models.RoleSystem:
			role = llms.ChatMessageTypeSystem
		case models.RoleAssistant:
			role = llms.ChatMessageTypeAI
		default:
			role = llms.ChatMessageTypeHuman
		}
		out = append(out, llms.TextParts(role, m.Content))
	}
	return out
}

// streamOptions builds the call options for a streaming chat request.
func streamOptions(model string, fn StreamFunc) []llms.CallOption {
	opts := []llms.CallOption{
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			return fn(ctx, chunk)
		}),
	}
	if model != "" {
		opts = append(opts, llms.WithModel(model))
	}
	return opts
}
