package provider

import (
	"fmt"
	"sync"

	"notebook-rag/internal/config"
)

// Kind enumerates the supported backends. Dispatch is a fixed switch,
// not reflection or dynamic lookup.
type Kind string

const (
	KindOllama    Kind = "ollama"
	KindOpenAI    Kind = "openai"
	KindAnthropic Kind = "anthropic"
	KindGemini    Kind = "gemini"
)

// Kinds returns the supported provider kinds in stable order.
func Kinds() []Kind {
	return []Kind{KindOllama, KindOpenAI, KindAnthropic, KindGemini}
}

func parseKind(name string) (Kind, error) {
	switch Kind(name) {
	case KindOllama, KindOpenAI, KindAnthropic, KindGemini:
		return Kind(name), nil
	default:
		return "", fmt.Errorf("%w: %q (available: %v)", ErrUnknownProvider, name, Kinds())
	}
}

// Registry holds one lazily created instance per provider kind and the
// active chat/embedding selections. The mutex guards both; a request
// that resolved its provider before a concurrent reconfiguration keeps
// using that provider for its lifetime.
type Registry struct {
	cfg *config.Config

	mu        sync.Mutex
	instances map[Kind]Provider

	chatKind   Kind
	chatModel  string
	embedKind  Kind
	embedModel string
}

// Status describes one provider for listing purposes.
type Status struct {
	Name         string       `json:"name"`
	Configured   bool         `json:"configured"`
	Capabilities Capabilities `json:"capabilities"`
}

// NewRegistry creates a registry with defaults taken from the config.
// The configured selections are applied verbatim; validating the
// embedding selection (and any fallback policy) is the caller's job via
// SetEmbeddingProvider.
func NewRegistry(cfg *config.Config) *Registry {
	r := &Registry{
		cfg:        cfg,
		instances:  map[Kind]Provider{},
		chatKind:   KindOllama,
		embedKind:  KindOllama,
		chatModel:  cfg.Chat.Model,
		embedModel: cfg.Embedding.Model,
	}
	if k, err := parseKind(cfg.Chat.Provider); err == nil {
		r.chatKind = k
	}
	if k, err := parseKind(cfg.Embedding.Provider); err == nil {
		r.embedKind = k
	}
	return r
}

func (r *Registry) newProvider(kind Kind) Provider {
	switch kind {
	case KindOpenAI:
		return NewOpenAI(r.cfg.Providers.OpenAI)
	case KindAnthropic:
		return NewAnthropic(r.cfg.Providers.Anthropic)
	case KindGemini:
		return NewGemini(r.cfg.Providers.Gemini)
	default:
		return NewOllama(r.cfg.Providers.Ollama)
	}
}

// Get returns the instance for a provider name, creating it on first use.
func (r *Registry) Get(name string) (Provider, error) {
	kind, err := parseKind(name)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.instance(kind), nil
}

// instance must be called with the write lock held.
func (r *Registry) instance(kind Kind) Provider {
	if p, ok := r.instances[kind]; ok {
		return p
	}
	p := r.newProvider(kind)
	r.instances[kind] = p
	return p
}

// SetChatProvider switches the active chat provider, with an optional
// model override (empty keeps the provider default).
func (r *Registry) SetChatProvider(name, model string) error {
	kind, err := parseKind(name)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chatKind = kind
	r.chatModel = model
	return nil
}

// SetEmbeddingProvider switches the active embedding provider. The
// target must support embeddings; the registry never substitutes a
// different provider on failure.
func (r *Registry) SetEmbeddingProvider(name, model string) error {
	kind, err := parseKind(name)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.instance(kind)
	if !p.Capabilities().SupportsEmbeddings {
		return fmt.Errorf("%s: %w", name, ErrNoEmbeddingSupport)
	}
	r.embedKind = kind
	r.embedModel = model
	return nil
}

// ChatProvider returns the active chat provider and model override.
func (r *Registry) ChatProvider() (Provider, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.instance(r.chatKind), r.chatModel, nil
}

// EmbeddingProvider returns the active embedding provider and model
// override.
func (r *Registry) EmbeddingProvider() (Provider, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.instance(r.embedKind), r.embedModel, nil
}

// List reports every supported provider with its configuration state
// and capabilities.
func (r *Registry) List() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Status, 0, len(Kinds()))
	for _, kind := range Kinds() {
		p := r.instance(kind)
		out = append(out, Status{
			Name:         p.Name(),
			Configured:   p.IsConfigured(),
			Capabilities: p.Capabilities(),
		})
	}
	return out
}
