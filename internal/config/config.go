package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Providers ProvidersConfig `yaml:"providers"`
	Chat      SelectionConfig `yaml:"chat"`
	Embedding SelectionConfig `yaml:"embedding"`
	RAG       RAGConfig       `yaml:"rag"`
	VectorDB  VectorDBConfig  `yaml:"vector_db"`
	Database  DatabaseConfig  `yaml:"database"`
}

// SelectionConfig names the active provider for one capability, with an
// optional model override.
type SelectionConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

type ProvidersConfig struct {
	Ollama    OllamaConfig    `yaml:"ollama"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Gemini    GeminiConfig    `yaml:"gemini"`
}

type OllamaConfig struct {
	BaseURL        string `yaml:"base_url"`
	ChatModel      string `yaml:"chat_model"`
	EmbeddingModel string `yaml:"embedding_model"`
}

type OpenAIConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	ChatModel      string `yaml:"chat_model"`
	EmbeddingModel string `yaml:"embedding_model"`
}

type AnthropicConfig struct {
	APIKey    string `yaml:"api_key"`
	ChatModel string `yaml:"chat_model"`
}

type GeminiConfig struct {
	APIKey         string `yaml:"api_key"`
	ChatModel      string `yaml:"chat_model"`
	EmbeddingModel string `yaml:"embedding_model"`
}

type RAGConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	NResults     int `yaml:"n_results"`
	// RecursiveSplitter selects the separator-aware splitter instead of
	// plain character windows.
	RecursiveSplitter bool   `yaml:"recursive_splitter"`
	MaxFullContext    int    `yaml:"max_full_context"`
	EncryptionKey     string `yaml:"encryption_key"`
}

type VectorDBConfig struct {
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
	InMemory   bool   `yaml:"in_memory"`
}

type DatabaseConfig struct {
	URL   string `yaml:"url"`
	Key   string `yaml:"key"`
	Debug bool   `yaml:"debug"`
}

const (
	DefaultChunkSize      = 500
	DefaultChunkOverlap   = 50
	DefaultNResults       = 5
	DefaultMaxFullContext = 50000

	defaultOllamaHost     = "http://localhost:11434"
	defaultOllamaChat     = "llama3"
	defaultOllamaEmbed    = "nomic-embed-text"
	defaultCollectionName = "notebook_docs"
	defaultVectorDBPath   = "./chromemdb"
)

func LoadConfig(path string) (*Config, error) {
	// .env is optional; environment wins over file values for secrets.
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		c.Providers.Ollama.BaseURL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Providers.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.Providers.OpenAI.BaseURL = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.Providers.Anthropic.APIKey = v
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		c.Providers.Gemini.APIKey = v
	}
}

func (c *Config) applyDefaults() {
	if c.Providers.Ollama.BaseURL == "" {
		c.Providers.Ollama.BaseURL = defaultOllamaHost
	}
	if c.Providers.Ollama.ChatModel == "" {
		c.Providers.Ollama.ChatModel = defaultOllamaChat
	}
	if c.Providers.Ollama.EmbeddingModel == "" {
		c.Providers.Ollama.EmbeddingModel = defaultOllamaEmbed
	}
	if c.Chat.Provider == "" {
		c.Chat.Provider = "ollama"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "ollama"
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = DefaultChunkSize
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = DefaultChunkOverlap
	}
	if c.RAG.NResults == 0 {
		c.RAG.NResults = DefaultNResults
	}
	if c.RAG.MaxFullContext == 0 {
		c.RAG.MaxFullContext = DefaultMaxFullContext
	}
	if c.VectorDB.Path == "" {
		c.VectorDB.Path = defaultVectorDBPath
	}
	if c.VectorDB.Collection == "" {
		c.VectorDB.Collection = defaultCollectionName
	}
}
