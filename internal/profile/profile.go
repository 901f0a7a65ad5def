package profile

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration used to start the main server.
type Profile struct {
	// LLM configuration (any OpenAI-compatible provider)
	LLMProvider string // openai, deepseek, openrouter, ollama
	LLMAPIKey   string
	LLMBaseURL  string // optional, has a default per provider
	LLMModel    string
	LLMTimeout  int // request timeout in seconds (default: 120)
	// LLMRequestsPerMinute caps outbound provider calls. Zero disables the cap.
	LLMRequestsPerMinute int

	// Embedding configuration
	EmbeddingModel      string
	EmbeddingAPIKey     string
	EmbeddingBaseURL    string
	EmbeddingDimensions int

	// RAG configuration
	ChunkSize        int // characters per chunk (default: 1024)
	ChunkOverlap     int // overlapping characters between chunks (default: 128)
	RetrieverK       int // passages returned per retrieval (default: 6)
	RetrieverKScoped int // k when a single menu is scoped (default: 50)

	Mode    string // demo, dev, prod
	Addr    string
	Port    int
	Driver  string // postgres, sqlite
	DSN     string
	Data    string // data directory for the sqlite driver
	Version string
}

// Provider defaults used when SABORAI_LLM_BASE_URL or SABORAI_LLM_MODEL
// are not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "openai/gpt-4o-mini",
	},
	"ollama": {
		BaseURL: "http://localhost:11434/v1",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if an LLM API key is configured.
// Ollama runs without a key, so it is always considered enabled.
func (p *Profile) IsAIEnabled() bool {
	return p.LLMAPIKey != "" || p.LLMProvider == "ollama"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvOrDefault("SABORAI_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("SABORAI_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("SABORAI_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("SABORAI_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("SABORAI_LLM_TIMEOUT_SECONDS", 120)
	p.LLMRequestsPerMinute = getEnvOrDefaultInt("SABORAI_LLM_REQUESTS_PER_MINUTE", 0)

	if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
		p.LLMProvider = "openai"
	}
	if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
		if p.LLMBaseURL == "" {
			p.LLMBaseURL = defaults.BaseURL
		}
		if p.LLMModel == "" {
			p.LLMModel = defaults.Model
		}
	}

	p.EmbeddingModel = getEnvOrDefault("SABORAI_EMBEDDING_MODEL", "text-embedding-3-small")
	p.EmbeddingAPIKey = getEnvOrDefault("SABORAI_EMBEDDING_API_KEY", p.LLMAPIKey)
	p.EmbeddingBaseURL = getEnvOrDefault("SABORAI_EMBEDDING_BASE_URL", "")
	p.EmbeddingDimensions = getEnvOrDefaultInt("SABORAI_EMBEDDING_DIMENSIONS", 1536)

	p.ChunkSize = getEnvOrDefaultInt("SABORAI_CHUNK_SIZE", 1024)
	p.ChunkOverlap = getEnvOrDefaultInt("SABORAI_CHUNK_OVERLAP", 128)
	p.RetrieverK = getEnvOrDefaultInt("SABORAI_RETRIEVER_K", 6)
	p.RetrieverKScoped = getEnvOrDefaultInt("SABORAI_RETRIEVER_K_SCOPED", 50)
}

// Validate normalizes and validates the profile.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q (want sqlite or postgres)", p.Driver)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("postgres driver requires a DSN")
	}
	if p.Driver == "sqlite" && p.DSN == "" {
		if p.Data == "" {
			p.Data = "."
		}
		p.Data = strings.TrimRight(p.Data, "\\/")
		if _, err := os.Stat(p.Data); err != nil {
			return errors.Wrapf(err, "unable to access data folder %s", p.Data)
		}
		p.DSN = fmt.Sprintf("%s/saborai_%s.db", p.Data, p.Mode)
	}

	if p.ChunkOverlap >= p.ChunkSize {
		return errors.Errorf("chunk overlap %d must be smaller than chunk size %d", p.ChunkOverlap, p.ChunkSize)
	}
	if p.RetrieverK <= 0 {
		p.RetrieverK = 6
	}
	if p.RetrieverKScoped < p.RetrieverK {
		p.RetrieverKScoped = p.RetrieverK
	}

	return nil
}
