// Package config loads the process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/bull/commitscope/internal/storage"
)

// Summary providers accepted by SUMMARY_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Defaults mirrored by the struct tags below.
const (
	DefaultBranch         = "main"
	DefaultCommitsPerPage = 50
	DefaultMaxPatchBytes  = 50000
	DefaultPort           = 8000
)

// Config holds all environment-based configuration.
// It is built once in main and passed down read-only.
type Config struct {
	// GitHubToken authenticates GitHub requests. GraphQL requires it.
	// Env: GITHUB_TOKEN
	GitHubToken string `envconfig:"GITHUB_TOKEN"`

	// DefaultBranch is used when discovery reports no default branch.
	// Env: DEFAULT_BRANCH (default: main)
	DefaultBranch string `envconfig:"DEFAULT_BRANCH" default:"main"`

	// CommitsPerPage bounds the commits listed per repository.
	// Env: COMMITS_PER_PAGE (default: 50)
	CommitsPerPage int `envconfig:"COMMITS_PER_PAGE" default:"50"`

	// MaxPatchBytes skips commits whose patch is larger.
	// Env: MAX_PATCH_BYTES (default: 50000)
	MaxPatchBytes int `envconfig:"MAX_PATCH_BYTES" default:"50000"`

	// StoreBackend is one of mongo, sql, qdrant.
	// Env: STORE_BACKEND (default: mongo)
	StoreBackend string `envconfig:"STORE_BACKEND" default:"mongo"`

	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"commit_db"`

	// DBURL is used by the sql backend.
	// Env: DB_URL (default: sqlite:///commitscope.db)
	DBURL string `envconfig:"DB_URL" default:"sqlite:///commitscope.db"`

	QdrantHost       string `envconfig:"QDRANT_HOST" default:"localhost"`
	QdrantPort       int    `envconfig:"QDRANT_PORT" default:"6334"`
	QdrantCollection string `envconfig:"QDRANT_COLLECTION" default:"commitscope"`

	// OpenAIAPIKey is required for embeddings and for the openai summary provider.
	// Env: OPENAI_API_KEY
	OpenAIAPIKey       string `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel     string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimension int    `envconfig:"EMBEDDING_DIMENSION" default:"1536"`

	// EmbeddingCache routes embeddings through the store's embedding cache.
	// Env: EMBEDDING_CACHE (default: true)
	EmbeddingCache bool `envconfig:"EMBEDDING_CACHE" default:"true"`

	// SummaryProvider is gemini or openai.
	// Env: SUMMARY_PROVIDER (default: gemini)
	SummaryProvider    string `envconfig:"SUMMARY_PROVIDER" default:"gemini"`
	GeminiAPIKey       string `envconfig:"GEMINI_API_KEY"`
	GeminiModel        string `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash-8b"`
	OpenAISummaryModel string `envconfig:"OPENAI_SUMMARY_MODEL" default:"gpt-4o"`

	// ReadmeDigestChars caps the README text sent for summarization.
	// Env: README_DIGEST_CHARS (default: 20000)
	ReadmeDigestChars int `envconfig:"README_DIGEST_CHARS" default:"20000"`

	Host string `envconfig:"HOST" default:"0.0.0.0"`
	Port int    `envconfig:"PORT" default:"8000"`

	// ServerMode serves HTTP when true, MCP over stdio otherwise.
	// Env: SERVER_MODE (default: true)
	ServerMode bool `envconfig:"SERVER_MODE" default:"true"`

	// Env: LOG_LEVEL (default: info), LOG_FORMAT (default: text)
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// Load reads an optional .env file and then the environment.
// A missing .env file is not an error; existing variables are not overridden.
func Load(dotenvPath string) (Config, error) {
	if dotenvPath == "" {
		dotenvPath = ".env"
	}
	if _, err := os.Stat(dotenvPath); err == nil {
		if err := godotenv.Load(dotenvPath); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings every entry point needs.
func (c Config) Validate() error {
	var errs []error

	if c.GitHubToken == "" {
		errs = append(errs, errors.New("GITHUB_TOKEN is required"))
	}
	if c.OpenAIAPIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}
	switch c.SummaryProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required when SUMMARY_PROVIDER=gemini"))
		}
	case ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("SUMMARY_PROVIDER must be %q or %q, got %q", ProviderGemini, ProviderOpenAI, c.SummaryProvider))
	}
	switch c.StoreBackend {
	case storage.BackendMongo, storage.BackendSQL, storage.BackendQdrant:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", storage.ErrUnsupportedBackend, c.StoreBackend))
	}
	if c.CommitsPerPage <= 0 || c.CommitsPerPage > 100 {
		errs = append(errs, fmt.Errorf("COMMITS_PER_PAGE must be between 1 and 100, got %d", c.CommitsPerPage))
	}
	if c.MaxPatchBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_PATCH_BYTES must be positive, got %d", c.MaxPatchBytes))
	}
	if c.DefaultBranch == "" {
		errs = append(errs, errors.New("DEFAULT_BRANCH must not be empty"))
	}

	return errors.Join(errs...)
}

// StorageConfig selects the store backend.
func (c Config) StorageConfig() storage.Config {
	return storage.Config{
		Backend:          c.StoreBackend,
		MongoURI:         c.MongoURI,
		MongoDatabase:    c.MongoDatabase,
		DBURL:            c.DBURL,
		QdrantHost:       c.QdrantHost,
		QdrantPort:       c.QdrantPort,
		QdrantCollection: c.QdrantCollection,
		VectorDimension:  c.EmbeddingDimension,
	}
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Logger builds the process logger. Output goes to w, which must be stderr
// in stdio MCP mode so stdout stays reserved for the protocol.
func (c Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.LogLevel)}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
