package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/commitscope/internal/storage"
)

var envVars = []string{
	"GITHUB_TOKEN", "DEFAULT_BRANCH", "COMMITS_PER_PAGE", "MAX_PATCH_BYTES",
	"STORE_BACKEND", "MONGO_URI", "MONGO_DATABASE", "DB_URL",
	"QDRANT_HOST", "QDRANT_PORT", "QDRANT_COLLECTION",
	"OPENAI_API_KEY", "EMBEDDING_MODEL", "EMBEDDING_DIMENSION", "EMBEDDING_CACHE",
	"SUMMARY_PROVIDER", "GEMINI_API_KEY", "GEMINI_MODEL", "OPENAI_SUMMARY_MODEL",
	"README_DIGEST_CHARS", "HOST", "PORT", "SERVER_MODE", "LOG_LEVEL", "LOG_FORMAT",
}

// clearEnvVars unsets every variable Config reads; t.Setenv restores them.
func clearEnvVars(t *testing.T) {
	t.Helper()
	for _, name := range envVars {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

func noDotEnv(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg, err := Load(noDotEnv(t))
	require.NoError(t, err)

	assert.Equal(t, DefaultBranch, cfg.DefaultBranch)
	assert.Equal(t, DefaultCommitsPerPage, cfg.CommitsPerPage)
	assert.Equal(t, DefaultMaxPatchBytes, cfg.MaxPatchBytes)
	assert.Equal(t, storage.BackendMongo, cfg.StoreBackend)
	assert.Equal(t, "commit_db", cfg.MongoDatabase)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, storage.VectorDimension, cfg.EmbeddingDimension)
	assert.True(t, cfg.EmbeddingCache)
	assert.Equal(t, ProviderGemini, cfg.SummaryProvider)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.True(t, cfg.ServerMode)
	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("COMMITS_PER_PAGE", "10")
	t.Setenv("MAX_PATCH_BYTES", "1000")
	t.Setenv("EMBEDDING_CACHE", "false")
	t.Setenv("STORE_BACKEND", "sql")

	cfg, err := Load(noDotEnv(t))
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.CommitsPerPage)
	assert.Equal(t, 1000, cfg.MaxPatchBytes)
	assert.False(t, cfg.EmbeddingCache)
	assert.Equal(t, storage.BackendSQL, cfg.StorageConfig().Backend)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	clearEnvVars(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DEFAULT_BRANCH=develop\nGITHUB_TOKEN=from-file\n"), 0o600))
	t.Setenv("GITHUB_TOKEN", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "develop", cfg.DefaultBranch)
	assert.Equal(t, "from-env", cfg.GitHubToken)
}

func TestLoad_InvalidInt(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("PORT", "not-a-number")

	_, err := Load(noDotEnv(t))
	assert.Error(t, err)
}

func validConfig() Config {
	return Config{
		GitHubToken:     "ghp",
		OpenAIAPIKey:    "sk",
		GeminiAPIKey:    "g",
		SummaryProvider: ProviderGemini,
		StoreBackend:    storage.BackendMongo,
		DefaultBranch:   "main",
		CommitsPerPage:  50,
		MaxPatchBytes:   50000,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing github token", mutate: func(c *Config) { c.GitHubToken = "" }, wantErr: "GITHUB_TOKEN"},
		{name: "missing openai key", mutate: func(c *Config) { c.OpenAIAPIKey = "" }, wantErr: "OPENAI_API_KEY"},
		{name: "missing gemini key", mutate: func(c *Config) { c.GeminiAPIKey = "" }, wantErr: "GEMINI_API_KEY"},
		{name: "openai provider needs no gemini key", mutate: func(c *Config) {
			c.SummaryProvider = ProviderOpenAI
			c.GeminiAPIKey = ""
		}},
		{name: "unknown provider", mutate: func(c *Config) { c.SummaryProvider = "claude" }, wantErr: "SUMMARY_PROVIDER"},
		{name: "unknown backend", mutate: func(c *Config) { c.StoreBackend = "redis" }, wantErr: "unsupported store backend"},
		{name: "page too large", mutate: func(c *Config) { c.CommitsPerPage = 101 }, wantErr: "COMMITS_PER_PAGE"},
		{name: "zero patch size", mutate: func(c *Config) { c.MaxPatchBytes = 0 }, wantErr: "MAX_PATCH_BYTES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{LogLevel: "warn", LogFormat: "json"}

	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", slog.String("k", "v"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":"v"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}
