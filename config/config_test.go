package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/ragchat/ai"
	"github.com/poiesic/ragchat/ingestion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "ANTHROPIC_API_KEY", "PORT",
		"RAGCHAT_ADDR", "RAGCHAT_AGENT", "RAGCHAT_DATA_DIR", "RAGCHAT_IN_MEMORY",
		"RAGCHAT_EMBEDDING_MODEL", "RAGCHAT_EMBEDDING_DIMENSIONS", "RAGCHAT_CHAT_MODEL",
		"RAGCHAT_ANTHROPIC_MODEL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Chdir(t.TempDir())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, ProviderOpenAI, cfg.AgentProvider)
	assert.Equal(t, 300, cfg.ChunkSize)
	assert.Equal(t, 60, cfg.ChunkOverlap)
	assert.Equal(t, 5, cfg.SearchTopK)
	assert.Equal(t, ai.DefaultEmbeddingDimensions, cfg.AI.EmbeddingDimensions)
	assert.Equal(t, 10*time.Second, cfg.Realtime.ConnectTimeout)

	// No OpenAI key is fatal
	assert.ErrorIs(t, cfg.Validate(), ai.ErrConfigMissing)
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "ragchat.toml", `
[server]
addr = ":9000"
data_dir = "/var/lib/ragchat"

[openai]
api_key = "from-file"
embedding_model = "text-embedding-3-large"
embedding_dimensions = 3072

[realtime]
connect_timeout = "3s"

[ingestion]
chunk_size = 500
chunk_overlap = 50
`)
	t.Setenv("OPENAI_API_KEY", "from-env")
	t.Setenv("PORT", "7000")

	cfg, err := Load(path, WithAddr(":6000"))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.AI.APIKey)
	assert.Equal(t, "from-env", cfg.Realtime.APIKey)
	assert.Equal(t, "text-embedding-3-large", cfg.AI.EmbeddingModel)
	assert.Equal(t, 3072, cfg.AI.EmbeddingDimensions)
	assert.Equal(t, "/var/lib/ragchat", cfg.DataDir)
	assert.Equal(t, ":6000", cfg.Addr)
	assert.Equal(t, 3*time.Second, cfg.Realtime.ConnectTimeout)
	assert.Equal(t, 500, cfg.ChunkSize)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesFileAddr(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "c.toml", "[server]\naddr = \":9000\"\n")
	t.Setenv("PORT", "7000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile(".env", []byte("OPENAI_API_KEY=dotenv-key\nRAGCHAT_IN_MEMORY=true\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("OPENAI_API_KEY")
		os.Unsetenv("RAGCHAT_IN_MEMORY")
	})

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dotenv-key", cfg.AI.APIKey)
	assert.True(t, cfg.InMemory)
}

func TestLoad_BadFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeFile(t, "bad.toml", "[server\naddr="))
	assert.ErrorIs(t, err, ErrConfigInvalid)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "d.toml", "[realtime]\nconnect_timeout = \"soon\"\n"))
	assert.ErrorIs(t, err, ErrConfigInvalid)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.AI.APIKey = "k"
		return cfg
	}
	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.AgentProvider = ProviderAnthropic
	assert.ErrorIs(t, cfg.Validate(), ErrConfigMissing)
	cfg.AnthropicAPIKey = "a"
	assert.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.AgentProvider = "llama"
	assert.ErrorIs(t, cfg.Validate(), ErrConfigInvalid)

	cfg = valid()
	WithChunking(100, 100)(cfg)
	assert.ErrorIs(t, cfg.Validate(), ErrConfigInvalid)

	cfg = valid()
	cfg.SearchTopK = 0
	assert.ErrorIs(t, cfg.Validate(), ErrConfigInvalid)

	cfg = valid()
	cfg.DataDir = ""
	assert.ErrorIs(t, cfg.Validate(), ErrConfigMissing)
	cfg.InMemory = true
	assert.NoError(t, cfg.Validate())
}

func TestWithAI(t *testing.T) {
	cfg := Default()
	WithAI(ai.WithAPIKey("x"), ai.WithChatModel("gpt-4.1"))(cfg)
	assert.Equal(t, "x", cfg.AI.APIKey)
	assert.Equal(t, "gpt-4.1", cfg.AI.ChatModel)
}

func TestLoad_ExplicitZerosInFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "z.toml", `
[openai]
requests_per_second = 0

[ingestion]
chunk_size = 100
chunk_overlap = 0
`)
	cfg, err := Load(path, WithAI(ai.WithAPIKey("k")))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.ChunkSize)
	assert.Equal(t, 0, cfg.ChunkOverlap)
	assert.Zero(t, cfg.AI.RequestsPerSecond)
	require.NoError(t, cfg.Validate())

	// An absent key keeps the default
	path = writeFile(t, "d2.toml", "[ingestion]\nchunk_size = 500\n")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, ingestion.DefaultChunkOverlap, cfg.ChunkOverlap)
}
