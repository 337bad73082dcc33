package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultProvider, cfg.LLM.Provider)
	assert.Equal(t, DefaultModel, cfg.LLM.Model)
	assert.Equal(t, DefaultStore, cfg.Store.Driver)
	assert.Equal(t, DefaultUser, cfg.User)
	assert.Equal(t, DefaultTimeoutSec, cfg.LLM.TimeoutSec)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte(`
llm:
  provider: OpenAI
  model: deepseek-chat
  base_url: https://api.deepseek.com
store:
  driver: memory
user: tanaka
`)
	require.NoError(t, os.WriteFile(path, body, 0o600))
	t.Setenv("NEWSLETTER_LLM_MODEL", "gpt-4o-mini")
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("NEWSLETTER_SERVER_ADDR", "127.0.0.1:9999")
	t.Setenv("NEWSLETTER_ALLOW_ORIGINS", " https://sidebar.example , ,http://localhost:3000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "https://api.deepseek.com", cfg.LLM.BaseURL)
	assert.Equal(t, "from-env", cfg.LLM.APIKey)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "tanaka", cfg.User)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	assert.Equal(t, []string{"https://sidebar.example", "http://localhost:3000"}, cfg.Server.AllowOrigins)
	assert.Equal(t, DefaultTimeoutSec, cfg.Server.RequestTimeoutSec)
}

func TestValidateRejectsUnknown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Provider = "palm"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Store.Driver = "redis"
	require.Error(t, cfg.Validate())
	cfg.Store.RedisAddr = "localhost:6379"
	require.NoError(t, cfg.Validate())
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unclosed"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}
