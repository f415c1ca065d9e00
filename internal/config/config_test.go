package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearLLMEnv(t *testing.T) {
	for _, k := range []string{"REASON3_PROVIDER", "GROQ_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "REASON3_MODEL", "PORT"} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearLLMEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "groq", cfg.LLM.Provider)
	assert.Equal(t, "none", cfg.Audit.Driver)
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.True(t, cfg.DemoMode())
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	clearLLMEnv(t)
	path := writeConfig(t, `
server:
  port: 9000
llm:
  provider: openai
  apiKey: from-file
  model: gpt-4o-mini
audit:
  driver: sqlite
database:
  path: /tmp/x.db
`)

	t.Run("file values", func(t *testing.T) {
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, "from-file", cfg.LLM.APIKey)
		assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
		assert.Equal(t, "/tmp/x.db", cfg.SQLitePath())
		assert.False(t, cfg.DemoMode())
	})

	t.Run("provider key from env wins", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "from-env")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.LLM.APIKey)
	})

	t.Run("other provider key is ignored", func(t *testing.T) {
		t.Setenv("GROQ_API_KEY", "groq-key")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "from-file", cfg.LLM.APIKey)
	})

	t.Run("REASON3_PROVIDER switches key lookup", func(t *testing.T) {
		t.Setenv("REASON3_PROVIDER", "GEMINI")
		t.Setenv("GEMINI_API_KEY", "gem-key")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "gemini", cfg.LLM.Provider)
		assert.Equal(t, "gem-key", cfg.LLM.APIKey)
	})
}

func TestLoadRejectsUnknownValues(t *testing.T) {
	clearLLMEnv(t)

	_, err := Load(writeConfig(t, "llm:\n  provider: llama-local\n"))
	assert.ErrorContains(t, err, "llm.provider")

	_, err = Load(writeConfig(t, "audit:\n  driver: mongo\n"))
	assert.ErrorContains(t, err, "audit.driver")

	_, err = Load(writeConfig(t, "ratelimit:\n  backend: redis\n"))
	assert.ErrorContains(t, err, "redis.addr")

	_, err = Load(writeConfig(t, "llm:\n  temperature: 3\n"))
	assert.ErrorContains(t, err, "llm.temperature")
}

func TestTemperatureZeroIsKept(t *testing.T) {
	clearLLMEnv(t)

	cfg, err := Load(writeConfig(t, "llm:\n  temperature: 0\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.LLM.Temperature)
	assert.Zero(t, *cfg.LLM.Temperature)

	cfg, err = Load(writeConfig(t, "llm:\n  model: m\n"))
	require.NoError(t, err)
	assert.Nil(t, cfg.LLM.Temperature, "unset temperature leaves the adapter default")
}

func TestDSNs(t *testing.T) {
	cfg := Default()
	cfg.Database.Host = "db"
	cfg.Database.Port = 3306
	cfg.Database.User = "u"
	cfg.Database.Password = "p"
	cfg.Database.Name = "reason3"

	assert.Equal(t, "u:p@tcp(db:3306)/reason3?parseTime=true&charset=utf8mb4&loc=UTC", cfg.MySQLDSN())
	assert.Equal(t, "host=db port=3306 user=u password=p dbname=reason3 sslmode=disable", cfg.PostgresDSN())
}
