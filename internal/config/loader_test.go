package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("SHORTSCRIPT_TEST_HOST", "db.internal")

	assert.Equal(t, "host: db.internal", expandEnv("host: ${SHORTSCRIPT_TEST_HOST:localhost}"))
	assert.Equal(t, "port: 5432", expandEnv("port: ${SHORTSCRIPT_TEST_UNSET:5432}"))
	assert.Equal(t, "key: ", expandEnv("key: ${SHORTSCRIPT_TEST_UNSET:}"))
	assert.Equal(t, "raw: ${SHORTSCRIPT_TEST_UNSET}", expandEnv("raw: ${SHORTSCRIPT_TEST_UNSET}"))
}

func TestLoadFrom_DefaultsAndEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
app:
  name: shortscript-api
llm:
  default_provider: gemini
  providers:
    gemini:
      type: gemini
      model: ${SHORTSCRIPT_TEST_MODEL:gemini-2.5-flash}
generation:
  max_retries: 2
`)
	writeFile(t, dir, "config.staging.yaml", `
generation:
  max_variations: 3
`)
	t.Setenv("APP_ENV", "staging")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Providers["gemini"].Model)
	assert.Equal(t, 2, cfg.Generation.MaxRetries)
	assert.Equal(t, 3, cfg.Generation.MaxVariations)
	assert.Equal(t, 15*time.Minute, cfg.ContextCache.TTL)
	assert.Equal(t, "memory", cfg.ContextCache.Backend)
	assert.InDelta(t, 0.2, cfg.Generation.WordCountTolerance, 1e-9)
	assert.Equal(t, 500*time.Millisecond, cfg.Generation.Backoff.Initial)
}

func TestLoadFrom_MissingBaseFile(t *testing.T) {
	_, err := LoadFrom(t.TempDir())
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			ContextCache: ContextCacheConfig{Backend: "memory"},
			Generation:   GenerationConfig{MaxRetries: 3, MaxVariations: 5, WordCountTolerance: 0.2},
		}
	}

	cfg := base()
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.ContextCache.Backend = "memcached"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.LLM.DefaultProvider = "openai"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Security.AuthEnabled = true
	assert.Error(t, cfg.Validate())
}
