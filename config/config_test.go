package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "dss.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadFromFile_OverridesDefaults(t *testing.T) {
	p := writeYAML(t, `
llm:
  backend: gemini
  model: gemini-2.0-flash
  timeout: 90s
pipeline:
  n_procs: 0
  alpha: 0
  launcher_args: ["--oversubscribe"]
dataset:
  seed: 7
  start: "2024-06-01"
log:
  pretty: false
`)
	cfg, err := LoadFromFile(p)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Backend)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.Equal(t, 90*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 512, cfg.LLM.MaxNewTokens)

	// Explicit zeros are honored for pointer-backed fields.
	assert.Equal(t, 0, cfg.Pipeline.NProcs)
	assert.Equal(t, 0.0, cfg.Pipeline.Alpha)
	assert.Equal(t, []string{"--oversubscribe"}, cfg.Pipeline.LauncherArgs)

	assert.Equal(t, int64(7), cfg.Dataset.Seed)
	assert.Equal(t, 90, cfg.Dataset.Days)
	assert.Equal(t, "2024-06-01", cfg.Dataset.Start.Format("2006-01-02"))
	assert.False(t, cfg.LogPretty)
}

func TestLoadFromFile_BadDuration(t *testing.T) {
	p := writeYAML(t, "llm:\n  timeout: soon\n")
	_, err := LoadFromFile(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.timeout")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	p := writeYAML(t, "llm:\n  url: http://file:11434\nserver:\n  port: 9000\n")
	t.Setenv("DSS_LLM_URL", "http://env:11434")
	t.Setenv("DSS_PORT", "9100")
	t.Setenv("GEMINI_API_KEY", "k-env")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "http://env:11434", cfg.LLM.URL)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "k-env", cfg.LLM.APIKey)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.LLM.Backend = "openai"
	cfg.Pipeline.Generator = "magic"
	cfg.Dataset.Days = 1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.backend")
	assert.Contains(t, err.Error(), "pipeline.generator")
	assert.Contains(t, err.Error(), "dataset.days")
}
