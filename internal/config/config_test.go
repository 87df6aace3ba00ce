package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, 45*time.Second, cfg.Planner.Timeout)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.BufferInterval)
	assert.Equal(t, 3, cfg.LLM.Retry.MaxAttempts)
	assert.Equal(t, "pathwise.events", cfg.Notify.Exchange)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pathwise.yaml")
	err := os.WriteFile(path, []byte(`
database:
  path: /tmp/pw.db
llm:
  provider: openai
  openai:
    model: gpt-4o
planner:
  timeout: 10s
`), 0o644)
	require.NoError(t, err)

	t.Setenv("PATHWISE_LOG_LEVEL", "debug")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(Options{File: path})
	require.NoError(t, err)

	assert.Equal(t, "/tmp/pw.db", cfg.Database.Path)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.OpenAI.Model)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, 10*time.Second, cfg.Planner.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("PATHWISE_NOTIFY_EXCHANGE=learning.events\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("PATHWISE_NOTIFY_EXCHANGE") })
	t.Chdir(dir)

	cfg, err := Load(Options{EnvFile: envPath})
	require.NoError(t, err)
	assert.Equal(t, "learning.events", cfg.Notify.Exchange)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(Options{File: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}
