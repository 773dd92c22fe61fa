package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("LLM_CODE_CONFIG_DIR", dir)
	t.Setenv("OPENAI_API_KEY", "")
	for _, name := range []string{"MODEL", "TEMPERATURE", "MAX_TOKENS", "BASE_URL", "TIMEOUT"} {
		t.Setenv("LLM_CODE_"+name, "")
		os.Unsetenv("LLM_CODE_" + name)
	}
	os.Unsetenv("OPENAI_API_KEY")
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	settings, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, settings.Model)
	assert.Equal(t, DefaultTemperature, settings.Temperature)
	assert.Equal(t, DefaultMaxTokens, settings.MaxTokens)
	assert.Equal(t, DefaultBaseURL, settings.BaseURL)
	assert.Equal(t, DefaultTimeout, settings.Timeout)
	assert.Equal(t, dir, settings.ConfigDir)
	assert.Equal(t, filepath.Join(dir, "prompts"), settings.PromptsDir())
	assert.Equal(t, filepath.Join(dir, "cache.duckdb"), settings.CachePath())
	assert.Empty(t, settings.OpenAIAPIKey)
	assert.ErrorIs(t, settings.Validate(), ErrMissingAPIKey)
}

func TestLoadEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("LLM_CODE_MODEL", "gpt-4")
	t.Setenv("LLM_CODE_TEMPERATURE", "0.2")
	t.Setenv("LLM_CODE_MAX_TOKENS", "42")
	t.Setenv("LLM_CODE_TIMEOUT", "5s")

	settings, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-env", settings.OpenAIAPIKey)
	assert.Equal(t, "gpt-4", settings.Model)
	assert.Equal(t, 0.2, settings.Temperature)
	assert.Equal(t, 42, settings.MaxTokens)
	assert.Equal(t, 5*time.Second, settings.Timeout)
	assert.NoError(t, settings.Validate())
}

func TestLoadEnvFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "env"), []byte("OPENAI_API_KEY=sk-file\nLLM_CODE_MODEL=gpt-4\nUNRELATED=1\n"), 0600))

	settings, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-file", settings.OpenAIAPIKey)
	assert.Equal(t, "gpt-4", settings.Model)
}

func TestLoadPrecedence(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("model = \"from-toml\"\ntemperature = 0.3\nmax_tokens = 10\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "env"), []byte("LLM_CODE_MODEL=from-env-file\n"), 0600))
	t.Setenv("LLM_CODE_MAX_TOKENS", "20")

	settings, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env-file", settings.Model)
	assert.Equal(t, 0.3, settings.Temperature)
	assert.Equal(t, 20, settings.MaxTokens)
}

func TestLoadBadConfigFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("model = "), 0600))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateMaxTokens(t *testing.T) {
	settings := &Settings{OpenAIAPIKey: "k", MaxTokens: 0}
	assert.Error(t, settings.Validate())
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "openai_api_key", envKey("OPENAI_API_KEY"))
	assert.Equal(t, "max_tokens", envKey("LLM_CODE_MAX_TOKENS"))
	assert.Equal(t, "", envKey("HOME"))
}

func TestLoadIgnoresUnrelatedEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("LLM_CODE_UNKNOWN_SETTING", "x")
	t.Setenv("SOME_OTHER_TOOL_MODEL", "not-ours")

	settings, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, settings.Model)
	assert.Equal(t, "sk-env", settings.OpenAIAPIKey)
}
