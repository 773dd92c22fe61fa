package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix = "LLM_CODE_"
	apiKeyEnv = "OPENAI_API_KEY"

	DefaultModel       = "gpt-3.5-turbo"
	DefaultTemperature = 0.8
	DefaultMaxTokens   = 1000
	DefaultBaseURL     = "https://api.openai.com/v1/chat/completions"
	DefaultTimeout     = 60 * time.Second
)

var ErrMissingAPIKey = errors.New("OPENAI_API_KEY must be set")

// Settings holds everything one invocation needs to know about its
// environment.
type Settings struct {
	OpenAIAPIKey string        `koanf:"openai_api_key"`
	Model        string        `koanf:"model"`
	Temperature  float64       `koanf:"temperature"`
	MaxTokens    int           `koanf:"max_tokens"`
	ConfigDir    string        `koanf:"config_dir"`
	BaseURL      string        `koanf:"base_url"`
	Timeout      time.Duration `koanf:"timeout"`
}

func (s *Settings) PromptsDir() string {
	return filepath.Join(s.ConfigDir, "prompts")
}

func (s *Settings) CachePath() string {
	return filepath.Join(s.ConfigDir, "cache.duckdb")
}

func (s *Settings) EnvFile() string {
	return filepath.Join(s.ConfigDir, "env")
}

func (s *Settings) ConfigFile() string {
	return filepath.Join(s.ConfigDir, "config.toml")
}

func (s *Settings) Validate() error {
	if s.OpenAIAPIKey == "" {
		return ErrMissingAPIKey
	}
	if s.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", s.MaxTokens)
	}
	return nil
}

// DefaultConfigDir is ~/.llm_code, falling back to the working directory
// when there is no home directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".llm_code"
	}
	return filepath.Join(home, ".llm_code")
}

// Load resolves settings from, lowest priority first: defaults,
// <config_dir>/config.toml, <config_dir>/env, then the process environment.
func Load() (*Settings, error) {
	k := koanf.New(".")

	err := k.Load(confmap.Provider(map[string]interface{}{
		"model":       DefaultModel,
		"temperature": DefaultTemperature,
		"max_tokens":  DefaultMaxTokens,
		"config_dir":  DefaultConfigDir(),
		"base_url":    DefaultBaseURL,
		"timeout":     DefaultTimeout.String(),
	}, "."), nil)
	if err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	configDir := k.String("config_dir")
	if dir := os.Getenv(envPrefix + "CONFIG_DIR"); dir != "" {
		configDir = dir
	}
	configDir = expandHome(configDir)

	configFile := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(configFile); err == nil {
		if err := k.Load(file.Provider(configFile), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading %s: %w", configFile, err)
		}
	}

	envFile := filepath.Join(configDir, "env")
	if _, err := os.Stat(envFile); err == nil {
		values, err := godotenv.Read(envFile)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", envFile, err)
		}
		if err := k.Load(confmap.Provider(envFileValues(values), "."), nil); err != nil {
			return nil, fmt.Errorf("error loading %s: %w", envFile, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var settings Settings
	if err := k.Unmarshal("", &settings); err != nil {
		return nil, fmt.Errorf("error unmarshalling settings: %w", err)
	}
	settings.ConfigDir = expandHome(settings.ConfigDir)

	return &settings, nil
}

// envKey maps OPENAI_API_KEY and LLM_CODE_* variables to settings keys and
// drops everything else.
func envKey(name string) string {
	if name == apiKeyEnv {
		return "openai_api_key"
	}
	if strings.HasPrefix(name, envPrefix) {
		return strings.ToLower(strings.TrimPrefix(name, envPrefix))
	}
	return ""
}

func envFileValues(values map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(values))
	for name, value := range values {
		if key := envKey(name); key != "" {
			out[key] = value
		}
	}
	return out
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
