// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.babytrack/config.yaml, or ./config.yaml)
//  3. Default values
//
// Secrets are never stored in the config file: ANTHROPIC_API_KEY and
// GEMINI_API_KEY are read from the environment by the SDK clients and
// only checked for presence here.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates a token budget is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidTopK indicates the retrieval top-k is out of range.
	ErrInvalidTopK = errors.New("invalid retrieval top_k")

	// ErrInvalidPath indicates a configured path is empty.
	ErrInvalidPath = errors.New("invalid path")
)

// Defaults for the analysis pipeline. The token budgets are
// mode-specific: structured reports need room for four sections,
// conversational answers are deliberately short.
const (
	DefaultModel              = "claude-3-5-haiku-latest"
	DefaultEmbedderModel      = "text-embedding-004"
	DefaultReportMaxTokens    = 1024
	DefaultChatMaxTokens      = 512
	DefaultTemperature        = 0.3
	DefaultRetrievalTopK      = 4
	DefaultAddr               = "127.0.0.1:8432"
)

// Config stores application configuration.
type Config struct {
	// HTTP server
	Addr      string `mapstructure:"addr"`
	RateBurst int    `mapstructure:"rate_burst"`

	// Storage
	DatabasePath string `mapstructure:"database_path"`

	// Knowledge index
	DocsDir       string `mapstructure:"docs_dir"`
	IndexDir      string `mapstructure:"index_dir"`
	EmbedderModel string `mapstructure:"embedder_model"`
	RetrievalTopK int    `mapstructure:"retrieval_top_k"`

	// Reasoning service
	ModelName       string  `mapstructure:"model_name"`
	ReportMaxTokens int     `mapstructure:"report_max_tokens"`
	ChatMaxTokens   int     `mapstructure:"chat_max_tokens"`
	Temperature     float64 `mapstructure:"temperature"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".babytrack")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", DefaultAddr)
	v.SetDefault("rate_burst", 10)

	v.SetDefault("database_path", filepath.Join("data", "babytrack.db"))

	v.SetDefault("docs_dir", filepath.Join("data", "docs"))
	v.SetDefault("index_dir", filepath.Join("data", "index"))
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("retrieval_top_k", DefaultRetrievalTopK)

	v.SetDefault("model_name", DefaultModel)
	v.SetDefault("report_max_tokens", DefaultReportMaxTokens)
	v.SetDefault("chat_max_tokens", DefaultChatMaxTokens)
	v.SetDefault("temperature", DefaultTemperature)
}

// bindEnvVariables binds runtime override variables explicitly.
// API keys are NOT bound here: the Anthropic and Google SDK clients
// read ANTHROPIC_API_KEY and GEMINI_API_KEY directly; Validate only
// checks their presence.
func bindEnvVariables(v *viper.Viper) {
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("addr", "BABYTRACK_ADDR")
	mustBind("database_path", "BABYTRACK_DB")
	mustBind("docs_dir", "BABYTRACK_DOCS_DIR")
	mustBind("index_dir", "BABYTRACK_INDEX_DIR")
	mustBind("model_name", "BABYTRACK_MODEL")
	mustBind("embedder_model", "BABYTRACK_EMBEDDER_MODEL")
	mustBind("rate_burst", "BABYTRACK_RATE_BURST")
}

// Validate checks configuration invariants. Called by Load (fail-fast);
// exported so tests and callers constructing Config directly can reuse it.
func (c *Config) Validate() error {
	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name is empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model is empty", ErrInvalidModelName)
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("%w: %v (must be in [0, 1])", ErrInvalidTemperature, c.Temperature)
	}
	if c.ReportMaxTokens < 1 || c.ReportMaxTokens > 8192 {
		return fmt.Errorf("%w: report_max_tokens=%d", ErrInvalidMaxTokens, c.ReportMaxTokens)
	}
	if c.ChatMaxTokens < 1 || c.ChatMaxTokens > 8192 {
		return fmt.Errorf("%w: chat_max_tokens=%d", ErrInvalidMaxTokens, c.ChatMaxTokens)
	}
	if c.RetrievalTopK < 1 || c.RetrievalTopK > 20 {
		return fmt.Errorf("%w: %d (must be in [1, 20])", ErrInvalidTopK, c.RetrievalTopK)
	}
	for name, p := range map[string]string{
		"database_path": c.DatabasePath,
		"docs_dir":      c.DocsDir,
		"index_dir":     c.IndexDir,
	} {
		if p == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidPath, name)
		}
	}
	return nil
}

// ValidateServe performs the additional checks required before serving:
// the reasoning and embedding API keys must be present in the environment.
func (c *Config) ValidateServe() error {
	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		return fmt.Errorf("%w: ANTHROPIC_API_KEY not set", ErrMissingAPIKey)
	}
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY not set", ErrMissingAPIKey)
	}
	return nil
}
