// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dsablic/anchoraudit/internal/aggregate"
	"github.com/dsablic/anchoraudit/internal/provider"
	"github.com/dsablic/anchoraudit/internal/telemetry"
)

const (
	configName = "anchoraudit"
	configType = "yaml"
	envPrefix  = "ANCHORAUDIT"

	// geminiKeyEnv is the conventional variable for the default provider key.
	geminiKeyEnv = "GEMINI_API_KEY"
)

// Config is the full process configuration.
type Config struct {
	Env       string          `mapstructure:"env"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	GitHub    GitHubConfig    `mapstructure:"github"`
	Aggregate AggregateConfig `mapstructure:"aggregate"`
	Providers ProvidersConfig `mapstructure:"providers"`
	OTel      OTelConfig      `mapstructure:"otel"`

	// File is the configuration file that was read, if any.
	File string `mapstructure:"-"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
	// CredentialErrorStatus is the HTTP status for a missing custom API key.
	CredentialErrorStatus int `mapstructure:"credential_error_status"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type GitHubConfig struct {
	APIURL            string  `mapstructure:"api_url"`
	RawURL            string  `mapstructure:"raw_url"`
	Token             string  `mapstructure:"token"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

type AggregateConfig struct {
	FailurePolicy string `mapstructure:"failure_policy"`
}

type ProvidersConfig struct {
	Default DefaultProviderConfig `mapstructure:"default"`
	Gemini  EndpointConfig        `mapstructure:"gemini"`
	Claude  ClaudeConfig          `mapstructure:"claude"`
	Groq    EndpointConfig        `mapstructure:"groq"`
}

type DefaultProviderConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type EndpointConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type ClaudeConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	MaxTokens int64  `mapstructure:"max_tokens"`
}

type OTelConfig struct {
	Endpoint       string `mapstructure:"endpoint"`
	Headers        string `mapstructure:"headers"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
}

// Defaults returns every known key with its default value. Every key is
// registered so that environment variables reach Unmarshal.
func Defaults() map[string]any {
	return map[string]any{
		"env":                            "development",
		"server.port":                    8080,
		"server.credential_error_status": 500,
		"log.level":                      "info",
		"log.format":                     "structured",
		"github.api_url":                 "",
		"github.raw_url":                 "",
		"github.token":                   "",
		"github.requests_per_second":     0.0,
		"aggregate.failure_policy":       string(aggregate.PolicyDrop),
		"providers.default.api_key":      "",
		"providers.default.model":        provider.DefaultGeminiModel,
		"providers.gemini.base_url":      "",
		"providers.gemini.model":         provider.DefaultGeminiModel,
		"providers.claude.base_url":      "",
		"providers.claude.model":         provider.DefaultClaudeModel,
		"providers.claude.max_tokens":    provider.DefaultClaudeMaxTokens,
		"providers.groq.base_url":        "",
		"providers.groq.model":           provider.DefaultGroqModel,
		"otel.endpoint":                  "",
		"otel.headers":                   "",
		"otel.service_name":              "anchoraudit",
		"otel.service_version":           "dev",
	}
}

// Load reads configuration from defaults, an optional YAML file and
// ANCHORAUDIT_* environment variables, in increasing precedence. path
// selects an explicit file; empty searches the working directory and the
// user config directory. A .env file is loaded first in development.
func Load(path string) (Config, error) {
	if env := os.Getenv(envPrefix + "_ENV"); env == "" || env == "development" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, configName))
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("failed to read configuration: %w", err)
		}
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read configuration: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse configuration: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if cfg.Providers.Default.APIKey == "" {
		cfg.Providers.Default.APIKey = os.Getenv(geminiKeyEnv)
	}

	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unsupported level %q (use debug, info, warn or error)", c.Log.Level)
	}
	switch c.Log.Format {
	case "structured", "console":
	default:
		return fmt.Errorf("log.format: unsupported format %q (use structured or console)", c.Log.Format)
	}
	if _, err := aggregate.ParsePolicy(c.Aggregate.FailurePolicy); err != nil {
		return fmt.Errorf("aggregate.failure_policy: %w", err)
	}
	if c.Server.CredentialErrorStatus != 400 && c.Server.CredentialErrorStatus != 500 {
		return fmt.Errorf("server.credential_error_status: must be 400 or 500, got %d", c.Server.CredentialErrorStatus)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: out of range: %d", c.Server.Port)
	}
	if c.GitHub.RequestsPerSecond < 0 {
		return fmt.Errorf("github.requests_per_second: must not be negative")
	}
	return nil
}

// IsDevelopment reports whether Env is development.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ProviderConfig builds the dispatcher configuration.
func (c Config) ProviderConfig() provider.Config {
	return provider.Config{
		DefaultAPIKey: c.Providers.Default.APIKey,
		DefaultModel:  c.Providers.Default.Model,
		Gemini: provider.GeminiConfig{
			BaseURL: c.Providers.Gemini.BaseURL,
			Model:   c.Providers.Gemini.Model,
		},
		Claude: provider.ClaudeConfig{
			BaseURL:   c.Providers.Claude.BaseURL,
			Model:     c.Providers.Claude.Model,
			MaxTokens: c.Providers.Claude.MaxTokens,
		},
		Groq: provider.GroqConfig{
			BaseURL: c.Providers.Groq.BaseURL,
			Model:   c.Providers.Groq.Model,
		},
	}
}

// Telemetry builds the tracing configuration.
func (c Config) Telemetry() telemetry.Config {
	return telemetry.Config{
		Endpoint:       c.OTel.Endpoint,
		Headers:        c.OTel.Headers,
		ServiceName:    c.OTel.ServiceName,
		ServiceVersion: c.OTel.ServiceVersion,
	}
}
