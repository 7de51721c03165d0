// Package config provides configuration management using the Singleton pattern.
// It loads configuration from environment variables and config.yaml using Viper.
package config

import (
	"fmt"
	"sync"

	"github.com/buddhai/hyundai-chat/internal/domain"
)

// Configuration holds all application configuration values.
type Configuration struct {
	// Server configuration
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Provider configuration (one adapter per deployment)
	Provider ProviderConfig `json:"provider" mapstructure:"provider"`

	// Chat configuration (the cosmetic per-deployment variations)
	Chat ChatConfig `json:"chat" mapstructure:"chat"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	// Host is the server bind address.
	Host string `json:"host" mapstructure:"host"`

	// Port is the server port number.
	Port int `json:"port" mapstructure:"port"`

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeoutSeconds int `json:"read_timeout_seconds" mapstructure:"read_timeout_seconds"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. The answer phase blocks on the provider, so this must cover
	// a full completion round-trip.
	WriteTimeoutSeconds int `json:"write_timeout_seconds" mapstructure:"write_timeout_seconds"`

	// ShutdownTimeout is the maximum duration to wait for active connections to finish.
	ShutdownTimeoutSeconds int `json:"shutdown_timeout_seconds" mapstructure:"shutdown_timeout_seconds"`
}

// ProviderConfig selects and configures the completion provider adapter.
type ProviderConfig struct {
	// Type selects the adapter call pattern (assistant, chat, completion).
	Type domain.ProviderType `json:"type" mapstructure:"type"`

	// BaseURL overrides the adapter's default API endpoint (empty keeps the default).
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// APIKey is the provider credential. Prefer the BUDDHAI_API_KEY env var.
	APIKey string `json:"api_key" mapstructure:"api_key"`

	// Model is the model name for the chat and completion adapters.
	Model string `json:"model" mapstructure:"model"`

	// AssistantID is the remote assistant id for the assistant adapter.
	AssistantID string `json:"assistant_id" mapstructure:"assistant_id"`

	// PollIntervalMS is the wait between run status checks (assistant adapter).
	PollIntervalMS int `json:"poll_interval_ms" mapstructure:"poll_interval_ms"`

	// TimeoutSeconds is the HTTP client timeout for provider calls.
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// ChatConfig holds the per-deployment conversation texts and session settings.
type ChatConfig struct {
	// Title is the page title shown on the chat interface.
	Title string `json:"title" mapstructure:"title"`

	// Greeting is the assistant message seeding every fresh conversation.
	Greeting string `json:"greeting" mapstructure:"greeting"`

	// SystemPrompt is the hidden system preamble (empty disables it).
	SystemPrompt string `json:"system_prompt" mapstructure:"system_prompt"`

	// PendingText is the placeholder sentinel shown while a reply is generated.
	PendingText string `json:"pending_text" mapstructure:"pending_text"`

	// FallbackText is the sentinel reply substituted when the provider fails.
	FallbackText string `json:"fallback_text" mapstructure:"fallback_text"`

	// SessionCookie is the name of the session token cookie.
	SessionCookie string `json:"session_cookie" mapstructure:"session_cookie"`

	// SessionTTLMinutes evicts sessions idle longer than this (0 disables eviction).
	SessionTTLMinutes int `json:"session_ttl_minutes" mapstructure:"session_ttl_minutes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `json:"level" mapstructure:"level"`

	// Format is the log format (json, text).
	Format string `json:"format" mapstructure:"format"`
}

// configInstance holds the singleton configuration instance.
var (
	configInstance *Configuration
	configOnce     sync.Once
	configErr      error
)

// GetConfig returns the singleton Configuration instance.
// It initializes the configuration on first call using the default config path.
// Returns an error if configuration loading fails.
func GetConfig() (*Configuration, error) {
	configOnce.Do(func() {
		configInstance, configErr = loadConfig("")
	})
	return configInstance, configErr
}

// GetConfigWithPath returns the singleton Configuration instance with a custom config path.
// This should be used when you need to specify a non-default configuration file path.
func GetConfigWithPath(configPath string) (*Configuration, error) {
	configOnce.Do(func() {
		configInstance, configErr = loadConfig(configPath)
	})
	return configInstance, configErr
}

// MustGetConfig returns the singleton Configuration instance.
// It panics if the configuration cannot be loaded.
func MustGetConfig() *Configuration {
	cfg, err := GetConfig()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// ResetConfig resets the singleton instance.
// This is primarily used for testing purposes.
func ResetConfig() {
	configOnce = sync.Once{}
	configInstance = nil
	configErr = nil
}

// Validate validates the configuration and returns an error if required fields are missing.
func (c *Configuration) Validate() error {
	var validationErrors []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		validationErrors = append(validationErrors, "server.port must be between 1 and 65535")
	}

	if !c.Provider.Type.IsValid() {
		validationErrors = append(validationErrors, fmt.Sprintf(
			"provider.type '%s' is invalid, must be one of: assistant, chat, completion",
			c.Provider.Type,
		))
	}

	if c.Provider.APIKey == "" {
		validationErrors = append(validationErrors, "provider.api_key is required (set BUDDHAI_API_KEY)")
	}

	if c.Provider.Type == domain.ProviderAssistant && c.Provider.AssistantID == "" {
		validationErrors = append(validationErrors, "provider.assistant_id is required for the assistant provider")
	}

	if (c.Provider.Type == domain.ProviderChat || c.Provider.Type == domain.ProviderCompletion) && c.Provider.Model == "" {
		validationErrors = append(validationErrors, "provider.model is required for the chat and completion providers")
	}

	if c.Provider.Type == domain.ProviderAssistant && c.Provider.PollIntervalMS <= 0 {
		validationErrors = append(validationErrors, "provider.poll_interval_ms must be positive for the assistant provider")
	}

	if c.Chat.Greeting == "" {
		validationErrors = append(validationErrors, "chat.greeting is required")
	}

	if c.Chat.SessionCookie == "" {
		validationErrors = append(validationErrors, "chat.session_cookie is required")
	}

	if c.Logging.Level != "" && !isValidLogLevel(c.Logging.Level) {
		validationErrors = append(validationErrors, fmt.Sprintf(
			"logging.level '%s' is invalid, must be one of: debug, info, warn, error",
			c.Logging.Level,
		))
	}

	if len(validationErrors) > 0 {
		return &ValidationError{Errors: validationErrors}
	}

	return nil
}

// isValidLogLevel checks if the log level is valid.
func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}
