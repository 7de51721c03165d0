// Package config provides configuration management using the Singleton pattern.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultConfigName = "config"
	defaultConfigType = "yaml"
	envPrefix         = "BUDDHAI"

	// EnvAPIKey is the primary environment variable for the provider
	// credential. It takes priority over file configuration so the key
	// never has to live on disk.
	EnvAPIKey = "BUDDHAI_API_KEY"
)

// loadConfig loads the configuration from environment variables and files.
// Priority order (highest to lowest):
// 1. BUDDHAI_API_KEY env var - primary source for the credential
// 2. Environment variables (prefixed with BUDDHAI_)
// 3. config.yaml - fallback for local development
// 4. Default values
func loadConfig(configPath string) (*Configuration, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure Viper
	v.SetConfigName(defaultConfigName)
	v.SetConfigType(defaultConfigType)

	// Add config search paths
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/buddhai-chat")
		v.AddConfigPath("$HOME/.buddhai-chat")
	}

	// Enable environment variable override
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Read configuration file (fallback only)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, &ConfigError{
				Op:  "read",
				Err: fmt.Errorf("failed to read config file: %w", err),
			}
		}
		// Config file not found is OK - env vars cover everything
	}

	// Unmarshal configuration
	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{
			Op:  "unmarshal",
			Err: fmt.Errorf("failed to unmarshal config: %w", err),
		}
	}

	// PRIORITY: the credential env var beats any file-configured key
	if key := os.Getenv(EnvAPIKey); key != "" {
		cfg.Provider.APIKey = strings.TrimSpace(key)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_seconds", 30)
	// The answer phase blocks on the provider; leave generous room.
	v.SetDefault("server.write_timeout_seconds", 120)
	v.SetDefault("server.shutdown_timeout_seconds", 15)

	// Provider defaults
	v.SetDefault("provider.type", "completion")
	v.SetDefault("provider.model", "gpt-4o-mini")
	v.SetDefault("provider.poll_interval_ms", 500)
	v.SetDefault("provider.timeout_seconds", 30)

	// Chat defaults (the Korean deployment texts)
	v.SetDefault("chat.title", "현대불교신문 AI")
	v.SetDefault("chat.greeting", "안녕하세요. 무엇을 도와드릴까요?")
	v.SetDefault("chat.system_prompt", "")
	v.SetDefault("chat.pending_text", "답변을 생성하는 중입니다...")
	v.SetDefault("chat.fallback_text", "죄송합니다. 답변 생성 중 문제가 발생했습니다. 잠시 후 다시 시도해 주세요.")
	v.SetDefault("chat.session_cookie", "chat_session")
	v.SetDefault("chat.session_ttl_minutes", 0)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
