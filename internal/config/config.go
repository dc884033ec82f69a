// Package config loads the assistant configuration from a YAML file.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// AIConfig holds settings for the Groq completion client.
type AIConfig struct {
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url"`
	Model       string  `mapstructure:"model" yaml:"model"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
}

// ChatConfig bounds the chatbot's listing behaviour.
type ChatConfig struct {
	// DefaultMaxResults is used when a read command names no count.
	DefaultMaxResults int `mapstructure:"default_max_results" yaml:"default_max_results"`

	// MaxResultsCeiling caps any user-requested count before it reaches Gmail.
	MaxResultsCeiling int `mapstructure:"max_results_ceiling" yaml:"max_results_ceiling"`
}

// Config is the top-level application configuration.
type Config struct {
	// DBPath is the location of the sqlite session database.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// FrontendURL is where OAuth callbacks redirect the browser after login.
	FrontendURL string `mapstructure:"frontend_url" yaml:"frontend_url"`

	AI   AIConfig   `mapstructure:"ai" yaml:"ai"`
	Chat ChatConfig `mapstructure:"chat" yaml:"chat"`
}

func defaults() *Config {
	return &Config{
		DBPath:      "./data/sessions.db",
		FrontendURL: "http://localhost:3000",
		AI: AIConfig{
			BaseURL:     "https://api.groq.com/openai/v1",
			Model:       "llama-3.3-70b-versatile",
			MaxTokens:   500,
			Temperature: 0.7,
		},
		Chat: ChatConfig{
			DefaultMaxResults: 5,
			MaxResultsCeiling: 25,
		},
	}
}

// Load reads configuration from path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("db_path", "./data/sessions.db")
	v.SetDefault("frontend_url", "http://localhost:3000")
	v.SetDefault("ai.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("ai.model", "llama-3.3-70b-versatile")
	v.SetDefault("ai.max_tokens", 500)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("chat.default_max_results", 5)
	v.SetDefault("chat.max_results_ceiling", 25)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaults(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaults(), nil
		}
		return nil, fmt.Errorf("v.ReadInConfig failed: %w", err)
	}

	cfg := defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("v.Unmarshal failed: %w", err)
	}

	return cfg, nil
}
