package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	LogLevel           string
	APIKey             string
	OllamaHost         string
	OllamaModel        string
	OllamaTagsTimeout  time.Duration
	OllamaChatTimeout  time.Duration
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables. The API key, Ollama
// host and default model are required; a missing value is reported so the
// process can refuse to start.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		APIKey:             os.Getenv("APP_API_KEY"),
		OllamaHost:         os.Getenv("OLLAMA_HOST"),
		OllamaModel:        os.Getenv("OLLAMA_MODEL"),
		OllamaTagsTimeout:  getEnvAsDuration("OLLAMA_TAGS_TIMEOUT", 5*time.Second),
		OllamaChatTimeout:  getEnvAsDuration("OLLAMA_CHAT_TIMEOUT", 120*time.Second),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.OllamaHost = strings.TrimRight(cfg.OllamaHost, "/")
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	for _, req := range []struct {
		name, value string
	}{
		{"APP_API_KEY", c.APIKey},
		{"OLLAMA_HOST", c.OllamaHost},
		{"OLLAMA_MODEL", c.OllamaModel},
	} {
		if strings.TrimSpace(req.value) == "" {
			missing = append(missing, req.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s (see .env.example)", strings.Join(missing, ", "))
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice splits a comma-separated environment variable, dropping
// empty entries.
func getEnvAsSlice(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}
