// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Advisory provider names accepted by ADVISORY_PROVIDER.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	DBPath      string // empty = in-memory store

	UploadDir      string
	PresetVideoDir string

	TranscriberURL     string
	TranscriberTimeout time.Duration

	Advisory AdvisoryConfig

	WindowCount        int
	MockVitalsSeconds  float64
	SessionTTL         time.Duration // <= 0 disables the idle-session sweeper
	SessionSweepPeriod time.Duration
}

// AdvisoryConfig selects and configures the language-model collaborator.
type AdvisoryConfig struct {
	Provider      string
	Timeout       time.Duration
	OllamaBaseURL string
	OllamaModel   string
	OpenAIBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", ""),
		DBPath:         getEnv("DB_PATH", ""),
		UploadDir:      getEnv("UPLOAD_DIR", "./data/uploads"),
		PresetVideoDir: getEnv("PRESET_VIDEO_DIR", "./data/preset_videos"),

		TranscriberURL:     getEnv("TRANSCRIBER_URL", "http://localhost:9000"),
		TranscriberTimeout: time.Duration(getEnvInt("TRANSCRIBER_TIMEOUT_SECONDS", 300)) * time.Second,

		Advisory: AdvisoryConfig{
			Provider:      strings.ToLower(getEnv("ADVISORY_PROVIDER", ProviderOllama)),
			Timeout:       time.Duration(getEnvInt("ADVISORY_TIMEOUT_SECONDS", 120)) * time.Second,
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:   getEnv("OLLAMA_MODEL", "llama3.2"),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
			OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},

		WindowCount:        getEnvInt("ANALYSIS_WINDOW_COUNT", 5),
		MockVitalsSeconds:  float64(getEnvInt("MOCK_VITALS_SECONDS", 120)),
		SessionTTL:         time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		SessionSweepPeriod: 10 * time.Minute,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR cannot be empty")
	}
	if c.PresetVideoDir == "" {
		return fmt.Errorf("PRESET_VIDEO_DIR cannot be empty")
	}
	if c.TranscriberURL == "" {
		return fmt.Errorf("TRANSCRIBER_URL cannot be empty")
	}
	if c.WindowCount <= 0 {
		return fmt.Errorf("ANALYSIS_WINDOW_COUNT must be > 0")
	}
	if c.MockVitalsSeconds <= 0 {
		return fmt.Errorf("MOCK_VITALS_SECONDS must be > 0")
	}
	switch c.Advisory.Provider {
	case ProviderOllama:
		if c.Advisory.OllamaBaseURL == "" {
			return fmt.Errorf("OLLAMA_BASE_URL cannot be empty")
		}
		if c.Advisory.OllamaModel == "" {
			return fmt.Errorf("OLLAMA_MODEL cannot be empty")
		}
	case ProviderOpenAI:
		if c.Advisory.OpenAIModel == "" {
			return fmt.Errorf("OPENAI_MODEL cannot be empty")
		}
	default:
		return fmt.Errorf("ADVISORY_PROVIDER must be %q or %q", ProviderOllama, ProviderOpenAI)
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
