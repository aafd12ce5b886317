package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	apperrors "fundrag/backend/pkg/errors"
)

// Knowledge base sources
const (
	SourceCSV   = "csv"
	SourceYAML  = "yaml"
	SourceNeo4j = "neo4j"
)

// Config holds all application configuration
type Config struct {
	// App
	Port     string
	Env      string
	LogLevel string

	// Knowledge base
	DataSource   string // csv, yaml or neo4j
	DataDir      string // Directory holding the seven CSV tables
	SnapshotFile string // YAML snapshot document

	// Neo4j
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// Answer generation
	LiteLLMURL       string
	ModelID          string
	OpenRouterAPIKey string
	LLMTemperature   float64
	LLMMaxTokens     int
	LLMMaxRetries    int

	// Discord
	DiscordBotToken string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", ""),
		DataSource:       getEnv("DATA_SOURCE", SourceCSV),
		DataDir:          getEnv("DATA_DIR", "backend/data"),
		SnapshotFile:     getEnv("SNAPSHOT_FILE", "backend/data/knowledge_base.yaml"),
		Neo4jURI:         getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:        getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:    getEnv("NEO4J_PASSWORD", "password"),
		LiteLLMURL:       getEnv("LITELLM_URL", "http://localhost:4000"),
		ModelID:          getEnv("MODEL_ID", "gemini/gemini-1.5-pro-latest"),
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		LLMTemperature:   getEnvFloat("LLM_TEMPERATURE", 0.2),
		LLMMaxTokens:     getEnvInt("LLM_MAX_TOKENS", 250),
		LLMMaxRetries:    getEnvInt("LLM_MAX_RETRIES", 3),
		DiscordBotToken:  getEnv("DISCORD_BOT_TOKEN", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	switch c.DataSource {
	case SourceCSV:
		if c.DataDir == "" {
			return apperrors.NewConfigMissingRequired("DATA_DIR")
		}
	case SourceYAML:
		if c.SnapshotFile == "" {
			return apperrors.NewConfigMissingRequired("SNAPSHOT_FILE")
		}
	case SourceNeo4j:
		if err := c.ValidateNeo4j(); err != nil {
			return err
		}
	default:
		return apperrors.NewConfigValidationFailed("DATA_SOURCE",
			fmt.Sprintf("unknown source %q (want csv, yaml or neo4j)", c.DataSource))
	}
	if c.LiteLLMURL == "" {
		return apperrors.NewConfigMissingRequired("LITELLM_URL")
	}
	if c.ModelID == "" {
		return apperrors.NewConfigMissingRequired("MODEL_ID")
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		return apperrors.NewConfigValidationFailed("LLM_TEMPERATURE", "must be between 0 and 2")
	}
	if c.LLMMaxTokens <= 0 {
		return apperrors.NewConfigValidationFailed("LLM_MAX_TOKENS", "must be positive")
	}
	if c.LLMMaxRetries <= 0 {
		return apperrors.NewConfigValidationFailed("LLM_MAX_RETRIES", "must be positive")
	}
	// API key and Discord token are optional for development
	return nil
}

// ValidateNeo4j checks the Neo4j connection settings. The seed command needs
// them even when the service reads another source.
func (c *Config) ValidateNeo4j() error {
	if c.Neo4jURI == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_URI")
	}
	if c.Neo4jUser == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_USER")
	}
	if c.Neo4jPassword == "" {
		return apperrors.NewConfigMissingRequired("NEO4J_PASSWORD")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var result float64
		if _, err := fmt.Sscanf(value, "%f", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
