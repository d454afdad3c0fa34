package config

import (
	_ "embed"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed prices.yaml
var pricesYAML []byte

type Config struct {
	OpenAI   OpenAIConfig
	Gemini   GeminiConfig
	Refine   RefineConfig
	Database DatabaseConfig
	Web      WebConfig
	Prices   PricesConfig
}

type OpenAIConfig struct {
	Token string
}

type GeminiConfig struct {
	APIKey string
}

// RefineConfig controls the external refinement collaborator.
type RefineConfig struct {
	// Provider selects the backend: "openai", "gemini" or "" (disabled).
	Provider string
	// Timeout bounds the refinement call; on expiry the local result is
	// served unrefined.
	Timeout time.Duration
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL; empty keeps history in memory
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type WebConfig struct {
	Host string // defaults to all interfaces
	Port int    // defaults to 8080
}

type PricesConfig struct {
	Models map[string]ModelPricing `yaml:"models"`
}

type ModelPricing struct {
	Standard RequestPricing `yaml:"standard"`
}

type RequestPricing struct {
	Input  float64 `yaml:"input"`
	Output float64 `yaml:"output"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func Load() *Config {
	var prices PricesConfig
	if err := yaml.Unmarshal(pricesYAML, &prices); err != nil {
		// Embedded file; failing to parse it is a packaging defect.
		panic("failed to unmarshal embedded prices.yaml: " + err.Error())
	}

	return &Config{
		OpenAI: OpenAIConfig{
			Token: os.Getenv("OPENAI_TOKEN"),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
		},
		Refine: RefineConfig{
			Provider: os.Getenv("REFINE_PROVIDER"),
			Timeout:  time.Duration(envInt("REFINE_TIMEOUT_MS", 4000)) * time.Millisecond,
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Web: WebConfig{
			Host: os.Getenv("WEB_HOST"),
			Port: envInt("WEB_PORT", 8080),
		},
		Prices: prices,
	}
}

// GetModelPricing returns pricing for a specific model. Unknown models
// get zero pricing, which disables cost reporting but nothing else.
func (c *Config) GetModelPricing(modelName string) ModelPricing {
	if pricing, ok := c.Prices.Models[modelName]; ok {
		return pricing
	}
	return ModelPricing{}
}
