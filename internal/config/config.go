// Package config provides configuration for the marketplace services.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the marketplace configuration.
type Config struct {
	// Server settings
	HTTPPort  int
	AgentPort int
	APIURL    string

	// Ledger
	DatabaseURL          string
	InteractionRetention time.Duration

	// Chain simulator
	BlockchainNodeURL  string
	ContractAddress    string
	PlatformFeePercent int

	// Agent catalog
	AgentCatalog string

	// Inference backend
	InferenceMode    string
	InferenceURL     string
	InferenceAPIKey  string
	InferenceModel   string
	InferenceTimeout time.Duration
	ModelLoadTimeout time.Duration
	MockLoadDelay    time.Duration

	// Dispatch
	AgentTimeout            time.Duration
	EstimatedTime           int
	MaxConcurrentInferences int
	MaxQueryChars           int

	// Gateway
	RateLimitRPS int
	PolicyFile   string

	// Observability
	TracingExporter string
	LogLevel        string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:                getEnvInt("PORT", 8000),
		AgentPort:               getEnvInt("AGENT_PORT", 8001),
		APIURL:                  getEnv("API_URL", "http://localhost:8000"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		InteractionRetention:    time.Duration(getEnvInt("INTERACTION_RETENTION_MS", 0)) * time.Millisecond,
		BlockchainNodeURL:       getEnv("BLOCKCHAIN_NODE_URL", "http://localhost:9944"),
		ContractAddress:         getEnv("CONTRACT_ADDRESS", "5CiPPseXPECbkjWCa6MnjNokrgYjMqmKndv2rSnekmSK2DjL"),
		PlatformFeePercent:      getEnvInt("PLATFORM_FEE_PERCENT", 5),
		AgentCatalog:            getEnv("AGENT_CATALOG", ""),
		InferenceMode:           getEnv("INFERENCE_MODE", "mock"),
		InferenceURL:            getEnv("INFERENCE_URL", "http://localhost:4000"),
		InferenceAPIKey:         getEnv("INFERENCE_API_KEY", ""),
		InferenceModel:          getEnv("INFERENCE_MODEL", "gpt-4o-mini"),
		InferenceTimeout:        time.Duration(getEnvInt("INFERENCE_TIMEOUT_MS", 60000)) * time.Millisecond,
		ModelLoadTimeout:        time.Duration(getEnvInt("MODEL_LOAD_TIMEOUT_MS", 120000)) * time.Millisecond,
		MockLoadDelay:           time.Duration(getEnvInt("MOCK_LOAD_DELAY_MS", 0)) * time.Millisecond,
		AgentTimeout:            time.Duration(getEnvInt("AGENT_TIMEOUT_MS", 60000)) * time.Millisecond,
		EstimatedTime:           getEnvInt("ESTIMATED_TIME_S", 5),
		MaxConcurrentInferences: getEnvInt("MAX_CONCURRENT_INFERENCES", 0),
		MaxQueryChars:           getEnvInt("MAX_QUERY_CHARS", 20000),
		RateLimitRPS:            getEnvInt("RATE_LIMIT_RPS", 0),
		PolicyFile:              getEnv("POLICY_FILE", ""),
		TracingExporter:         getEnv("TRACING_EXPORTER", ""),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

// DebugEnabled reports whether debug log lines should be emitted.
func (c *Config) DebugEnabled() bool {
	return c.LogLevel == "debug"
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
