package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "AGENT_PORT", "DATABASE_URL", "INFERENCE_MODE", "INTERACTION_RETENTION_MS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, 8000, cfg.HTTPPort)
	assert.Equal(t, 8001, cfg.AgentPort)
	assert.Equal(t, "http://localhost:9944", cfg.BlockchainNodeURL)
	assert.Equal(t, "5CiPPseXPECbkjWCa6MnjNokrgYjMqmKndv2rSnekmSK2DjL", cfg.ContractAddress)
	assert.Equal(t, "mock", cfg.InferenceMode)
	assert.Equal(t, 5, cfg.EstimatedTime)
	assert.Equal(t, time.Duration(0), cfg.InteractionRetention)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("AGENT_TIMEOUT_MS", "1500")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, 1500*time.Millisecond, cfg.AgentTimeout)
	assert.True(t, cfg.DebugEnabled())
}

func TestLoadInvalidIntFallsBack(t *testing.T) {
	t.Setenv("AGENT_PORT", "not-a-port")

	cfg := Load()

	assert.Equal(t, 8001, cfg.AgentPort)
}
