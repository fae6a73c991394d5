package inference

import (
	"log"
	"strings"

	"github.com/xiaot623/gogo/marketplace/internal/adapter/inference/llm"
	"github.com/xiaot623/gogo/marketplace/internal/config"
)

const (
	// ModeMock serves offline deterministic models.
	ModeMock = "mock"
	// ModeRemote serves models from an OpenAI-compatible backend.
	ModeRemote = "remote"
)

// NewLoader creates a loader based on cfg.InferenceMode.
func NewLoader(cfg *config.Config) Loader {
	if strings.EqualFold(cfg.InferenceMode, ModeRemote) {
		log.Printf("INFO: using remote inference backend url=%s model=%s", cfg.InferenceURL, cfg.InferenceModel)
		client := llm.NewBreakerClient(cfg.InferenceModel,
			llm.NewClient(cfg.InferenceURL, cfg.InferenceAPIKey, cfg.InferenceTimeout),
			llm.BreakerSettings{})
		return NewRemoteLoader(client, cfg.InferenceModel)
	}

	log.Printf("INFO: INFERENCE_MODE=%s, using offline mock models", cfg.InferenceMode)
	return NewMockLoader(cfg.MockLoadDelay)
}
