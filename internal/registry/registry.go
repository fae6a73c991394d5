// Package registry is the catalog of marketplace agents.
package registry

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/xiaot623/gogo/marketplace/internal/domain"
)

// Defaults for the built-in catalog.
const (
	DefaultOwner         = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	DefaultPricePerQuery = 1000000000
	DefaultStakeAmount   = 10000000000
	DefaultVersion       = "1.0.0"
)

// Registry answers agent lookups from a catalog fixed at startup.
type Registry struct {
	byID   map[uint32]domain.Agent
	sorted []domain.Agent
}

// New builds a registry from agents. Ids must be positive and unique.
func New(agents []domain.Agent) (*Registry, error) {
	r := &Registry{byID: make(map[uint32]domain.Agent, len(agents))}
	for _, a := range agents {
		if err := validate(a); err != nil {
			return nil, err
		}
		if _, dup := r.byID[a.ID]; dup {
			return nil, fmt.Errorf("duplicate agent id %d", a.ID)
		}
		if a.Version == "" {
			a.Version = DefaultVersion
		}
		r.byID[a.ID] = a
		r.sorted = append(r.sorted, a)
	}
	sort.Slice(r.sorted, func(i, j int) bool { return r.sorted[i].ID < r.sorted[j].ID })
	return r, nil
}

func validate(a domain.Agent) error {
	if a.ID == 0 {
		return fmt.Errorf("agent %q: id must be positive", a.Name)
	}
	if !a.Capability.Valid() {
		return fmt.Errorf("agent %d: unknown capability %q", a.ID, a.Capability)
	}
	if a.Name == "" {
		return fmt.Errorf("agent %d: name is required", a.ID)
	}
	return nil
}

// NewDefault returns the built-in five-agent catalog.
func NewDefault() *Registry {
	r, err := New(DefaultAgents(time.Now()))
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultAgents returns the built-in catalog, created one day before now.
func DefaultAgents(now time.Time) []domain.Agent {
	created := now.Add(-24 * time.Hour).Unix()
	agent := func(id uint32, c domain.Capability, name, description, modelInfo string) domain.Agent {
		return domain.Agent{
			ID:            id,
			Owner:         DefaultOwner,
			Capability:    c,
			Name:          name,
			Description:   description,
			ModelInfo:     modelInfo,
			Version:       DefaultVersion,
			PricePerQuery: DefaultPricePerQuery,
			StakeAmount:   DefaultStakeAmount,
			Active:        true,
			CreatedAt:     created,
		}
	}

	return []domain.Agent{
		agent(1, domain.CapabilityChatbot, "ChatBot AI",
			"General purpose conversational AI assistant",
			"Using GPT-2 Large for offline text generation"),
		agent(2, domain.CapabilityTranslation, "TranslateGPT",
			"Translates text between many languages",
			"Using MarianMT models for offline translation"),
		agent(3, domain.CapabilitySentiment, "SentimentAnalyzer",
			"Analyzes the sentiment of a piece of text",
			"Using BERT-Large for sentiment classification"),
		agent(4, domain.CapabilitySummarization, "TextSummarizer",
			"Condenses long text into a short summary",
			"Using T5-Base for text summarization"),
		agent(5, domain.CapabilityJobApplication, "JobApplicationWriter",
			"Writes cover letters from a resume and a job description",
			"Using fine-tuned GPT-2 for job application writing"),
	}
}

// GetAgent returns nil, nil for an unknown id.
func (r *Registry) GetAgent(ctx context.Context, id uint32) (*domain.Agent, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// ListAgents returns every agent in ascending id order.
func (r *Registry) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	out := make([]domain.Agent, len(r.sorted))
	copy(out, r.sorted)
	return out, nil
}
