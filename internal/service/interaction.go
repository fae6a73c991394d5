package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xiaot623/gogo/marketplace/internal/domain"
)

const waitPollInterval = 500 * time.Millisecond

// GetAgent returns the agent, or nil, nil when it does not exist.
func (s *Service) GetAgent(ctx context.Context, id uint32) (*domain.Agent, error) {
	return s.agents.GetAgent(ctx, id)
}

// ListAgents returns every agent in ascending id order.
func (s *Service) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	return s.agents.ListAgents(ctx)
}

// GetInteraction returns the interaction, or nil, nil when it does not exist.
func (s *Service) GetInteraction(ctx context.Context, id uint64) (*domain.Interaction, error) {
	return s.ledger.Get(ctx, id)
}

// ListInteractionsByAgent returns the interactions served by an agent.
func (s *Service) ListInteractionsByAgent(ctx context.Context, agentID uint32) ([]domain.Interaction, error) {
	agent, err := s.agents.GetAgent(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	if agent == nil {
		return nil, fmt.Errorf("agent %d: %w", agentID, domain.ErrAgentNotFound)
	}
	return s.ledger.ListByAgent(ctx, agentID)
}

// ListInteractionsByCaller returns the interactions submitted by a wallet.
func (s *Service) ListInteractionsByCaller(ctx context.Context, caller string) ([]domain.Interaction, error) {
	return s.ledger.ListByCaller(ctx, caller)
}

// WaitInteraction polls until the interaction is terminal or timeout
// elapses, then returns its latest state.
func (s *Service) WaitInteraction(ctx context.Context, id uint64, timeout time.Duration) (*domain.Interaction, error) {
	in, err := s.ledger.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in == nil {
		return nil, fmt.Errorf("interaction %d: %w", id, domain.ErrInteractionNotFound)
	}
	if in.Status.Terminal() {
		return in, nil
	}

	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()

	deadline := time.After(timeout)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return s.ledger.Get(ctx, id)
		case <-ticker.C:
			in, err := s.ledger.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			if in == nil {
				return nil, fmt.Errorf("interaction %d: %w", id, domain.ErrInteractionNotFound)
			}
			if in.Status.Terminal() {
				return in, nil
			}
		}
	}
}
