package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/xiaot623/gogo/marketplace/internal/domain"
	"github.com/xiaot623/gogo/marketplace/internal/parser"
)

// Predict runs one query inline for the agent service. Guidance and
// capability failures come back as result text. Only an unknown agent or
// an internal fault returns an error.
func (s *Service) Predict(ctx context.Context, req domain.PredictRequest) (*domain.PredictResponse, error) {
	start := time.Now()

	agent, err := s.agents.GetAgent(ctx, req.AgentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	if agent == nil {
		return nil, fmt.Errorf("agent %d: %w", req.AgentID, domain.ErrAgentNotFound)
	}

	result, err := s.predictText(ctx, agent, req)
	if err != nil {
		return nil, err
	}

	return &domain.PredictResponse{
		InteractionID:  req.InteractionID,
		AgentID:        req.AgentID,
		Result:         result,
		ProcessingTime: time.Since(start).Seconds(),
	}, nil
}

func (s *Service) predictText(ctx context.Context, agent *domain.Agent, req domain.PredictRequest) (string, error) {
	parsed, err := parser.Parse(agent.Capability, req.Query)
	if err != nil {
		var guidance *parser.GuidanceError
		if errors.As(err, &guidance) {
			return guidance.Message, nil
		}
		return "", fmt.Errorf("failed to parse query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.agentTimeout())
	defer cancel()

	start := time.Now()
	text, err := s.run(ctx, parsed)
	s.metrics.Inference(string(agent.Capability), time.Since(start), err)
	if err != nil {
		log.Printf("ERROR: predict failed interaction=%d agent=%d capability=%s key=%s: %v",
			req.InteractionID, agent.ID, agent.Capability, parsed.ModelKey(), err)
		return fallbackMessage(parsed, err), nil
	}
	return text, nil
}
