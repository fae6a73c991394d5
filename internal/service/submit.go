package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/xiaot623/gogo/marketplace/internal/domain"
	"github.com/xiaot623/gogo/marketplace/internal/parser"
	"github.com/xiaot623/gogo/marketplace/internal/tracer"
	"github.com/xiaot623/gogo/marketplace/policy"
)

// SubmitRequest is one paid query.
type SubmitRequest struct {
	AgentID uint32
	Query   string
	Caller  string
}

// SubmitResult is returned once the query has been accepted.
type SubmitResult struct {
	InteractionID uint64
	Status        domain.InteractionStatus
	EstimatedTime int
}

// Submit validates a query, records a pending interaction and starts its
// execution in the background. Rejected queries create no interaction.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	ctx, span := tracer.StartSpan(ctx, "service.Submit")
	defer span.End()
	span.SetAttributes(tracer.Int64Attr("agent_id", int64(req.AgentID)))

	agent, err := s.agents.GetAgent(ctx, req.AgentID)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	if agent == nil {
		s.metrics.Rejected(domain.RejectionAgentNotFound)
		return nil, fmt.Errorf("agent %d: %w", req.AgentID, domain.ErrAgentNotFound)
	}
	if !agent.Active {
		s.metrics.Rejected(domain.RejectionAgentInactive)
		return nil, fmt.Errorf("agent %d: %w", req.AgentID, domain.ErrAgentInactive)
	}
	span.SetAttributes(tracer.StringAttr("capability", string(agent.Capability)))

	if err := s.admit(ctx, agent, req); err != nil {
		return nil, err
	}

	parsed, err := parser.Parse(agent.Capability, req.Query)
	if err != nil {
		var guidance *parser.GuidanceError
		if errors.As(err, &guidance) {
			s.metrics.Rejected(guidance.Reason)
			return nil, &domain.RejectionError{Code: guidance.Reason, Message: guidance.Message}
		}
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("failed to parse query: %w", err)
	}

	id, err := s.ledger.Create(ctx, agent.ID, req.Caller, req.Query, agent.PricePerQuery)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}
	s.metrics.InteractionStatus(string(agent.Capability), string(domain.InteractionStatusPending))
	span.SetAttributes(tracer.Int64Attr("interaction_id", int64(id)))

	s.notifyQuery(ctx, id)

	s.wg.Add(1)
	go s.processInteraction(id, *agent, parsed)

	tracer.SetOK(span)
	return &SubmitResult{
		InteractionID: id,
		Status:        domain.InteractionStatusPending,
		EstimatedTime: s.config.EstimatedTime,
	}, nil
}

func (s *Service) admit(ctx context.Context, agent *domain.Agent, req SubmitRequest) error {
	if s.policyEngine == nil {
		return nil
	}

	decision, reason, err := s.policyEngine.Evaluate(ctx, policy.Input{
		AgentID:       agent.ID,
		Capability:    string(agent.Capability),
		Caller:        req.Caller,
		QueryChars:    len([]rune(req.Query)),
		MaxQueryChars: s.config.MaxQueryChars,
	})
	if err != nil {
		return fmt.Errorf("failed to evaluate policy: %w", err)
	}
	if decision == policy.DecisionBlock {
		log.Printf("INFO: query blocked by policy agent=%d caller=%s reason=%q", agent.ID, req.Caller, reason)
		s.metrics.Rejected(domain.RejectionPolicyBlocked)
		if reason == "" {
			reason = "query blocked by policy"
		}
		return &domain.RejectionError{Code: domain.RejectionPolicyBlocked, Message: reason}
	}
	s.debugf("DEBUG: query admitted agent=%d caller=%s reason=%q", agent.ID, req.Caller, reason)
	return nil
}

func (s *Service) processInteraction(id uint64, agent domain.Agent, req *parser.Request) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.agentTimeout())
	defer cancel()

	if s.sem != nil {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			s.failInteraction(id, agent, req, fmt.Errorf("waiting for inference slot: %w", err))
			return
		}
		defer s.sem.Release(1)
	}

	done := s.metrics.Started()
	defer done()

	start := time.Now()
	text, err := s.run(ctx, req)
	s.metrics.Inference(string(agent.Capability), time.Since(start), err)
	if err != nil {
		s.failInteraction(id, agent, req, err)
		return
	}
	s.completeInteraction(id, agent, text)
}

// run executes req and returns when it finishes or ctx ends, whichever
// comes first. A panicking handler is reported as an error.
func (s *Service) run(ctx context.Context, req *parser.Request) (string, error) {
	type outcome struct {
		text string
		err  error
	}
	ch := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("handler panic: %v", r)}
			}
		}()
		text, err := s.execute(ctx, req)
		ch <- outcome{text: text, err: err}
	}()

	select {
	case o := <-ch:
		return o.text, o.err
	case <-ctx.Done():
		return "", fmt.Errorf("handler did not finish: %w", ctx.Err())
	}
}

func (s *Service) completeInteraction(id uint64, agent domain.Agent, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), finishTimeout)
	defer cancel()

	if err := s.ledger.Complete(ctx, id, text); err != nil {
		s.logFinishError(id, err)
		return
	}
	s.metrics.InteractionStatus(string(agent.Capability), string(domain.InteractionStatusCompleted))
	s.notifyResponse(ctx, id)
}

func (s *Service) failInteraction(id uint64, agent domain.Agent, req *parser.Request, cause error) {
	key := req.ModelKey()
	log.Printf("ERROR: interaction failed id=%d agent=%d capability=%s key=%s: %v", id, agent.ID, agent.Capability, key, cause)

	ctx, cancel := context.WithTimeout(context.Background(), finishTimeout)
	defer cancel()

	if err := s.ledger.Fail(ctx, id, fallbackMessage(req, cause)); err != nil {
		s.logFinishError(id, err)
		return
	}
	s.metrics.InteractionStatus(string(agent.Capability), string(domain.InteractionStatusFailed))
	s.notifyResponse(ctx, id)
}

func (s *Service) logFinishError(id uint64, err error) {
	if errors.Is(err, domain.ErrAlreadyTerminal) {
		log.Printf("ERROR: interaction %d finished twice: %v", id, err)
		return
	}
	log.Printf("ERROR: failed to finish interaction %d: %v", id, err)
}

func (s *Service) notifyQuery(ctx context.Context, id uint64) {
	if s.sink == nil {
		return
	}
	in, err := s.ledger.Get(ctx, id)
	if err != nil || in == nil {
		log.Printf("WARN: failed to load interaction %d for chain sink: %v", id, err)
		return
	}
	if err := s.sink.RecordQuery(ctx, in); err != nil {
		log.Printf("WARN: failed to record query %d on chain: %v", id, err)
		return
	}
	s.debugf("DEBUG: chain sink recorded query interaction=%d", id)
}

func (s *Service) notifyResponse(ctx context.Context, id uint64) {
	if s.sink == nil {
		return
	}
	in, err := s.ledger.Get(ctx, id)
	if err != nil || in == nil {
		log.Printf("WARN: failed to load interaction %d for chain sink: %v", id, err)
		return
	}
	if err := s.sink.RecordResponse(ctx, in); err != nil {
		log.Printf("WARN: failed to record response %d on chain: %v", id, err)
		return
	}
	s.debugf("DEBUG: chain sink recorded response interaction=%d status=%s", id, in.Status)
}
