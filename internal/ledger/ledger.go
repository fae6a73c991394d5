// Package ledger tracks the lifecycle of every accepted query.
//
// An interaction starts pending and moves exactly once, to completed or
// failed. A second terminal transition is rejected with
// domain.ErrAlreadyTerminal and never overwrites the first.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/xiaot623/gogo/marketplace/internal/domain"
	"github.com/xiaot623/gogo/marketplace/internal/repository"
)

const minRetention = time.Second

// Ledger is the interaction state machine over a Store.
type Ledger struct {
	store repository.Store
	now   func() time.Time
}

// New creates a ledger backed by store.
func New(store repository.Store) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// Create records a pending interaction and returns its id.
func (l *Ledger) Create(ctx context.Context, agentID uint32, caller, query string, feePaid uint64) (uint64, error) {
	id, err := l.store.CreateInteraction(ctx, &domain.Interaction{
		AgentID:   agentID,
		Caller:    caller,
		Query:     query,
		Status:    domain.InteractionStatusPending,
		CreatedAt: l.now().Unix(),
		FeePaid:   feePaid,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create interaction: %w", err)
	}
	return id, nil
}

// Complete stores the response of a pending interaction.
func (l *Ledger) Complete(ctx context.Context, id uint64, response string) error {
	return l.finish(ctx, id, domain.InteractionStatusCompleted, response)
}

// Fail records the message shown to the caller for a pending interaction.
func (l *Ledger) Fail(ctx context.Context, id uint64, message string) error {
	return l.finish(ctx, id, domain.InteractionStatusFailed, message)
}

func (l *Ledger) finish(ctx context.Context, id uint64, status domain.InteractionStatus, text string) error {
	ok, err := l.store.FinishInteraction(ctx, id, status, text, l.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to update interaction: %w", err)
	}
	if ok {
		return nil
	}

	in, err := l.store.GetInteraction(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get interaction: %w", err)
	}
	if in == nil {
		return fmt.Errorf("interaction %d: %w", id, domain.ErrInteractionNotFound)
	}
	return fmt.Errorf("interaction %d is %s: %w", id, in.Status, domain.ErrAlreadyTerminal)
}

// Get returns the interaction, or nil, nil when it does not exist.
func (l *Ledger) Get(ctx context.Context, id uint64) (*domain.Interaction, error) {
	in, err := l.store.GetInteraction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get interaction: %w", err)
	}
	return in, nil
}

// ListByAgent returns the interactions of an agent.
func (l *Ledger) ListByAgent(ctx context.Context, agentID uint32) ([]domain.Interaction, error) {
	out, err := l.store.ListInteractionsByAgent(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	return out, nil
}

// ListByCaller returns the interactions submitted by a wallet.
func (l *Ledger) ListByCaller(ctx context.Context, caller string) ([]domain.Interaction, error) {
	out, err := l.store.ListInteractionsByCaller(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	return out, nil
}

// Count returns the number of recorded interactions.
func (l *Ledger) Count(ctx context.Context) (int, error) {
	n, err := l.store.CountInteractions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count interactions: %w", err)
	}
	return n, nil
}

// Prune deletes terminal interactions that finished more than retention ago.
// Pending interactions are never pruned. Timestamps have seconds resolution,
// so a retention below one second is treated as one second.
func (l *Ledger) Prune(ctx context.Context, retention time.Duration) (int, error) {
	if retention < minRetention {
		retention = minRetention
	}
	cutoff := l.now().Add(-retention).Unix()
	n, err := l.store.DeleteFinishedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune interactions: %w", err)
	}
	return n, nil
}
