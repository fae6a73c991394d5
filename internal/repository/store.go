// Package repository provides storage for interactions.
package repository

import (
	"context"

	"github.com/xiaot623/gogo/marketplace/internal/domain"
)

// Store persists interactions.
type Store interface {
	// CreateInteraction assigns a fresh id to in and stores it.
	CreateInteraction(ctx context.Context, in *domain.Interaction) (uint64, error)

	// GetInteraction returns nil, nil when no interaction has the id.
	GetInteraction(ctx context.Context, id uint64) (*domain.Interaction, error)

	// FinishInteraction moves a pending interaction to a terminal status.
	// It returns false when the interaction is missing or no longer pending.
	FinishInteraction(ctx context.Context, id uint64, status domain.InteractionStatus, text string, completedAt int64) (bool, error)

	// ListInteractionsByAgent returns an agent's interactions in ascending id order.
	ListInteractionsByAgent(ctx context.Context, agentID uint32) ([]domain.Interaction, error)

	// ListInteractionsByCaller returns a caller's interactions in ascending id order.
	ListInteractionsByCaller(ctx context.Context, caller string) ([]domain.Interaction, error)

	// CountInteractions returns the number of stored interactions.
	CountInteractions(ctx context.Context) (int, error)

	// DeleteFinishedBefore removes terminal interactions completed before cutoff.
	DeleteFinishedBefore(ctx context.Context, cutoff int64) (int, error)

	Close() error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
