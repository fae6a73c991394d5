// Package service dispatches queries to capability handlers and tracks
// their outcome in the interaction ledger.
package service

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/xiaot623/gogo/marketplace/internal/adapter/inference"
	"github.com/xiaot623/gogo/marketplace/internal/config"
	"github.com/xiaot623/gogo/marketplace/internal/domain"
	"github.com/xiaot623/gogo/marketplace/internal/ledger"
	"github.com/xiaot623/gogo/marketplace/internal/metrics"
	"github.com/xiaot623/gogo/marketplace/internal/pool"
	"github.com/xiaot623/gogo/marketplace/policy"
)

const (
	defaultAgentTimeout = 60 * time.Second
	finishTimeout       = 5 * time.Second
)

// AgentSource resolves agents by id.
type AgentSource interface {
	GetAgent(ctx context.Context, id uint32) (*domain.Agent, error)
	ListAgents(ctx context.Context) ([]domain.Agent, error)
}

// InteractionSink is notified when an interaction is created and when it
// reaches a terminal state.
type InteractionSink interface {
	RecordQuery(ctx context.Context, in *domain.Interaction) error
	RecordResponse(ctx context.Context, in *domain.Interaction) error
}

// ModelPool hands out loaded models.
type ModelPool interface {
	Acquire(ctx context.Context, key domain.ModelKey) (inference.Model, error)
	Stats() pool.Stats
}

type Service struct {
	agents       AgentSource
	ledger       *ledger.Ledger
	models       ModelPool
	sink         InteractionSink
	policyEngine *policy.Engine
	metrics      *metrics.Metrics
	config       *config.Config

	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

func New(agents AgentSource, l *ledger.Ledger, models ModelPool, sink InteractionSink, policyEngine *policy.Engine, m *metrics.Metrics, cfg *config.Config) *Service {
	s := &Service{
		agents:       agents,
		ledger:       l,
		models:       models,
		sink:         sink,
		policyEngine: policyEngine,
		metrics:      m,
		config:       cfg,
	}
	if cfg.MaxConcurrentInferences > 0 {
		s.sem = semaphore.NewWeighted(int64(cfg.MaxConcurrentInferences))
	}
	return s
}

// Shutdown waits for in-flight interactions to finish or ctx to end.
func (s *Service) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) debugf(format string, args ...interface{}) {
	if s.config.DebugEnabled() {
		log.Printf(format, args...)
	}
}

func (s *Service) agentTimeout() time.Duration {
	if s.config.AgentTimeout > 0 {
		return s.config.AgentTimeout
	}
	return defaultAgentTimeout
}
