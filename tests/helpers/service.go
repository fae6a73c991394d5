package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/xiaot623/gogo/marketplace/internal/adapter/chain"
	"github.com/xiaot623/gogo/marketplace/internal/adapter/inference"
	"github.com/xiaot623/gogo/marketplace/internal/config"
	"github.com/xiaot623/gogo/marketplace/internal/ledger"
	"github.com/xiaot623/gogo/marketplace/internal/metrics"
	"github.com/xiaot623/gogo/marketplace/internal/pool"
	"github.com/xiaot623/gogo/marketplace/internal/registry"
	"github.com/xiaot623/gogo/marketplace/internal/repository"
	"github.com/xiaot623/gogo/marketplace/internal/service"
	"github.com/xiaot623/gogo/marketplace/policy"
)

// ServiceOptions overrides parts of the test service.
type ServiceOptions struct {
	Loader inference.Loader
	Agents *registry.Registry
	Config func(*config.Config)
}

// NewTestService builds a service over an in-memory SQLite ledger with the
// mock inference backend and the default catalog.
func NewTestService(t *testing.T, opts ServiceOptions) (*service.Service, repository.Store) {
	t.Helper()

	if opts.Loader == nil {
		opts.Loader = inference.NewMockLoader(0)
	}
	if opts.Agents == nil {
		opts.Agents = registry.NewDefault()
	}

	cfg := &config.Config{
		AgentTimeout:  2 * time.Second,
		EstimatedTime: 5,
		MaxQueryChars: 20000,
	}
	if opts.Config != nil {
		opts.Config(cfg)
	}

	policyEngine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	db := NewTestSQLiteStore(t)
	sim := chain.NewSimulator("http://localhost:9944", "contract", 5)
	svc := service.New(opts.Agents, ledger.New(db), pool.New(opts.Loader), sim, policyEngine, metrics.New(), cfg)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Shutdown(ctx)
	})

	return svc, db
}
