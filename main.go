package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xiaot623/gogo/marketplace/internal/adapter/chain"
	"github.com/xiaot623/gogo/marketplace/internal/adapter/inference"
	"github.com/xiaot623/gogo/marketplace/internal/config"
	"github.com/xiaot623/gogo/marketplace/internal/domain"
	"github.com/xiaot623/gogo/marketplace/internal/ledger"
	"github.com/xiaot623/gogo/marketplace/internal/metrics"
	"github.com/xiaot623/gogo/marketplace/internal/pool"
	"github.com/xiaot623/gogo/marketplace/internal/registry"
	"github.com/xiaot623/gogo/marketplace/internal/repository"
	"github.com/xiaot623/gogo/marketplace/internal/service"
	"github.com/xiaot623/gogo/marketplace/internal/tracer"
	server "github.com/xiaot623/gogo/marketplace/internal/transport/http"
	"github.com/xiaot623/gogo/marketplace/policy"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting marketplace...")
	log.Printf("Gateway HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Agent service HTTP Port: %d", cfg.AgentPort)
	log.Printf("Blockchain node: %s contract: %s", cfg.BlockchainNodeURL, cfg.ContractAddress)
	log.Printf("Inference mode: %s", cfg.InferenceMode)
	log.Printf("Log level: %s", cfg.LogLevel)

	ctx := context.Background()

	// Initialize tracing
	shutdownTracer, err := tracer.Setup(ctx, cfg.TracingExporter)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	// Initialize store
	var store repository.Store
	if cfg.DatabaseURL != "" {
		log.Printf("Database: %s", cfg.DatabaseURL)
		db, err := repository.NewSQLiteStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize store: %v", err)
		}
		store = db
	} else {
		log.Printf("Database: in-memory")
		store = repository.NewMemoryStore()
	}
	defer store.Close()

	// Initialize agent registry
	agents := registry.NewDefault()
	if cfg.AgentCatalog != "" {
		agents, err = registry.LoadFile(cfg.AgentCatalog)
		if err != nil {
			log.Fatalf("Failed to load agent catalog: %v", err)
		}
	}
	catalog, _ := agents.ListAgents(ctx)
	log.Printf("Loaded %d agents", len(catalog))

	// Initialize policy engine
	policyContent := policy.DefaultPolicy
	if cfg.PolicyFile != "" {
		data, err := os.ReadFile(cfg.PolicyFile)
		if err != nil {
			log.Fatalf("Failed to read policy file: %v", err)
		}
		policyContent = string(data)
	}
	policyEngine, err := policy.NewEngine(ctx, policyContent)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize metrics and model pool
	m := metrics.New()
	models := pool.New(inference.NewLoader(cfg),
		pool.WithLoadTimeout(cfg.ModelLoadTimeout),
		pool.WithDebugLog(cfg.DebugEnabled()),
		pool.WithLoadObserver(func(key domain.ModelKey, elapsed time.Duration, err error) {
			m.ModelLoaded(string(key.Capability), elapsed, err)
		}),
	)

	// Initialize chain simulator
	sim := chain.NewSimulator(cfg.BlockchainNodeURL, cfg.ContractAddress, cfg.PlatformFeePercent)

	// Initialize service
	svc := service.New(agents, ledger.New(store), models, sim, policyEngine, m, cfg)

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	go svc.RunRetentionMonitor(monitorCtx)

	gatewayServer := server.NewGatewayServer(svc, cfg, m)
	agentServer := server.NewAgentServer(svc)

	// Start gateway server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := gatewayServer.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start gateway server: %v", err)
		}
	}()

	// Start agent service server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.AgentPort)
		if err := agentServer.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start agent server: %v", err)
		}
	}()

	log.Printf("Gateway started on port %d", cfg.HTTPPort)
	log.Printf("Agent service started on port %d", cfg.AgentPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down marketplace...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := gatewayServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown gateway server gracefully: %v", err)
	}
	if err := agentServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown agent server gracefully: %v", err)
	}
	stopMonitor()
	if err := svc.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: in-flight interactions did not finish: %v", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown tracer: %v", err)
	}

	log.Println("Marketplace stopped")
}
