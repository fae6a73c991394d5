package service

import (
	"context"
	"log"
	"time"
)

const maxRetentionSweepInterval = time.Minute

// RunRetentionMonitor prunes terminal interactions older than the
// configured retention until ctx ends. It returns at once when retention
// is disabled.
func (s *Service) RunRetentionMonitor(ctx context.Context) {
	retention := s.config.InteractionRetention
	if retention <= 0 {
		return
	}

	interval := retention / 2
	if interval > maxRetentionSweepInterval {
		interval = maxRetentionSweepInterval
	}
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepRetention(ctx)
		}
	}
}

func (s *Service) sweepRetention(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	n, err := s.ledger.Prune(sweepCtx, s.config.InteractionRetention)
	if err != nil {
		log.Printf("WARN: interaction retention sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("INFO: pruned %d interactions older than %s", n, s.config.InteractionRetention)
	}
}
