package flowstate

import (
	"context"
	"time"

	"github.com/refactron/auth-front/internal/log"
)

// Sweeper periodically removes abandoned flow slots from stores without
// native TTL support (memory, firestore). Redis expires keys on its own.
type Sweeper struct {
	sweep    func(ctx context.Context, now time.Time) int
	interval time.Duration
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewSweeper creates a sweeper around a store-specific sweep function
func NewSweeper(interval time.Duration, sweep func(ctx context.Context, now time.Time) int) *Sweeper {
	return &Sweeper{
		sweep:    sweep,
		interval: interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start begins the sweep loop in a goroutine
func (s *Sweeper) Start(ctx context.Context) {
	log.LogInfoWithFields("flowstate", "Starting expired flow sweeper", map[string]any{
		"interval": s.interval.String(),
	})

	go s.run(ctx)
}

// Stop gracefully stops the sweep loop
func (s *Sweeper) Stop() {
	close(s.stopChan)
	<-s.doneChan
	log.Logf("Expired flow sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.doneChan)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	count := s.sweep(ctx, time.Now())
	if count > 0 {
		log.LogInfoWithFields("flowstate", "Swept expired flows", map[string]any{
			"count": count,
		})
	}
}
