// Package scheduler runs the nightly history materialization. Running it
// shortly after midnight means yesterday's snapshots exist before the first
// morning read, so the common "year to date" request stays on the fast path.
package scheduler

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/jkoster/folio-backend/internal/service"
)

// Scheduler wraps a cron runner around the materializer.
type Scheduler struct {
	cron *cron.Cron
}

// New creates a scheduler that materializes all portfolios on the given cron
// spec (standard 5-field format).
func New(cronSpec string, materializer *service.Materializer) (*Scheduler, error) {
	c := cron.New()

	_, err := c.AddFunc(cronSpec, func() {
		summary, err := materializer.MaterializeAll(context.Background(), false)
		if err != nil {
			log.Printf("scheduled materialization failed: %v", err)
			return
		}
		log.Printf("scheduled materialization: %d portfolios, %d written, %d existing, %d skipped, %d failed",
			summary.Portfolios, summary.Written, summary.Existing, summary.Skipped, summary.Failed)
	})
	if err != nil {
		return nil, err
	}

	return &Scheduler{cron: c}, nil
}

// Start begins running scheduled jobs in their own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels future runs and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
