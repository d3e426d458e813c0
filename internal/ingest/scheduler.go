package ingest

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Scheduler reloads the CSV sources on a cron schedule.
type Scheduler struct {
	loader   *Loader
	schedule string
	cron     *cron.Cron
}

// NewScheduler creates a Scheduler running loader on schedule, e.g. "@every 1h".
func NewScheduler(loader *Loader, schedule string) *Scheduler {
	return &Scheduler{
		loader:   loader,
		schedule: schedule,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
}

// Start registers the reload job and starts the cron runner.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.loader.LoadAll(ctx)
	}); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", s.schedule, err)
	}
	log.Printf("Starting CSV reload scheduler with schedule: %s", s.schedule)
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for a running reload to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
