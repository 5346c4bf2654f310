package janitor

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/rhulha/WebTracker/internal/projects/store"
)

// Scheduler runs periodic storage maintenance: it removes temp files left
// behind by aborted uploads, folds grown history tails into their snapshots
// and re-walks each project to correct usage-cache drift.
type Scheduler struct {
	store      *store.Store
	tempMaxAge time.Duration
	cron       *cron.Cron
}

func NewScheduler(st *store.Store, tempMaxAge time.Duration) *Scheduler {
	return &Scheduler{store: st, tempMaxAge: tempMaxAge}
}

// Start registers the sweep with the given cron spec (seconds field
// included) and starts the scheduler.
func (s *Scheduler) Start(spec string) error {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc(spec, func() {
		s.Sweep(context.Background())
	})
	if err != nil {
		return err
	}

	log.Printf("[janitor] scheduler started spec=%q", spec)
	c.Start()
	s.cron = c
	return nil
}

// Stop halts the scheduler, waiting for a running sweep to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Sweep runs one maintenance pass over every project.
func (s *Scheduler) Sweep(ctx context.Context) {
	runID := uuid.NewString()
	ids, err := s.store.ListProjects()
	if err != nil {
		log.Printf("[janitor] run=%s list projects failed: %v", runID, err)
		return
	}

	removed := 0
	for _, id := range ids {
		n, err := s.store.SweepTemp(ctx, id, s.tempMaxAge)
		if err != nil {
			log.Printf("[janitor] run=%s project=%s temp sweep failed: %v", runID, id, err)
			continue
		}
		removed += n

		if err := s.store.CompactHistory(ctx, id); err != nil {
			log.Printf("[janitor] run=%s project=%s history compaction failed: %v", runID, id, err)
		}
		if _, err := s.store.RefreshUsage(ctx, id); err != nil {
			log.Printf("[janitor] run=%s project=%s usage refresh failed: %v", runID, id, err)
		}
	}

	log.Printf("[janitor] run=%s swept projects=%d temp_removed=%d", runID, len(ids), removed)
}
