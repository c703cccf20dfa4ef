// Package scheduler runs periodic maintenance for the job board.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// EventPruner removes old activity events.
type EventPruner interface {
	PruneEvents(ctx context.Context, before time.Time) (int64, error)
}

// Scheduler runs maintenance tasks on a cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	pruner    EventPruner
	retention time.Duration
	timeout   time.Duration
	now       func() time.Time
}

// New creates a scheduler that prunes events older than retention on the
// given cron expression (standard five fields or descriptors like @daily).
// A zero retention disables pruning.
func New(pruner EventPruner, schedule string, retention time.Duration) (*Scheduler, error) {
	s := &Scheduler{
		cron:      cron.New(),
		pruner:    pruner,
		retention: retention,
		timeout:   time.Minute,
		now:       time.Now,
	}
	if retention <= 0 {
		return s, nil
	}

	if _, err := s.cron.AddFunc(schedule, s.runPrune); err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs one prune immediately and then hands off to the cron loop.
func (s *Scheduler) Start() {
	log.Info().Dur("event_retention", s.retention).Int("tasks", len(s.cron.Entries())).Msg("Starting background scheduler")
	if s.retention > 0 {
		go s.runPrune()
	}
	s.cron.Start()
}

// Stop halts the scheduler. The returned context is done once running
// tasks have finished.
func (s *Scheduler) Stop() context.Context {
	log.Info().Msg("Stopping background scheduler")
	return s.cron.Stop()
}

// PruneOnce deletes events older than the retention window.
func (s *Scheduler) PruneOnce(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.retention)
	return s.pruner.PruneEvents(ctx, cutoff)
}

func (s *Scheduler) runPrune() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.PruneOnce(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Scheduler: failed to prune events")
		return
	}
	if n > 0 {
		log.Info().Int64("removed", n).Msg("Scheduler: pruned old events")
	}
}
