// Package jobs runs periodic maintenance work.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/storedesk/helpdesk/pkg/logger"
)

// jobTimeout bounds a single run of any job.
const jobTimeout = 5 * time.Minute

// Job is one unit of periodic work.
type Job func(ctx context.Context) error

// Scheduler runs named jobs on cron schedules.
type Scheduler struct {
	cron    *cron.Cron
	jobs    map[string]cron.EntryID
	jobsMux sync.Mutex
	logger  *logger.Logger
}

// NewScheduler creates a scheduler. Schedules use the standard five-field
// syntax and descriptors such as "@hourly".
func NewScheduler(log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		jobs:   make(map[string]cron.EntryID),
		logger: log.With(zap.String("component", "scheduler")),
	}
}

// Add registers job under name, replacing any job with the same name.
func (s *Scheduler) Add(name, schedule string, job Job) error {
	s.jobsMux.Lock()
	defer s.jobsMux.Unlock()

	if id, ok := s.jobs[name]; ok {
		s.cron.Remove(id)
		delete(s.jobs, name)
	}

	id, err := s.cron.AddFunc(schedule, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	s.jobs[name] = id

	s.logger.Info("job scheduled", zap.String("job", name), zap.String("schedule", schedule))
	return nil
}

// Start starts the scheduler in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
	}
}

// Jobs returns the names of the scheduled jobs.
func (s *Scheduler) Jobs() []string {
	s.jobsMux.Lock()
	defer s.jobsMux.Unlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

func (s *Scheduler) run(name string, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if err := job(ctx); err != nil {
		s.logger.Error("job failed", zap.String("job", name), zap.Error(err))
		return
	}
	s.logger.Debug("job finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
}
