// Package scheduler runs periodic maintenance jobs on a fixed daily
// schedule.
package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// Scheduler wraps a gocron scheduler with job registration by name. Jobs
// run in gocron's worker goroutine; failures are logged and the schedule
// keeps going.
type Scheduler struct {
	scheduler *gocron.Scheduler
	log       zerolog.Logger
}

// New creates a scheduler. Job times are interpreted in the given location,
// which should be the user's practice timezone so maintenance lands in
// their night.
func New(loc *time.Location, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		log:       log,
	}
}

// Daily registers a job to run once a day at the given "HH:MM" local time.
func (s *Scheduler) Daily(name, at string, job func() error) error {
	_, err := s.scheduler.Every(1).Day().At(at).Do(func() {
		if err := job(); err != nil {
			s.log.Error().Err(err).Str("job", name).Msg("scheduled job failed")
			return
		}
		s.log.Debug().Str("job", name).Msg("scheduled job ran")
	})
	return err
}

// Start launches the scheduler without blocking.
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
