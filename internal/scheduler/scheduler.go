package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"bankcards/internal/logging"
	"bankcards/internal/service"
)

// Sweeper runs one expiration pass.
type Sweeper interface {
	RunExpirationSweep(ctx context.Context) (service.SweepResult, error)
}

// Scheduler runs background jobs on cron schedules.
type Scheduler struct {
	cron *cron.Cron
	log  logrus.FieldLogger
}

// New creates a scheduler evaluating schedules in location.
func New(location *time.Location, log logrus.FieldLogger) *Scheduler {
	cronLog := logging.CronLogger{Logger: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(location),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		log: log,
	}
}

// RegisterSweep runs sweeper on spec. Each run gets its own timeout; failures
// are logged and retried on the next tick.
func (s *Scheduler) RegisterSweep(spec string, sweeper Sweeper, timeout time.Duration) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		result, err := sweeper.RunExpirationSweep(ctx)
		if err != nil {
			s.log.WithError(err).Error("scheduled expiration sweep failed, will retry on next tick")
			return
		}
		s.log.WithFields(logrus.Fields{
			"checked": result.Checked,
			"expired": result.Expired,
			"skipped": result.Skipped,
		}).Debug("scheduled expiration sweep finished")
	})
	if err != nil {
		return fmt.Errorf("register sweep %q: %w", spec, err)
	}
	return nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
