package queue

import (
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Scheduler periodically enqueues maintenance tasks. Only the retention
// sweep is registered today.
type Scheduler struct {
	scheduler *asynq.Scheduler
	logger    *slog.Logger
}

// NewScheduler creates a scheduler that enqueues the retention sweep once a
// day.
func NewScheduler(redisAddr string) (*Scheduler, error) {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: redisAddr},
		&asynq.SchedulerOpts{},
	)

	entryID, err := scheduler.Register("@every 24h", NewPurgeExpiredTask())
	if err != nil {
		return nil, fmt.Errorf("failed to register purge task: %w", err)
	}

	logger := slog.Default()
	logger.Info("registered retention sweep", "entry_id", entryID, "interval", "24h")

	return &Scheduler{
		scheduler: scheduler,
		logger:    logger,
	}, nil
}

// Run starts the scheduler and blocks until shutdown
func (s *Scheduler) Run() error {
	s.logger.Info("starting task scheduler")
	if err := s.scheduler.Run(); err != nil {
		return fmt.Errorf("scheduler error: %w", err)
	}
	return nil
}

// Shutdown stops the scheduler
func (s *Scheduler) Shutdown() {
	s.logger.Info("shutting down task scheduler")
	s.scheduler.Shutdown()
}
