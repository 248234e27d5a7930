package notifications

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Scheduler runs periodic notification maintenance.
type Scheduler struct {
	service   Service
	retention time.Duration
	log       *logrus.Entry
}

func NewScheduler(service Service, retention time.Duration, log *logrus.Entry) *Scheduler {
	return &Scheduler{service: service, retention: retention, log: log}
}

// Start launches the background jobs; they stop when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	// Cleanup read notifications daily at 3 AM
	go s.runDaily(ctx, 3, 0, s.cleanup)
}

func (s *Scheduler) cleanup(ctx context.Context) error {
	n, err := s.service.CleanupOldNotifications(ctx, s.retention)
	if err != nil {
		return err
	}
	cleanupDeleted.Add(float64(n))
	return nil
}

func (s *Scheduler) runDaily(ctx context.Context, hour, minute int, task func(context.Context) error) {
	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		if !next.After(now) {
			next = next.Add(24 * time.Hour)
		}

		timer := time.NewTimer(next.Sub(now))

		select {
		case <-timer.C:
			if err := task(ctx); err != nil {
				s.log.WithError(err).Error("scheduled task failed")
			}
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}
