package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/AbdulWasayUl/country-currency-api/internal/logger"
	"github.com/go-co-op/gocron"
)

var ErrInvalidInterval = errors.New("refresh interval must be positive")

type SchedulableService interface {
	RunBatchJob(ctx context.Context) error
}

type Scheduler struct {
	Cron *gocron.Scheduler
}

func New() (*Scheduler, error) {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		Cron: s,
	}, nil
}

// StartJob runs every service each intervalMinutes. The first run happens
// one interval after start.
func (s *Scheduler) StartJob(ctx context.Context, intervalMinutes int, services []SchedulableService) error {
	if intervalMinutes <= 0 {
		return ErrInvalidInterval
	}

	_, err := s.Cron.Every(intervalMinutes).Minutes().WaitForSchedule().Do(func() {
		s.runAllJobs(ctx, services)
	})
	if err != nil {
		logger.Error("Failed to schedule job: %v", err)
		return err
	}

	s.Cron.StartAsync()
	return nil
}

func (s *Scheduler) runAllJobs(ctx context.Context, services []SchedulableService) {
	logger.Info("--- Scheduled Refresh Started ---")
	defer logger.Info("--- Scheduled Refresh Finished ---")

	for _, service := range services {
		if err := service.RunBatchJob(ctx); err != nil {
			logger.Error("Error running batch job for service: %v", err)
		}
	}
}

func (s *Scheduler) RunImmediateJob(ctx context.Context, services []SchedulableService) {
	logger.Info("--- Immediate Refresh Started ---")
	defer logger.Info("--- Immediate Refresh Finished ---")

	s.runAllJobs(ctx, services)
}

func (s *Scheduler) Stop() {
	s.Cron.Stop()
}
