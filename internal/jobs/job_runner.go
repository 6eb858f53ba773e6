package jobs

import (
	"context"
	"time"

	"farmgear-backend/internal/config"
	"farmgear-backend/internal/logger"
	"farmgear-backend/internal/service"
)

const defaultJobTimeout = 5 * time.Minute

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
	timeout  time.Duration
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Booking service.BookingService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
		timeout:  defaultJobTimeout,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery and a deadline
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) (err error) {
	log := logger.WithComponent("jobs").With("job", jobName)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Job panicked", "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jr.timeout)
	defer cancel()

	log.Info("Starting job")
	start := time.Now()
	if err = jobFunc(ctx); err != nil {
		log.Error("Job failed", "error", err, "duration", time.Since(start))
		return err
	}
	log.Info("Job completed", "duration", time.Since(start))
	return nil
}

// RunAllNightlyJobs runs all nightly jobs (for manual execution)
func (jr *JobRunner) RunAllNightlyJobs() error {
	return jr.ExpireStalePendingOrders()
}
