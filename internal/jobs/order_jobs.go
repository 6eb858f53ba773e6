package jobs

import (
	"context"

	"farmgear-backend/internal/logger"
)

// ExpireStalePendingOrders rejects PENDING orders whose start date has
// passed so their equipment hold is released.
func (jr *JobRunner) ExpireStalePendingOrders() error {
	return jr.runWithRecovery("ExpireStalePendingOrders", func(ctx context.Context) error {
		n, err := jr.services.Booking.ExpireStalePendingOrders(ctx)
		if n > 0 {
			logger.Info("Expired stale pending orders", "count", n)
		}
		return err
	})
}

// expireStalePendingOrdersJob adapts the job to cron's func() signature.
func (jr *JobRunner) expireStalePendingOrdersJob() {
	_ = jr.ExpireStalePendingOrders()
}

// CronJobs maps cron job names to their entry points.
func (jr *JobRunner) CronJobs() map[string]func() {
	return map[string]func(){
		"ExpireStalePendingOrders": jr.expireStalePendingOrdersJob,
	}
}
