package jobs

import (
	"context"
	"time"

	"toolrent-backend/internal/logger"
)

// SendDepositNotifications emails deposit reminders for bookings whose rental
// starts within the notification window
func (jr *JobRunner) SendDepositNotifications() {
	jr.runWithRecovery("SendDepositNotifications", func() {
		ctx := context.Background()

		sent, err := jr.services.Deposit.RunNotificationSweep(ctx, time.Now().UTC())
		if err != nil {
			logger.Error("Deposit notification sweep failed", "error", err)
			return
		}
		logger.Info("Deposit reminders sent", "count", sent)
	})
}

// CaptureDeposits charges the security deposit for bookings whose rental
// starts within the capture window. Failed charges stay eligible and are
// retried on the next run.
func (jr *JobRunner) CaptureDeposits() {
	jr.runWithRecovery("CaptureDeposits", func() {
		ctx := context.Background()

		captured, err := jr.services.Deposit.RunCaptureSweep(ctx, time.Now().UTC())
		if err != nil {
			logger.Error("Deposit capture sweep failed", "error", err)
			return
		}
		logger.Info("Deposits captured", "count", captured)
	})
}

// PurgeDepositJobs removes settled capture jobs older than the retention window
func (jr *JobRunner) PurgeDepositJobs() {
	jr.runWithRecovery("PurgeDepositJobs", func() {
		ctx := context.Background()

		removed, err := jr.services.Deposit.PurgeJobs(ctx, time.Now().UTC())
		if err != nil {
			logger.Error("Deposit job purge failed", "error", err)
			return
		}
		logger.Info("Purged deposit jobs", "count", removed)
	})
}
