package domain

import "time"

type DepositJobStatus string

const (
	DepositJobScheduled        DepositJobStatus = "scheduled"
	DepositJobNotificationSent DepositJobStatus = "notification_sent"
	DepositJobCapturing        DepositJobStatus = "capturing"
	DepositJobSuccess          DepositJobStatus = "success"
	DepositJobFailed           DepositJobStatus = "failed"
	DepositJobCancelled        DepositJobStatus = "cancelled"
)

// IsTerminalDepositJob reports whether a deposit job is finished. Terminal
// rows are purged after the retention window; failed jobs stay live so the
// capture sweep can retry them.
func IsTerminalDepositJob(s DepositJobStatus) bool {
	return s == DepositJobSuccess || s == DepositJobCancelled
}

// Metadata keys stored on a deposit capture job.
const (
	DepositMetaAmountCents    = "amount_cents"
	DepositMetaCurrency       = "currency"
	DepositMetaRenterEmail    = "renter_email"
	DepositMetaToolName       = "tool_name"
	DepositMetaCustomerID     = "customer_id"
	DepositMetaNotifyAt       = "notify_at"
	DepositMetaCaptureAt      = "capture_at"
	DepositMetaChargeIntentID = "charge_intent_id"
)

// DepositCaptureJob tracks the automated deposit hold for one booking:
// notify the renter 48h before the rental starts, charge the deposit 24h
// before. One live job per booking.
type DepositCaptureJob struct {
	ID                 string            `json:"id"`
	BookingID          string            `json:"booking_id"`
	ScheduledAt        time.Time         `json:"scheduled_at"`
	NotificationSentAt *time.Time        `json:"notification_sent_at,omitempty"`
	CaptureAttemptedAt *time.Time        `json:"capture_attempted_at,omitempty"`
	Status             DepositJobStatus  `json:"status"`
	RetryCount         int32             `json:"retry_count"`
	LastError          string            `json:"last_error"`
	Metadata           map[string]string `json:"metadata"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}
