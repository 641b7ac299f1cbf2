package service

import (
	"context"
	"time"

	"toolrent-backend/internal/config"
	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/payment"
)

// PlatformParams carries the commercial knobs of the marketplace. Shares are
// basis points of the booking total.
type PlatformParams struct {
	FeeBps           int64
	OwnerShareBps    int64
	PlatformShareBps int64
	DepositBps       int64
	Currency         string
	PlatformUserID   string
	RefundCutoff     time.Duration
	NotifyOffset     time.Duration
	CaptureOffset    time.Duration
	RetryWarnAfter   int32
	JobRetention     time.Duration
}

func ParamsFromConfig(cfg *config.PlatformConfig) PlatformParams {
	return PlatformParams{
		FeeBps:           cfg.FeeBps,
		OwnerShareBps:    cfg.OwnerShareBps,
		PlatformShareBps: cfg.PlatformShareBps,
		DepositBps:       cfg.DepositBps,
		Currency:         cfg.Currency,
		PlatformUserID:   cfg.PlatformUserID,
		RefundCutoff:     time.Duration(cfg.RefundCutoffHours) * time.Hour,
		NotifyOffset:     time.Duration(cfg.DepositNotifyOffsetHours) * time.Hour,
		CaptureOffset:    time.Duration(cfg.DepositCaptureOffsetHours) * time.Hour,
		RetryWarnAfter:   cfg.DepositRetryWarnAfter,
		JobRetention:     time.Duration(cfg.JobRetentionDays) * 24 * time.Hour,
	}
}

// CreateBookingRequest is the input of BookingService.Create. OwnerID is
// derived from the tool when empty.
type CreateBookingRequest struct {
	RenterID      string
	ToolID        string
	StartDate     time.Time
	EndDate       time.Time
	PickupHour    *int
	PaymentMethod string
}

type BookingService interface {
	Create(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error)
	Accept(ctx context.Context, bookingID string) (*domain.Booking, error)
	Reject(ctx context.Context, bookingID, reason, message string) (*domain.Booking, error)
	ValidateCode(ctx context.Context, bookingID, code string) (*domain.Booking, error)
	ConfirmReturn(ctx context.Context, bookingID, renterID string) (*domain.Booking, error)
	ConfirmPickup(ctx context.Context, bookingID, ownerID string) (*domain.Booking, error)
	Get(ctx context.Context, bookingID string) (*domain.Booking, error)
	ListByRenter(ctx context.Context, renterID, status string, page, pageSize int32) ([]domain.Booking, int32, error)
	ListByOwner(ctx context.Context, ownerID, status string, page, pageSize int32) ([]domain.Booking, int32, error)
}

// CancellationService is the single refund code path. All cancellation
// entry points (renter, owner, admin, bulk) end up here.
type CancellationService interface {
	CancelByRenter(ctx context.Context, bookingID, userID, reason, message string) (*domain.Booking, error)
	CancelByOwner(ctx context.Context, bookingID, userID, reason, message string) (*domain.Booking, error)
	CancelByAdmin(ctx context.Context, bookingID, reason, message string) (*domain.Booking, error)
}

// PendingCredit describes one revenue credit into a wallet's pending tranche
// together with the ledger row that records it.
type PendingCredit struct {
	WalletID          string
	AmountCents       int64
	SenderID          string
	RecipientID       string
	BookingID         string
	ExternalReference string
	Description       string
}

type WalletService interface {
	GetOrCreate(ctx context.Context, userID string) (*domain.Wallet, error)
	AddPendingFunds(ctx context.Context, credit PendingCredit) error
	// TransferPendingToAvailable moves the booking's credited amount from
	// pending to available and books a TRANSFER row.
	TransferPendingToAvailable(ctx context.Context, walletID, bookingID string) error
	DeductFunds(ctx context.Context, walletID string, amountCents int64, description string) error
	// ReverseRentalIncome undoes the acceptance credits of a cancelled
	// booking: deducts each RENTAL_INCOME amount from its wallet's pending
	// tranche, then deletes the internal rows.
	ReverseRentalIncome(ctx context.Context, bookingID string) error
	Balance(ctx context.Context, userID string) (*domain.Wallet, error)
}

type DepositService interface {
	StartSetup(ctx context.Context, bookingID string) (*payment.SetupIntent, error)
	ConfirmSetup(ctx context.Context, bookingID, setupIntentID string) error
	// RunNotificationSweep sends deposit reminders for bookings starting
	// within the notify offset. Returns the number of reminders sent.
	RunNotificationSweep(ctx context.Context, now time.Time) (int, error)
	// RunCaptureSweep charges the deposit for bookings starting within the
	// capture offset. Returns the number of successful captures.
	RunCaptureSweep(ctx context.Context, now time.Time) (int, error)
	// PurgeJobs removes terminal capture jobs older than the retention
	// window. Returns the number of rows removed.
	PurgeJobs(ctx context.Context, now time.Time) (int64, error)
	// RefundDeposit releases a captured deposit. Returns the gateway refund id.
	RefundDeposit(ctx context.Context, bookingID, adminID string) (string, error)
}

// EmailService sends booking and deposit lifecycle mail. All sends are
// fire-and-forget from the caller's point of view: failures are logged,
// never propagated.
type EmailService interface {
	SendBookingCreated(ctx context.Context, ownerEmail, renterName, toolName string) error
	SendBookingAccepted(ctx context.Context, renterEmail, toolName, validationCode string) error
	SendBookingStarted(ctx context.Context, renterEmail, toolName string) error
	SendBookingCancelled(ctx context.Context, email, toolName, reason string) error
	SendDepositReminder(ctx context.Context, renterEmail, toolName string, amountCents int64, captureAt time.Time) error
	SendDepositCaptured(ctx context.Context, renterEmail, toolName string, amountCents int64) error
	SendDepositFailed(ctx context.Context, renterEmail, toolName, reason string) error
}

// AdminNotifier records structured operational alerts for the back office.
type AdminNotifier interface {
	Alert(ctx context.Context, title, message, alertType string, priority domain.NotificationPriority, category string) error
}
