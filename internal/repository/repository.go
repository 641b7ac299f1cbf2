package repository

import (
	"context"
	"time"

	"toolrent-backend/internal/domain"
)

// TxManager runs a function inside one database transaction. The transaction
// handle travels in the context, so repository methods called with that
// context participate in the transaction. Returning an error rolls back.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	Update(ctx context.Context, b *domain.Booking) error
	// Delete removes a booking row. Used only as compensating cleanup when
	// payment-intent creation fails right after persisting.
	Delete(ctx context.Context, id string) error
	// FindOverlapping returns PENDING/ACCEPTED bookings of a tool whose
	// [start_date, end_date] interval intersects the given one.
	FindOverlapping(ctx context.Context, toolID string, start, end time.Time) ([]domain.Booking, error)
	ListByRenter(ctx context.Context, renterID string, status string, page, pageSize int32) ([]domain.Booking, int32, error)
	ListByOwner(ctx context.Context, ownerID string, status string, page, pageSize int32) ([]domain.Booking, int32, error)
	// ListDepositNotificationDue returns bookings eligible for a deposit
	// reminder: PENDING/ACCEPTED, deposit capture still PENDING, confirmed
	// deposit payment method, no reminder sent, start date before horizon.
	// The window has no lower bound: bookings missed by an earlier sweep
	// are caught up on the next run.
	ListDepositNotificationDue(ctx context.Context, horizon time.Time) ([]domain.Booking, error)
	// ListDepositCaptureDue returns bookings eligible for a deposit charge:
	// all of the above plus reminder already sent, start date before horizon.
	// FAILED captures stay eligible so the sweep retries them, and like the
	// notification sweep there is no lower bound on start date.
	ListDepositCaptureDue(ctx context.Context, horizon time.Time) ([]domain.Booking, error)
}

type WalletRepository interface {
	Create(ctx context.Context, w *domain.Wallet) error
	GetByID(ctx context.Context, id string) (*domain.Wallet, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error)
	// AddPending credits the pending tranche.
	AddPending(ctx context.Context, walletID string, amountCents int64) error
	// MovePendingToAvailable shifts funds between tranches; fails with a
	// conflict when the pending tranche holds less than amountCents.
	MovePendingToAvailable(ctx context.Context, walletID string, amountCents int64) error
	// DeductAvailable debits the available tranche; fails with a conflict
	// when the balance would go negative.
	DeductAvailable(ctx context.Context, walletID string, amountCents int64) error
	// DeductPending debits the pending tranche; same non-negative guard.
	DeductPending(ctx context.Context, walletID string, amountCents int64) error
}

type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByExternalReference(ctx context.Context, ref string) (*domain.Transaction, error)
	ListByBooking(ctx context.Context, bookingID string) ([]domain.Transaction, error)
	// SumByBookingWalletType totals transaction amounts for one wallet,
	// booking and type. Used to size the pending→available transfer.
	SumByBookingWalletType(ctx context.Context, bookingID, walletID string, txType domain.TransactionType) (int64, error)
	// DeleteRentalIncomeByBooking removes internal RENTAL_INCOME rows after
	// a cancellation. Real money-movement types are never deleted.
	DeleteRentalIncomeByBooking(ctx context.Context, bookingID string) (int64, error)
}

type RefundRepository interface {
	Create(ctx context.Context, r *domain.Refund) error
	GetByID(ctx context.Context, id string) (*domain.Refund, error)
	Update(ctx context.Context, r *domain.Refund) error
	// HasOpenRefund reports whether a PENDING/PROCESSING refund exists for
	// the transaction.
	HasOpenRefund(ctx context.Context, transactionID string) (bool, error)
	ListByBooking(ctx context.Context, bookingID string) ([]domain.Refund, error)
}

type DepositJobRepository interface {
	Create(ctx context.Context, job *domain.DepositCaptureJob) error
	GetByBookingID(ctx context.Context, bookingID string) (*domain.DepositCaptureJob, error)
	Update(ctx context.Context, job *domain.DepositCaptureJob) error
	// DeleteTerminalOlderThan purges success/cancelled jobs updated before
	// the cutoff. Returns the number of rows removed.
	DeleteTerminalOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type ToolRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Tool, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id string) error
}
