package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/payment"
)

type cancelFixture struct {
	bookingRepo *MockBookingRepo
	txRepo      *MockTransactionRepo
	refundRepo  *MockRefundRepo
	userRepo    *MockUserRepo
	toolRepo    *MockToolRepo
	walletSvc   *MockWalletService
	gateway     *MockGateway
	emailSvc    *MockEmailService
	notifier    *MockAdminNotifier
	svc         *cancellationService
}

func newCancelFixture(now time.Time) *cancelFixture {
	f := &cancelFixture{
		bookingRepo: new(MockBookingRepo),
		txRepo:      new(MockTransactionRepo),
		refundRepo:  new(MockRefundRepo),
		userRepo:    new(MockUserRepo),
		toolRepo:    new(MockToolRepo),
		walletSvc:   new(MockWalletService),
		gateway:     new(MockGateway),
		emailSvc:    new(MockEmailService),
		notifier:    new(MockAdminNotifier),
	}
	f.svc = &cancellationService{
		bookingRepo: f.bookingRepo,
		txRepo:      f.txRepo,
		refundRepo:  f.refundRepo,
		userRepo:    f.userRepo,
		toolRepo:    f.toolRepo,
		walletSvc:   f.walletSvc,
		txm:         fakeTxManager{},
		gateway:     f.gateway,
		emailSvc:    f.emailSvc,
		notifier:    f.notifier,
		cutoff:      24 * time.Hour,
		now:         func() time.Time { return now },
	}
	return f
}

// expectPostCommit wires the best-effort cleanup every successful
// cancellation triggers.
func (f *cancelFixture) expectPostCommit(ctx context.Context, bookingID string) {
	f.walletSvc.On("ReverseRentalIncome", ctx, bookingID).Return(nil)
	f.userRepo.On("GetByID", ctx, mock.AnythingOfType("string")).Return(&domain.User{Email: "user@test.com"}, nil)
	f.toolRepo.On("GetByID", ctx, mock.AnythingOfType("string")).Return(&domain.Tool{Name: "Saw"}, nil)
	f.emailSvc.On("SendBookingCancelled", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("Alert", ctx, mock.Anything, mock.Anything, "BOOKING_CANCELLED", domain.NotificationPriorityNormal, "bookings").Return(nil)
}

func acceptedBookingAt(pickup time.Time) *domain.Booking {
	hour := pickup.Hour()
	return &domain.Booking{
		ID:              "b-1",
		RenterID:        "renter-1",
		OwnerID:         "owner-1",
		ToolID:          "tool-1",
		StartDate:       time.Date(pickup.Year(), pickup.Month(), pickup.Day(), 0, 0, 0, 0, time.UTC),
		PickupHour:      &hour,
		TotalPriceCents: 7950,
		PaymentIntentID: "pi_1",
		Status:          domain.BookingStatusAccepted,
	}
}

func TestCancellationService_CancelByRenter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Early Cancellation Refunds Captured Payment", func(t *testing.T) {
		f := newCancelFixture(now)
		booking := acceptedBookingAt(now.Add(48 * time.Hour))
		f.bookingRepo.On("GetByID", ctx, "b-1").Return(booking, nil)
		f.gateway.On("GetPaymentIntent", ctx, "pi_1").
			Return(&payment.PaymentIntent{ID: "pi_1", Status: payment.IntentStatusSucceeded}, nil)
		f.txRepo.On("GetByExternalReference", ctx, "pi_1").
			Return(&domain.Transaction{ID: "t-1", ExternalReference: "pi_1"}, nil)
		f.refundRepo.On("HasOpenRefund", ctx, "t-1").Return(false, nil)
		f.refundRepo.On("Create", ctx, mock.MatchedBy(func(r *domain.Refund) bool {
			return r.Status == domain.RefundStatusPending &&
				r.RefundAmountCents == 7950 &&
				r.Reason == domain.RefundReasonRenterCancellation
		})).Return(nil)
		f.refundRepo.On("Update", ctx, mock.AnythingOfType("*domain.Refund")).Return(nil)
		f.gateway.On("CreateRefund", ctx, "pi_1", int64(7950)).
			Return(&payment.RefundResult{ID: "re_1", Status: "succeeded"}, nil)
		f.bookingRepo.On("Update", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil)
		f.expectPostCommit(ctx, "b-1")

		res, err := f.svc.CancelByRenter(ctx, "b-1", "renter-1", "change of plans", "")
		assert.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCancelled, res.Status)
		assert.Equal(t, int64(7950), res.RefundAmountCents)
		assert.Equal(t, domain.PaymentStatusRefunded, res.PaymentStatus)
		f.refundRepo.AssertExpectations(t)
		f.walletSvc.AssertCalled(t, "ReverseRentalIncome", ctx, "b-1")
	})

	t.Run("Late Cancellation Forfeits Refund", func(t *testing.T) {
		f := newCancelFixture(now)
		booking := acceptedBookingAt(now.Add(10 * time.Hour))
		f.bookingRepo.On("GetByID", ctx, "b-1").Return(booking, nil)
		f.gateway.On("GetPaymentIntent", ctx, "pi_1").
			Return(&payment.PaymentIntent{ID: "pi_1", Status: payment.IntentStatusSucceeded}, nil)
		f.bookingRepo.On("Update", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil)
		f.expectPostCommit(ctx, "b-1")

		res, err := f.svc.CancelByRenter(ctx, "b-1", "renter-1", "change of plans", "")
		assert.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCancelled, res.Status)
		assert.Equal(t, int64(0), res.RefundAmountCents)
		assert.Equal(t, "late cancellation", res.RefundReason)
		f.gateway.AssertNotCalled(t, "CreateRefund", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Exactly At Cutoff Still Refunds", func(t *testing.T) {
		f := newCancelFixture(now)
		booking := acceptedBookingAt(now.Add(24 * time.Hour))
		booking.PaymentIntentID = ""
		f.bookingRepo.On("GetByID", ctx, "b-1").Return(booking, nil)
		f.bookingRepo.On("Update", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil)
		f.expectPostCommit(ctx, "b-1")

		res, err := f.svc.CancelByRenter(ctx, "b-1", "renter-1", "reason", "")
		assert.NoError(t, err)
		assert.Equal(t, int64(7950), res.RefundAmountCents)
	})

	t.Run("Pending Booking Cancels Authorization Hold", func(t *testing.T) {
		f := newCancelFixture(now)
		booking := acceptedBookingAt(now.Add(10 * time.Hour))
		booking.Status = domain.BookingStatusPending
		f.bookingRepo.On("GetByID", ctx, "b-1").Return(booking, nil)
		f.gateway.On("GetPaymentIntent", ctx, "pi_1").
			Return(&payment.PaymentIntent{ID: "pi_1", Status: payment.IntentStatusRequiresCapture}, nil)
		f.gateway.On("CancelPaymentIntent", ctx, "pi_1").Return(nil)
		f.bookingRepo.On("Update", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil)
		f.expectPostCommit(ctx, "b-1")

		res, err := f.svc.CancelByRenter(ctx, "b-1", "renter-1", "reason", "")
		assert.NoError(t, err)
		// Pending bookings refund in full regardless of timing.
		assert.Equal(t, int64(7950), res.RefundAmountCents)
		assert.Equal(t, domain.PaymentStatusCancelled, res.PaymentStatus)
	})

	t.Run("Wrong Renter", func(t *testing.T) {
		f := newCancelFixture(now)
		f.bookingRepo.On("GetByID", ctx, "b-1").Return(acceptedBookingAt(now.Add(48*time.Hour)), nil)

		_, err := f.svc.CancelByRenter(ctx, "b-1", "impostor", "reason", "")
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("Ongoing Booking Not Cancellable By Renter", func(t *testing.T) {
		f := newCancelFixture(now)
		booking := acceptedBookingAt(now.Add(48 * time.Hour))
		booking.Status = domain.BookingStatusOngoing
		f.bookingRepo.On("GetByID", ctx, "b-1").Return(booking, nil)

		_, err := f.svc.CancelByRenter(ctx, "b-1", "renter-1", "reason", "")
		assert.True(t, domain.IsConflict(err))
	})

	t.Run("Terminal Booking", func(t *testing.T) {
		f := newCancelFixture(now)
		booking := acceptedBookingAt(now.Add(48 * time.Hour))
		booking.Status = domain.BookingStatusCancelled
		f.bookingRepo.On("GetByID", ctx, "b-1").Return(booking, nil)

		_, err := f.svc.CancelByRenter(ctx, "b-1", "renter-1", "reason", "")
		assert.True(t, domain.IsConflict(err))
	})
}

func TestCancellationService_CancelByOwner(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Pending Becomes Rejected", func(t *testing.T) {
		f := newCancelFixture(now)
		booking := acceptedBookingAt(now.Add(2 * time.Hour))
		booking.Status = domain.BookingStatusPending
		booking.PaymentIntentID = ""
		f.bookingRepo.On("GetByID", ctx, "b-1").Return(booking, nil)
		f.bookingRepo.On("Update", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil)
		f.expectPostCommit(ctx, "b-1")

		res, err := f.svc.CancelByOwner(ctx, "b-1", "owner-1", "tool broken", "the saw died")
		assert.NoError(t, err)
		assert.Equal(t, domain.BookingStatusRejected, res.Status)
		assert.Equal(t, "tool broken", res.RefusalReason)
		assert.Equal(t, "the saw died", res.RefusalMessage)
		// Owner cancellations always refund in full, even inside the cutoff.
		assert.Equal(t, int64(7950), res.RefundAmountCents)
	})

	t.Run("Accepted Becomes Cancelled", func(t *testing.T) {
		f := newCancelFixture(now)
		booking := acceptedBookingAt(now.Add(2 * time.Hour))
		booking.PaymentIntentID = ""
		f.bookingRepo.On("GetByID", ctx, "b-1").Return(booking, nil)
		f.bookingRepo.On("Update", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil)
		f.expectPostCommit(ctx, "b-1")

		res, err := f.svc.CancelByOwner(ctx, "b-1", "owner-1", "tool broken", "")
		assert.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCancelled, res.Status)
		assert.Equal(t, "tool broken", res.CancellationReason)
		assert.Equal(t, int64(7950), res.RefundAmountCents)
	})

	t.Run("Wrong Owner", func(t *testing.T) {
		f := newCancelFixture(now)
		f.bookingRepo.On("GetByID", ctx, "b-1").Return(acceptedBookingAt(now.Add(2*time.Hour)), nil)

		_, err := f.svc.CancelByOwner(ctx, "b-1", "impostor", "reason", "")
		assert.True(t, domain.IsValidation(err))
	})
}

func TestCancellationService_CancelByAdmin(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Force Cancels Ongoing Booking", func(t *testing.T) {
		f := newCancelFixture(now)
		booking := acceptedBookingAt(now.Add(-2 * time.Hour))
		booking.Status = domain.BookingStatusOngoing
		booking.PaymentIntentID = ""
		f.bookingRepo.On("GetByID", ctx, "b-1").Return(booking, nil)
		f.bookingRepo.On("Update", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil)
		f.expectPostCommit(ctx, "b-1")

		res, err := f.svc.CancelByAdmin(ctx, "b-1", "fraud report", "")
		assert.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCancelled, res.Status)
		assert.Equal(t, int64(7950), res.RefundAmountCents)
	})

	t.Run("Completed Booking Refused", func(t *testing.T) {
		f := newCancelFixture(now)
		booking := acceptedBookingAt(now.Add(2 * time.Hour))
		booking.Status = domain.BookingStatusCompleted
		f.bookingRepo.On("GetByID", ctx, "b-1").Return(booking, nil)

		_, err := f.svc.CancelByAdmin(ctx, "b-1", "reason", "")
		assert.True(t, domain.IsConflict(err))
	})
}

func TestCancellationService_PaymentEdgeCases(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Payment Method Id Skips Gateway", func(t *testing.T) {
		f := newCancelFixture(now)
		booking := acceptedBookingAt(now.Add(48 * time.Hour))
		booking.PaymentIntentID = "pm_legacy_row"
		f.bookingRepo.On("GetByID", ctx, "b-1").Return(booking, nil)
		f.bookingRepo.On("Update", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil)
		f.expectPostCommit(ctx, "b-1")

		res, err := f.svc.CancelByRenter(ctx, "b-1", "renter-1", "reason", "")
		assert.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCancelled, res.Status)
		f.gateway.AssertNotCalled(t, "GetPaymentIntent", mock.Anything, mock.Anything)
	})

	t.Run("Gateway Outage Does Not Block Cancellation", func(t *testing.T) {
		f := newCancelFixture(now)
		booking := acceptedBookingAt(now.Add(48 * time.Hour))
		f.bookingRepo.On("GetByID", ctx, "b-1").Return(booking, nil)
		f.gateway.On("GetPaymentIntent", ctx, "pi_1").Return(nil, errors.New("gateway timeout"))
		f.bookingRepo.On("Update", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil)
		f.expectPostCommit(ctx, "b-1")

		res, err := f.svc.CancelByRenter(ctx, "b-1", "renter-1", "reason", "")
		assert.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCancelled, res.Status)
	})

	t.Run("Duplicate Open Refund Conflicts", func(t *testing.T) {
		f := newCancelFixture(now)
		booking := acceptedBookingAt(now.Add(48 * time.Hour))
		f.bookingRepo.On("GetByID", ctx, "b-1").Return(booking, nil)
		f.gateway.On("GetPaymentIntent", ctx, "pi_1").
			Return(&payment.PaymentIntent{ID: "pi_1", Status: payment.IntentStatusSucceeded}, nil)
		f.txRepo.On("GetByExternalReference", ctx, "pi_1").
			Return(&domain.Transaction{ID: "t-1"}, nil)
		f.refundRepo.On("HasOpenRefund", ctx, "t-1").Return(true, nil)

		_, err := f.svc.CancelByRenter(ctx, "b-1", "renter-1", "reason", "")
		assert.True(t, domain.IsConflict(err))
		f.refundRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Missing Ledger Row Falls Back To Direct Refund", func(t *testing.T) {
		f := newCancelFixture(now)
		booking := acceptedBookingAt(now.Add(48 * time.Hour))
		f.bookingRepo.On("GetByID", ctx, "b-1").Return(booking, nil)
		f.gateway.On("GetPaymentIntent", ctx, "pi_1").
			Return(&payment.PaymentIntent{ID: "pi_1", Status: payment.IntentStatusSucceeded}, nil)
		f.txRepo.On("GetByExternalReference", ctx, "pi_1").
			Return(nil, domain.NewNotFoundError("transaction", "pi_1"))
		f.gateway.On("CreateRefund", ctx, "pi_1", int64(0)).
			Return(&payment.RefundResult{ID: "re_2", Status: "succeeded"}, nil)
		f.bookingRepo.On("Update", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil)
		f.expectPostCommit(ctx, "b-1")

		res, err := f.svc.CancelByRenter(ctx, "b-1", "renter-1", "reason", "")
		assert.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusRefunded, res.PaymentStatus)
		f.refundRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Failed Gateway Refund Marks Refund Failed", func(t *testing.T) {
		f := newCancelFixture(now)
		booking := acceptedBookingAt(now.Add(48 * time.Hour))
		f.bookingRepo.On("GetByID", ctx, "b-1").Return(booking, nil)
		f.gateway.On("GetPaymentIntent", ctx, "pi_1").
			Return(&payment.PaymentIntent{ID: "pi_1", Status: payment.IntentStatusSucceeded}, nil)
		f.txRepo.On("GetByExternalReference", ctx, "pi_1").
			Return(&domain.Transaction{ID: "t-1"}, nil)
		f.refundRepo.On("HasOpenRefund", ctx, "t-1").Return(false, nil)
		f.refundRepo.On("Create", ctx, mock.AnythingOfType("*domain.Refund")).Return(nil)

		var final domain.RefundStatus
		f.refundRepo.On("Update", ctx, mock.MatchedBy(func(r *domain.Refund) bool {
			final = r.Status
			return true
		})).Return(nil)
		f.gateway.On("CreateRefund", ctx, "pi_1", int64(7950)).
			Return(nil, errors.New("refund declined"))
		f.bookingRepo.On("Update", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil)
		f.expectPostCommit(ctx, "b-1")

		res, err := f.svc.CancelByRenter(ctx, "b-1", "renter-1", "reason", "")
		assert.NoError(t, err)
		// The booking still cancels; only the refund record carries the failure.
		assert.Equal(t, domain.BookingStatusCancelled, res.Status)
		assert.Equal(t, domain.RefundStatusFailed, final)
		assert.NotEqual(t, domain.PaymentStatusRefunded, res.PaymentStatus)
	})
}
