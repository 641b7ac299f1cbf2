package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/logger"
	"toolrent-backend/internal/payment"
	"toolrent-backend/internal/repository"
)

type cancelActor int

const (
	actorRenter cancelActor = iota
	actorOwner
	actorAdmin
)

func (a cancelActor) String() string {
	switch a {
	case actorRenter:
		return "renter"
	case actorOwner:
		return "owner"
	default:
		return "admin"
	}
}

type cancelRequest struct {
	bookingID string
	actor     cancelActor
	userID    string
	reason    string
	message   string
}

// cancellationService implements the one shared refund code path. The three
// entry points differ only in authorization and refund eligibility.
type cancellationService struct {
	bookingRepo repository.BookingRepository
	txRepo      repository.TransactionRepository
	refundRepo  repository.RefundRepository
	userRepo    repository.UserRepository
	toolRepo    repository.ToolRepository
	walletSvc   WalletService
	txm         repository.TxManager
	gateway     payment.Gateway
	emailSvc    EmailService
	notifier    AdminNotifier
	cutoff      time.Duration
	now         func() time.Time
}

func NewCancellationService(
	bookingRepo repository.BookingRepository,
	txRepo repository.TransactionRepository,
	refundRepo repository.RefundRepository,
	userRepo repository.UserRepository,
	toolRepo repository.ToolRepository,
	walletSvc WalletService,
	txm repository.TxManager,
	gateway payment.Gateway,
	emailSvc EmailService,
	notifier AdminNotifier,
	params PlatformParams,
) CancellationService {
	return &cancellationService{
		bookingRepo: bookingRepo,
		txRepo:      txRepo,
		refundRepo:  refundRepo,
		userRepo:    userRepo,
		toolRepo:    toolRepo,
		walletSvc:   walletSvc,
		txm:         txm,
		gateway:     gateway,
		emailSvc:    emailSvc,
		notifier:    notifier,
		cutoff:      params.RefundCutoff,
		now:         time.Now,
	}
}

func (s *cancellationService) CancelByRenter(ctx context.Context, bookingID, userID, reason, message string) (*domain.Booking, error) {
	return s.cancel(ctx, cancelRequest{bookingID: bookingID, actor: actorRenter, userID: userID, reason: reason, message: message})
}

func (s *cancellationService) CancelByOwner(ctx context.Context, bookingID, userID, reason, message string) (*domain.Booking, error) {
	return s.cancel(ctx, cancelRequest{bookingID: bookingID, actor: actorOwner, userID: userID, reason: reason, message: message})
}

func (s *cancellationService) CancelByAdmin(ctx context.Context, bookingID, reason, message string) (*domain.Booking, error) {
	return s.cancel(ctx, cancelRequest{bookingID: bookingID, actor: actorAdmin, reason: reason, message: message})
}

func (s *cancellationService) cancel(ctx context.Context, req cancelRequest) (*domain.Booking, error) {
	var booking *domain.Booking
	var eligible bool

	err := s.txm.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.bookingRepo.GetByID(ctx, req.bookingID)
		if err != nil {
			return err
		}
		if domain.IsTerminal(b.Status) {
			return domain.NewConflictError("booking %s cannot be cancelled because it is %s", b.ID, b.Status)
		}

		switch req.actor {
		case actorRenter:
			if b.RenterID != req.userID {
				return domain.NewValidationError("only the renter can cancel this booking")
			}
			if b.Status != domain.BookingStatusPending && b.Status != domain.BookingStatusAccepted {
				return domain.NewConflictError("booking %s cannot be cancelled by the renter because it is %s", b.ID, b.Status)
			}
		case actorOwner:
			if b.OwnerID != req.userID {
				return domain.NewValidationError("only the owner can cancel this booking")
			}
		case actorAdmin:
			// Admin may force-cancel any non-terminal booking.
		}

		target := domain.BookingStatusCancelled
		if req.actor == actorOwner && b.Status == domain.BookingStatusPending {
			target = domain.BookingStatusRejected
		}
		if !domain.CanTransition(b.Status, target) {
			return domain.NewConflictError("booking %s cannot move from %s to %s", b.ID, b.Status, target)
		}

		eligible = s.refundEligible(req.actor, b)

		now := s.now().UTC()
		b.Status = target
		b.CancelledAt = &now
		if target == domain.BookingStatusRejected {
			b.RefusalReason = req.reason
			b.RefusalMessage = req.message
		} else {
			b.CancellationReason = req.reason
			b.CancellationMessage = req.message
		}
		if eligible {
			b.RefundAmountCents = b.TotalPriceCents
			b.RefundReason = req.reason
		} else {
			b.RefundAmountCents = 0
			b.RefundReason = "late cancellation"
		}

		// The owner/admin path persists before talking to the gateway; the
		// small inconsistency window is acceptable because the gateway calls
		// are idempotent on replay. The renter path defers persisting until
		// the payment side is resolved.
		if req.actor != actorRenter {
			if err := s.bookingRepo.Update(ctx, b); err != nil {
				return err
			}
		}

		if err := s.settlePayment(ctx, b, eligible, req); err != nil {
			return err
		}

		if err := s.bookingRepo.Update(ctx, b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Post-commit cleanup and notifications are best effort.
	if err := s.walletSvc.ReverseRentalIncome(ctx, booking.ID); err != nil {
		logger.Warn("Rental income cleanup failed after cancellation",
			"booking_id", booking.ID, "error", err)
	}
	s.notifyCounterparty(ctx, booking, req)
	s.alertAdmin(ctx, booking, req, eligible)

	return booking, nil
}

// refundEligible applies the time-based refund rule. Owners and admins
// always grant a full refund; renters get one for pending bookings and for
// accepted bookings cancelled at least the cutoff before pickup.
func (s *cancellationService) refundEligible(actor cancelActor, b *domain.Booking) bool {
	if actor != actorRenter {
		return true
	}
	if b.Status == domain.BookingStatusPending {
		return true
	}
	return b.PickupInstant().Sub(s.now()) >= s.cutoff
}

// settlePayment resolves the gateway side of a cancellation. Gateway fetch
// failures are tolerated: an outage must never block the booking-record side
// of the cancellation. Only a duplicate-refund conflict propagates.
func (s *cancellationService) settlePayment(ctx context.Context, b *domain.Booking, eligible bool, req cancelRequest) error {
	if b.PaymentIntentID == "" {
		return nil
	}
	if payment.LooksLikePaymentMethodID(b.PaymentIntentID) {
		logger.Warn("Stored payment reference is a payment-method id, skipping gateway settlement",
			"booking_id", b.ID, "reference", b.PaymentIntentID)
		return nil
	}

	intent, err := s.gateway.GetPaymentIntent(ctx, b.PaymentIntentID)
	if err != nil {
		logger.Warn("Gateway fetch failed during cancellation, proceeding without payment settlement",
			"booking_id", b.ID, "payment_intent_id", b.PaymentIntentID, "error", err)
		return nil
	}

	switch intent.Status {
	case payment.IntentStatusRequiresCapture:
		// Authorized but not captured: release the hold, no refund object.
		if err := s.gateway.CancelPaymentIntent(ctx, intent.ID); err != nil {
			logger.Error("Could not cancel authorization hold",
				"booking_id", b.ID, "payment_intent_id", intent.ID, "error", err)
			return nil
		}
		b.PaymentStatus = domain.PaymentStatusCancelled
	case payment.IntentStatusSucceeded:
		if !eligible {
			return nil
		}
		return s.refundCaptured(ctx, b, intent, req)
	default:
		logger.Info("Payment intent in no-op state during cancellation",
			"booking_id", b.ID, "intent_status", intent.Status)
	}
	return nil
}

// refundCaptured creates and immediately processes a refund for a captured
// payment. When no ledger transaction matches the intent, the refund goes
// straight to the gateway without a Refund record.
func (s *cancellationService) refundCaptured(ctx context.Context, b *domain.Booking, intent *payment.PaymentIntent, req cancelRequest) error {
	ledgerTx, err := s.txRepo.GetByExternalReference(ctx, b.PaymentIntentID)
	if err != nil {
		if !domain.IsNotFound(err) {
			return err
		}
		res, rerr := s.gateway.CreateRefund(ctx, intent.ID, 0)
		if rerr != nil {
			logger.Error("Direct gateway refund failed", "booking_id", b.ID, "error", rerr)
			return nil
		}
		b.PaymentStatus = domain.PaymentStatusRefunded
		logger.Info("Refunded without ledger record", "booking_id", b.ID, "gateway_refund_id", res.ID)
		return nil
	}

	open, err := s.refundRepo.HasOpenRefund(ctx, ledgerTx.ID)
	if err != nil {
		return err
	}
	if open {
		return domain.NewConflictError("a refund is already in flight for transaction %s", ledgerTx.ID)
	}

	refund := &domain.Refund{
		ID:                  uuid.NewString(),
		TransactionID:       ledgerTx.ID,
		BookingID:           b.ID,
		OriginalAmountCents: b.TotalPriceCents,
		RefundAmountCents:   b.RefundAmountCents,
		Status:              domain.RefundStatusPending,
		Reason:              refundReasonFor(req.actor),
		ProcessedBy:         req.userID,
	}
	if err := s.refundRepo.Create(ctx, refund); err != nil {
		return err
	}

	refund.Status = domain.RefundStatusProcessing
	if err := s.refundRepo.Update(ctx, refund); err != nil {
		return err
	}

	res, rerr := s.gateway.CreateRefund(ctx, intent.ID, refund.RefundAmountCents)
	now := s.now().UTC()
	refund.ProcessedAt = &now
	if rerr != nil {
		refund.Status = domain.RefundStatusFailed
		refund.FailureReason = rerr.Error()
		logger.Error("Gateway refund failed", "booking_id", b.ID, "refund_id", refund.ID, "error", rerr)
	} else {
		refund.Status = domain.RefundStatusCompleted
		refund.GatewayRefundID = res.ID
		refund.GatewayResponse = res.Status
		b.PaymentStatus = domain.PaymentStatusRefunded
	}
	return s.refundRepo.Update(ctx, refund)
}

func refundReasonFor(actor cancelActor) domain.RefundReason {
	switch actor {
	case actorRenter:
		return domain.RefundReasonRenterCancellation
	case actorOwner:
		return domain.RefundReasonOwnerCancellation
	default:
		return domain.RefundReasonAdminCancellation
	}
}

func (s *cancellationService) notifyCounterparty(ctx context.Context, b *domain.Booking, req cancelRequest) {
	// The renter hears about owner/admin cancellations, the owner about
	// renter cancellations.
	recipientID := b.RenterID
	if req.actor == actorRenter {
		recipientID = b.OwnerID
	}
	recipient, err := s.userRepo.GetByID(ctx, recipientID)
	if err != nil {
		logger.Warn("Could not load recipient for cancellation email", "booking_id", b.ID, "error", err)
		return
	}
	toolName := b.ToolID
	if tool, terr := s.toolRepo.GetByID(ctx, b.ToolID); terr == nil {
		toolName = tool.Name
	}
	if err := s.emailSvc.SendBookingCancelled(ctx, recipient.Email, toolName, req.reason); err != nil {
		logger.Warn("Cancellation email failed", "booking_id", b.ID, "error", err)
	}
}

func (s *cancellationService) alertAdmin(ctx context.Context, b *domain.Booking, req cancelRequest, eligible bool) {
	outcome := "no refund (late cancellation)"
	if eligible {
		outcome = fmt.Sprintf("refund of %d cents", b.RefundAmountCents)
	}
	err := s.notifier.Alert(ctx,
		fmt.Sprintf("Booking %s by %s", b.Status, req.actor),
		fmt.Sprintf("Booking %s moved to %s (reason: %s); %s", b.ID, b.Status, req.reason, outcome),
		"BOOKING_CANCELLED",
		domain.NotificationPriorityNormal,
		"bookings")
	if err != nil {
		logger.Warn("Admin alert failed", "booking_id", b.ID, "error", err)
	}
}
