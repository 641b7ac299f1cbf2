package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/logger"
	"toolrent-backend/internal/payment"
	"toolrent-backend/internal/repository"
)

const validationCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const validationCodeLength = 6

// generateValidationCode builds a 6-character uppercase alphanumeric code,
// uniformly distributed per character.
func generateValidationCode() (string, error) {
	code := make([]byte, validationCodeLength)
	max := big.NewInt(int64(len(validationCodeCharset)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = validationCodeCharset[n.Int64()]
	}
	return string(code), nil
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	toolRepo    repository.ToolRepository
	userRepo    repository.UserRepository
	walletSvc   WalletService
	cancelSvc   CancellationService
	txm         repository.TxManager
	gateway     payment.Gateway
	emailSvc    EmailService
	params      PlatformParams
	now         func() time.Time
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	toolRepo repository.ToolRepository,
	userRepo repository.UserRepository,
	walletSvc WalletService,
	cancelSvc CancellationService,
	txm repository.TxManager,
	gateway payment.Gateway,
	emailSvc EmailService,
	params PlatformParams,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		toolRepo:    toolRepo,
		userRepo:    userRepo,
		walletSvc:   walletSvc,
		cancelSvc:   cancelSvc,
		txm:         txm,
		gateway:     gateway,
		emailSvc:    emailSvc,
		params:      params,
		now:         time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	if !req.EndDate.After(req.StartDate) {
		return nil, domain.NewValidationError("end date must be after start date")
	}
	if req.PickupHour != nil && (*req.PickupHour < 0 || *req.PickupHour > 23) {
		return nil, domain.NewValidationError("pickup hour must be between 0 and 23")
	}

	tool, err := s.toolRepo.GetByID(ctx, req.ToolID)
	if err != nil {
		return nil, err
	}
	if tool.Status != domain.ToolStatusAvailable {
		return nil, domain.NewConflictError("tool %s is not available for rental", tool.ID)
	}

	overlapping, err := s.bookingRepo.FindOverlapping(ctx, req.ToolID, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if len(overlapping) > 0 {
		return nil, domain.NewConflictError("tool %s already has a booking between %s and %s",
			tool.ID, req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02"))
	}

	quote, err := PriceBooking(tool, req.StartDate, req.EndDate, s.params.FeeBps)
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		ID:                   uuid.NewString(),
		RenterID:             req.RenterID,
		OwnerID:              tool.OwnerID,
		ToolID:               tool.ID,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		PickupHour:           req.PickupHour,
		TotalPriceCents:      quote.TotalCents,
		PaymentMethod:        req.PaymentMethod,
		Status:               domain.BookingStatusPending,
		PaymentStatus:        domain.PaymentStatusPending,
		DepositCaptureStatus: domain.DepositCapturePending,
	}
	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, booking.TotalPriceCents, s.params.Currency, booking.ID,
		map[string]string{"tool_id": tool.ID, "renter_id": req.RenterID})
	if err != nil {
		// Compensating cleanup: a booking without an authorized payment must
		// not linger.
		if delErr := s.bookingRepo.Delete(ctx, booking.ID); delErr != nil {
			logger.Error("Failed to delete booking after payment intent failure",
				"booking_id", booking.ID, "error", delErr)
		}
		return nil, domain.NewExternalServiceError("payment gateway", err)
	}

	booking.PaymentIntentID = intent.ID
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}

	s.notifyCreated(ctx, booking, tool)
	return booking, nil
}

// notifyCreated sends the creation email. Best effort: a mail failure never
// aborts booking creation.
func (s *bookingService) notifyCreated(ctx context.Context, booking *domain.Booking, tool *domain.Tool) {
	owner, err := s.userRepo.GetByID(ctx, booking.OwnerID)
	if err != nil {
		logger.Warn("Could not load owner for booking notification", "booking_id", booking.ID, "error", err)
		return
	}
	renter, err := s.userRepo.GetByID(ctx, booking.RenterID)
	if err != nil {
		logger.Warn("Could not load renter for booking notification", "booking_id", booking.ID, "error", err)
		return
	}
	if err := s.emailSvc.SendBookingCreated(ctx, owner.Email, renter.Name, tool.Name); err != nil {
		logger.Warn("Booking creation email failed", "booking_id", booking.ID, "error", err)
	}
}

func (s *bookingService) Accept(ctx context.Context, bookingID string) (*domain.Booking, error) {
	var booking *domain.Booking

	err := s.txm.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		booking, err = s.bookingRepo.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if !domain.CanTransition(booking.Status, domain.BookingStatusAccepted) {
			return domain.NewConflictError("booking %s cannot be accepted because it is %s", booking.ID, booking.Status)
		}

		// Defensive recompute: a non-positive stored total means the row
		// predates the pricing fix, so derive it again from the tool.
		if booking.TotalPriceCents <= 0 {
			tool, err := s.toolRepo.GetByID(ctx, booking.ToolID)
			if err != nil {
				return err
			}
			quote, err := PriceBooking(tool, booking.StartDate, booking.EndDate, s.params.FeeBps)
			if err != nil {
				return err
			}
			booking.TotalPriceCents = quote.TotalCents
		}

		if err := s.distributeRevenue(ctx, booking); err != nil {
			return err
		}

		code, err := generateValidationCode()
		if err != nil {
			return err
		}

		now := s.now().UTC()
		booking.ValidationCode = code
		booking.Status = domain.BookingStatusAccepted
		booking.PaymentStatus = domain.PaymentStatusCaptured
		booking.PaymentCapturedAt = &now
		booking.AcceptedAt = &now
		return s.bookingRepo.Update(ctx, booking)
	})
	if err != nil {
		if domain.IsConflict(err) || domain.IsNotFound(err) {
			return nil, err
		}
		return nil, domain.WrapValidation("failed to accept booking", err)
	}

	s.notifyAccepted(ctx, booking)
	return booking, nil
}

// distributeRevenue credits the owner and platform wallets with their shares
// of the booking total, into the pending tranche, one RENTAL_INCOME row each.
// Only ownerShare + platformShare (94%) of the total is moved; the remaining
// 6% is the service fee baked into the total and is not distributed.
func (s *bookingService) distributeRevenue(ctx context.Context, booking *domain.Booking) error {
	ownerWallet, err := s.walletSvc.GetOrCreate(ctx, booking.OwnerID)
	if err != nil {
		return err
	}
	platformWallet, err := s.walletSvc.GetOrCreate(ctx, s.params.PlatformUserID)
	if err != nil {
		return err
	}

	ownerShare := shareCents(booking.TotalPriceCents, s.params.OwnerShareBps)
	platformShare := shareCents(booking.TotalPriceCents, s.params.PlatformShareBps)

	if err := s.walletSvc.AddPendingFunds(ctx, PendingCredit{
		WalletID:          ownerWallet.ID,
		AmountCents:       ownerShare,
		SenderID:          booking.RenterID,
		RecipientID:       booking.OwnerID,
		BookingID:         booking.ID,
		ExternalReference: booking.PaymentIntentID,
		Description:       fmt.Sprintf("Rental income for booking %s", booking.ID),
	}); err != nil {
		return err
	}

	return s.walletSvc.AddPendingFunds(ctx, PendingCredit{
		WalletID:          platformWallet.ID,
		AmountCents:       platformShare,
		SenderID:          booking.RenterID,
		RecipientID:       s.params.PlatformUserID,
		BookingID:         booking.ID,
		ExternalReference: booking.PaymentIntentID,
		Description:       fmt.Sprintf("Platform commission for booking %s", booking.ID),
	})
}

func (s *bookingService) notifyAccepted(ctx context.Context, booking *domain.Booking) {
	renter, err := s.userRepo.GetByID(ctx, booking.RenterID)
	if err != nil {
		logger.Warn("Could not load renter for acceptance email", "booking_id", booking.ID, "error", err)
		return
	}
	tool, err := s.toolRepo.GetByID(ctx, booking.ToolID)
	if err != nil {
		logger.Warn("Could not load tool for acceptance email", "booking_id", booking.ID, "error", err)
		return
	}
	if err := s.emailSvc.SendBookingAccepted(ctx, renter.Email, tool.Name, booking.ValidationCode); err != nil {
		logger.Warn("Acceptance email failed", "booking_id", booking.ID, "error", err)
	}
}

// Reject refuses a pending booking. Refund handling goes through the
// cancellation engine so there is exactly one refund code path.
func (s *bookingService) Reject(ctx context.Context, bookingID, reason, message string) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(booking.Status, domain.BookingStatusRejected) {
		return nil, domain.NewConflictError("booking %s cannot be rejected because it is %s", booking.ID, booking.Status)
	}
	return s.cancelSvc.CancelByOwner(ctx, bookingID, booking.OwnerID, reason, message)
}

func (s *bookingService) ValidateCode(ctx context.Context, bookingID, code string) (*domain.Booking, error) {
	var booking *domain.Booking

	err := s.txm.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		booking, err = s.bookingRepo.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if !domain.CanTransition(booking.Status, domain.BookingStatusOngoing) {
			return domain.NewValidationError(
				fmt.Sprintf("booking %s cannot be started because it is %s", booking.ID, booking.Status))
		}
		if booking.ValidationCode == "" {
			return domain.NewValidationError("booking has no validation code")
		}
		if booking.ValidationCode != code {
			return domain.NewValidationError("validation code does not match")
		}

		booking.Status = domain.BookingStatusOngoing
		if booking.HasActiveClaim {
			// Starting the rental settles any open pickup dispute.
			booking.HasActiveClaim = false
			logger.Info("Cleared active claim on rental start", "booking_id", booking.ID)
		}
		return s.bookingRepo.Update(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	// Post-commit, best effort: release the pending funds credited at
	// acceptance and tell the renter the rental started. Neither failure
	// unwinds the committed transition.
	s.releasePendingFunds(ctx, booking)
	s.notifyStarted(ctx, booking)

	return booking, nil
}

func (s *bookingService) releasePendingFunds(ctx context.Context, booking *domain.Booking) {
	for _, userID := range []string{booking.OwnerID, s.params.PlatformUserID} {
		wallet, err := s.walletSvc.GetOrCreate(ctx, userID)
		if err != nil {
			logger.Error("Could not load wallet for fund release",
				"booking_id", booking.ID, "user_id", userID, "error", err)
			continue
		}
		if err := s.walletSvc.TransferPendingToAvailable(ctx, wallet.ID, booking.ID); err != nil {
			logger.Error("Pending fund release failed",
				"booking_id", booking.ID, "wallet_id", wallet.ID, "error", err)
		}
	}
}

func (s *bookingService) notifyStarted(ctx context.Context, booking *domain.Booking) {
	renter, err := s.userRepo.GetByID(ctx, booking.RenterID)
	if err != nil {
		logger.Warn("Could not load renter for start email", "booking_id", booking.ID, "error", err)
		return
	}
	tool, err := s.toolRepo.GetByID(ctx, booking.ToolID)
	if err != nil {
		logger.Warn("Could not load tool for start email", "booking_id", booking.ID, "error", err)
		return
	}
	if err := s.emailSvc.SendBookingStarted(ctx, renter.Email, tool.Name); err != nil {
		logger.Warn("Booking start email failed", "booking_id", booking.ID, "error", err)
	}
}

func (s *bookingService) ConfirmReturn(ctx context.Context, bookingID, renterID string) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.RenterID != renterID {
		return nil, domain.NewValidationError("only the renter can confirm the return")
	}
	if booking.Status != domain.BookingStatusOngoing {
		return nil, domain.NewConflictError("booking %s cannot be returned because it is %s", booking.ID, booking.Status)
	}
	if booking.RenterHasReturned {
		return nil, domain.NewConflictError("return already confirmed for booking %s", booking.ID)
	}

	booking.RenterHasReturned = true
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) ConfirmPickup(ctx context.Context, bookingID, ownerID string) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.OwnerID != ownerID {
		return nil, domain.NewValidationError("only the owner can confirm the pickup")
	}
	if !domain.CanTransition(booking.Status, domain.BookingStatusCompleted) {
		return nil, domain.NewConflictError("booking %s cannot be completed because it is %s", booking.ID, booking.Status)
	}
	if !booking.RenterHasReturned {
		return nil, domain.NewConflictError("renter has not confirmed the return of booking %s", booking.ID)
	}

	now := s.now().UTC()
	booking.Status = domain.BookingStatusCompleted
	booking.PickupTool = &now
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) Get(ctx context.Context, bookingID string) (*domain.Booking, error) {
	return s.bookingRepo.GetByID(ctx, bookingID)
}

func (s *bookingService) ListByRenter(ctx context.Context, renterID, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	return s.bookingRepo.ListByRenter(ctx, renterID, status, page, pageSize)
}

func (s *bookingService) ListByOwner(ctx context.Context, ownerID, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	return s.bookingRepo.ListByOwner(ctx, ownerID, status, page, pageSize)
}
